package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"cryptoJournal/internal/domain"
)

type tradePayload struct {
	Date            time.Time  `json:"date" validate:"required"`
	EndDate         *time.Time `json:"endDate"`
	Pair            string     `json:"pair" validate:"required,max=32"`
	Amount          float64    `json:"amount" validate:"gt=0"`
	EntryPrice      float64    `json:"entryPrice" validate:"gt=0"`
	ExitPrice       *float64   `json:"exitPrice" validate:"omitempty,gte=0"`
	TradeType       string     `json:"tradeType" validate:"required,oneof=long short"`
	Status          string     `json:"status" validate:"omitempty,oneof=active completed"`
	Strategy        string     `json:"strategy" validate:"max=64"`
	Notes           string     `json:"notes"`
	EntryScreenshot string     `json:"entryScreenshot"`
	ExitScreenshot  string     `json:"exitScreenshot"`
}

func (p tradePayload) toTrade() *domain.Trade {
	return &domain.Trade{
		OpenTime:        p.Date,
		CloseTime:       p.EndDate,
		Pair:            p.Pair,
		Quantity:        p.Amount,
		EntryPrice:      p.EntryPrice,
		ExitPrice:       p.ExitPrice,
		Direction:       domain.Direction(p.TradeType),
		Status:          domain.TradeStatus(p.Status),
		Strategy:        p.Strategy,
		Notes:           p.Notes,
		EntryScreenshot: p.EntryScreenshot,
		ExitScreenshot:  p.ExitScreenshot,
	}
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	trades, err := s.journal.ListTrades(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if trades == nil {
		trades = []*domain.Trade{}
	}
	s.writeJSON(w, r, http.StatusOK, trades)
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload tradePayload
	if !s.decode(w, r, &payload) {
		return
	}
	trade, err := s.journal.AddTrade(r.Context(), user, payload.toTrade())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.TradesRecorded.Inc()
	}
	s.writeJSON(w, r, http.StatusCreated, trade)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	trade, err := s.journal.GetTrade(r.Context(), user, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, trade)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	var payload tradePayload
	if !s.decode(w, r, &payload) {
		return
	}
	trade := payload.toTrade()
	trade.ID = id
	updated, err := s.journal.UpdateTrade(r.Context(), user, trade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	if err := s.journal.DeleteTrade(r.Context(), user, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluateTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	eval, err := s.journal.EvaluateTrade(r.Context(), user, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if eval == nil {
		// Active trades have no evaluation yet.
		s.writeJSON(w, r, http.StatusOK, map[string]interface{}{"tradeId": id, "evaluation": nil})
		return
	}
	s.writeJSON(w, r, http.StatusOK, eval)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	metrics, err := s.journal.Summary(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, metrics)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	dashboard, err := s.journal.Dashboard(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, dashboard)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(w, r, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	rows, err := s.journal.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, rows)
}
