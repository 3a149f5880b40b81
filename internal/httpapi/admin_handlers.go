package httpapi

import (
	"net/http"
	"time"

	"cryptoJournal/internal/domain"
)

type pairPayload struct {
	Pair string `json:"pair" validate:"required,max=32"`
}

type strategyPayload struct {
	Name string `json:"name" validate:"required,max=64"`
}

type expiryPayload struct {
	ExpiryDate time.Time `json:"expiryDate" validate:"required"`
}

type backupResponse struct {
	LastBackup *time.Time `json:"lastBackup"`
	Path       string     `json:"path,omitempty"`
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.catalog.TradingPairs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if pairs == nil {
		pairs = []domain.TradingPair{}
	}
	s.writeJSON(w, r, http.StatusOK, pairs)
}

func (s *Server) handleAddPair(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload pairPayload
	if !s.decode(w, r, &payload) {
		return
	}
	pair, err := s.catalog.AddTradingPair(r.Context(), user, payload.Pair)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, pair)
}

func (s *Server) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	if err := s.catalog.DeleteTradingPair(r.Context(), user, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalog.StrategyTypes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if types == nil {
		types = []domain.StrategyType{}
	}
	s.writeJSON(w, r, http.StatusOK, types)
}

func (s *Server) handleAddStrategy(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload strategyPayload
	if !s.decode(w, r, &payload) {
		return
	}
	st, err := s.catalog.AddStrategyType(r.Context(), user, payload.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	if err := s.catalog.DeleteStrategyType(r.Context(), user, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	users, err := s.auth.ListUsers(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	updated, err := s.journal.RecalculateUserLevel(r.Context(), user, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleExtendExpiry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	var payload expiryPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if err := s.auth.ExtendExpiry(r.Context(), user, id, payload.ExpiryDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())
	if err := s.auth.DeleteUser(r.Context(), user, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAllTrades(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	trades, err := s.journal.ListAllTrades(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if trades == nil {
		trades = []*domain.Trade{}
	}
	s.writeJSON(w, r, http.StatusOK, trades)
}

func (s *Server) handleRegistrationCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.auth.CurrentRegistrationCode(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"code": code})
}

func (s *Server) handleNewRegistrationCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.auth.GenerateRegistrationCode(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	stats, err := s.journal.SystemStats(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleLatestBackup(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "backups are disabled"})
		return
	}
	last, ok, err := s.backups.LastBackupTime()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := backupResponse{}
	if ok {
		resp.LastBackup = &last
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "backups are disabled"})
		return
	}
	path, err := s.backups.CreateBackup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	last, _, _ := s.backups.LastBackupTime()
	s.writeJSON(w, r, http.StatusCreated, backupResponse{LastBackup: &last, Path: path})
}
