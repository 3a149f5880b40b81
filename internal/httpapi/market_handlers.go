package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// priceTick is one websocket stream message.
type priceTick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

func (s *Server) marketAvailable(w http.ResponseWriter, r *http.Request) bool {
	if s.market == nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "market data is disabled"})
		return false
	}
	return true
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !s.marketAvailable(w, r) {
		return
	}
	quote, err := s.market.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, quote)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if !s.marketAvailable(w, r) {
		return
	}
	articles, err := s.market.News(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, articles)
}

// handleStream pushes the latest price of a symbol every stream interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.marketAvailable(w, r) {
		return
	}
	symbol := chi.URLParam(r, "symbol")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
		defer s.metrics.ActiveStreams.Dec()
	}
	ctx := r.Context()
	s.logger.Debug(ctx, "Price stream opened", map[string]interface{}{"symbol": symbol})

	// Reads are only used to notice the client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		tick := priceTick{Symbol: symbol, Time: time.Now().UTC()}
		price, err := s.market.Price(ctx, symbol)
		if err != nil {
			tick.Error = err.Error()
		} else {
			tick.Price = price
		}
		if err := conn.WriteJSON(tick); err != nil {
			s.logger.Debug(ctx, "Price stream write failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-closed:
			s.logger.Debug(ctx, "Price stream closed by client", map[string]interface{}{"symbol": symbol})
			return
		case <-ticker.C:
		}
	}
}
