package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"cryptoJournal/internal/app"
	"cryptoJournal/internal/ports"
)

// Backups is the view of the backup scheduler exposed to administrators.
type Backups interface {
	CreateBackup(ctx context.Context) (string, error)
	LastBackupTime() (time.Time, bool, error)
}

// Config holds the HTTP server settings and its collaborators.
type Config struct {
	Port           string
	StreamInterval time.Duration // Poll period of the websocket price stream

	Journal *app.JournalService
	Auth    *app.AuthService
	Catalog *app.CatalogService
	Market  *app.MarketService
	Backups Backups // Optional
	Metrics *Metrics
	Logger  ports.Logger
}

// Server exposes the journal over a JSON API.
type Server struct {
	journal        *app.JournalService
	auth           *app.AuthService
	catalog        *app.CatalogService
	market         *app.MarketService
	backups        Backups
	metrics        *Metrics
	logger         ports.Logger
	validate       *validator.Validate
	streamInterval time.Duration
	port           string
	router         chi.Router
}

// NewServer wires the router. Market, Backups and Metrics may be nil; their routes then report unavailability.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Journal == nil || cfg.Auth == nil || cfg.Catalog == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for HTTP server")
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = 5 * time.Second
	}
	if cfg.Port == "" {
		cfg.Port = "9898"
	}
	s := &Server{
		journal:        cfg.Journal,
		auth:           cfg.Auth,
		catalog:        cfg.Catalog,
		market:         cfg.Market,
		backups:        cfg.Backups,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		streamInterval: cfg.StreamInterval,
		port:           cfg.Port,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.Error(r.Context(), err, "Healthcheck write failed")
		}
	})
	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/api/auth/logout", s.handleLogout)
		r.Get("/api/auth/me", s.handleMe)
		r.Put("/api/auth/me", s.handleUpdateProfile)

		r.Route("/api/trades", func(r chi.Router) {
			r.Get("/", s.handleListTrades)
			r.Post("/", s.handleCreateTrade)
			r.Get("/{id}", s.handleGetTrade)
			r.Put("/{id}", s.handleUpdateTrade)
			r.Delete("/{id}", s.handleDeleteTrade)
			r.Get("/{id}/evaluation", s.handleEvaluateTrade)
		})
		r.Get("/api/metrics/trades", s.handleSummary)
		r.Get("/api/analytics", s.handleDashboard)
		r.Get("/api/leaderboard", s.handleLeaderboard)

		r.Get("/api/trading-pairs", s.handleListPairs)
		r.Get("/api/strategy-types", s.handleListStrategies)

		r.Get("/api/market/{symbol}", s.handleQuote)
		r.Get("/api/market/{symbol}/stream", s.handleStream)
		r.Get("/api/news", s.handleNews)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/api/trading-pairs", s.handleAddPair)
			r.Delete("/api/trading-pairs/{id}", s.handleDeletePair)
			r.Post("/api/strategy-types", s.handleAddStrategy)
			r.Delete("/api/strategy-types/{id}", s.handleDeleteStrategy)

			r.Route("/api/admin", func(r chi.Router) {
				r.Get("/users", s.handleListUsers)
				r.Post("/users/{id}/level-up", s.handleLevelUp)
				r.Put("/users/{id}/expiry", s.handleExtendExpiry)
				r.Delete("/users/{id}", s.handleDeleteUser)
				r.Get("/trades", s.handleListAllTrades)
				r.Delete("/trades/{id}", s.handleDeleteTrade)
				r.Get("/registration-code", s.handleRegistrationCode)
				r.Post("/registration-code", s.handleNewRegistrationCode)
				r.Get("/stats", s.handleSystemStats)
				r.Get("/backups/latest", s.handleLatestBackup)
				r.Post("/backups", s.handleCreateBackup)
			})
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := ":" + s.port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Shutting down HTTP server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
