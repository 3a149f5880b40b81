package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cryptoJournal/internal/adapters/session"
	"cryptoJournal/internal/adapters/sqlite"
	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/app"
	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type fakeMarket struct {
	price float64
	err   error
}

func (f *fakeMarket) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, f.err
}

func (f *fakeMarket) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	return nil, ports.ErrMarketDataUnavailable
}

func (f *fakeMarket) Ping(ctx context.Context) error { return nil }

type fakeBackups struct {
	last  time.Time
	calls int
}

func (f *fakeBackups) CreateBackup(ctx context.Context) (string, error) {
	f.calls++
	f.last = time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	return "backups/backup_20240501_130000.db", nil
}

func (f *fakeBackups) LastBackupTime() (time.Time, bool, error) {
	return f.last, !f.last.IsZero(), nil
}

type testEnv struct {
	server     *Server
	handler    http.Handler
	auth       *app.AuthService
	adminToken string
	backups    *fakeBackups
	market     *fakeMarket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := &mockLogger{}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: filepath.Join(t.TempDir(), "journal.db"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	evaluator, err := analytics.NewEvaluator(analytics.DefaultRiskPercent)
	require.NoError(t, err)
	journal, err := app.NewJournalService(repo, repo, evaluator, nil, logger, 10)
	require.NoError(t, err)
	auth, err := app.NewAuthService(repo, repo, session.NewMemoryStore(nil), nil, logger, app.AuthConfig{
		SessionTTL:              time.Hour,
		AccountValidity:         30 * 24 * time.Hour,
		RequireRegistrationCode: true,
		BcryptCost:              bcrypt.MinCost,
	})
	require.NoError(t, err)
	catalog, err := app.NewCatalogService(repo, logger)
	require.NoError(t, err)
	mkt := &fakeMarket{price: 64000.5}
	market, err := app.NewMarketService(mkt, nil, nil, logger, app.MarketConfig{})
	require.NoError(t, err)
	metrics, err := NewMetrics("journal")
	require.NoError(t, err)
	backups := &fakeBackups{}

	srv, err := NewServer(Config{
		StreamInterval: 20 * time.Millisecond,
		Journal:        journal,
		Auth:           auth,
		Catalog:        catalog,
		Market:         market,
		Backups:        backups,
		Metrics:        metrics,
		Logger:         logger,
	})
	require.NoError(t, err)

	_, err = auth.CreateAdmin(ctx, "root", "rootpass")
	require.NoError(t, err)
	sess, _, err := auth.Login(ctx, "root", "rootpass")
	require.NoError(t, err)

	return &testEnv{server: srv, handler: srv.Handler(), auth: auth, adminToken: sess.Token, backups: backups, market: mkt}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// registerTrader signs up a trader with today's code and returns their token.
func (e *testEnv) registerTrader(t *testing.T, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/admin/registration-code", e.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var code map[string]string
	decodeBody(t, rec, &code)

	rec = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "secret1", "email": username + "@example.com",
		"registrationCode": strings.ToLower(code["code"]),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Config{Logger: &mockLogger{}})
	assert.Error(t, err)
}

func TestServer_Healthcheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_Auth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("protected route without token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/trades", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("unknown token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/trades", "nope", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("bad credentials", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "root", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("wrong registration code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "mallory", "password": "secret1", "registrationCode": "XXXXXX",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("payload validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "ab", "password": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"root","password":"rootpass","extra":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	token := env.registerTrader(t, "alice")

	t.Run("duplicate username", func(t *testing.T) {
		code, err := env.auth.CurrentRegistrationCode(context.Background())
		require.NoError(t, err)
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice", "password": "secret1", "registrationCode": code,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
	t.Run("me and profile", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me domain.User
		decodeBody(t, rec, &me)
		assert.Equal(t, "alice", me.Username)
		assert.Equal(t, 1, me.Level)
		assert.NotContains(t, rec.Body.String(), "secret1")

		rec = env.do(t, http.MethodPut, "/api/auth/me", token, map[string]string{"bio": "swing trader", "riskTolerance": "low"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeBody(t, rec, &me)
		assert.Equal(t, "swing trader", me.Bio)

		rec = env.do(t, http.MethodPut, "/api/auth/me", token, map[string]string{"riskTolerance": "yolo"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("non-admin on admin route", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/users", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("logout invalidates token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_TradeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerTrader(t, "alice")
	bob := env.registerTrader(t, "bob")

	open := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := env.do(t, http.MethodPost, "/api/trades", alice, map[string]interface{}{
		"date": open, "endDate": open.Add(2 * time.Hour), "pair": "BTC/USDT", "amount": 1,
		"entryPrice": 100, "exitPrice": 110, "tradeType": "long", "strategy": "breakout",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first domain.Trade
	decodeBody(t, rec, &first)
	assert.Equal(t, domain.StatusCompleted, first.Status)
	assert.NotZero(t, first.ID)

	rec = env.do(t, http.MethodPost, "/api/trades", alice, map[string]interface{}{
		"date": open.Add(24 * time.Hour), "pair": "BTC/USDT", "amount": 1, "entryPrice": 110, "tradeType": "long",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second domain.Trade
	decodeBody(t, rec, &second)
	assert.Equal(t, domain.StatusActive, second.Status)

	t.Run("invalid payloads", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trades", alice, map[string]interface{}{
			"date": open, "pair": "BTC/USDT", "amount": 1, "entryPrice": 100, "tradeType": "sideways",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = env.do(t, http.MethodPost, "/api/trades", alice, map[string]interface{}{
			"date": open, "pair": "BTC/USDT", "amount": 1, "entryPrice": 100, "tradeType": "long", "exitPrice": 120,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "exit price without end date")
		rec = env.do(t, http.MethodGet, "/api/trades/abc", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list and get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/trades", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var trades []domain.Trade
		decodeBody(t, rec, &trades)
		assert.Len(t, trades, 2)

		rec = env.do(t, http.MethodGet, "/api/trades", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())

		rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/trades/%d", first.ID), bob, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = env.do(t, http.MethodGet, "/api/trades/9999", alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("evaluation", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/trades/%d/evaluation", first.ID), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var eval analytics.Evaluation
		decodeBody(t, rec, &eval)
		assert.InDelta(t, 10.0, eval.PNL, 1e-9)
		assert.InDelta(t, 0.1, eval.PercentReturn, 1e-9)

		rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/trades/%d/evaluation", second.ID), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"evaluation":null`)
	})

	t.Run("close the active trade", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/trades/%d", second.ID), alice, map[string]interface{}{
			"date": open.Add(24 * time.Hour), "endDate": open.Add(26 * time.Hour), "pair": "BTC/USDT",
			"amount": 1, "entryPrice": 110, "exitPrice": 99, "tradeType": "long",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated domain.Trade
		decodeBody(t, rec, &updated)
		assert.Equal(t, domain.StatusCompleted, updated.Status)
	})

	t.Run("summary and dashboard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/metrics/trades", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var metrics analytics.PortfolioMetrics
		decodeBody(t, rec, &metrics)
		assert.Equal(t, 2, metrics.CompletedTrades)
		assert.InDelta(t, -1.0, metrics.TotalPNL, 1e-9)
		assert.InDelta(t, 0.5, metrics.WinRate, 1e-9)

		rec = env.do(t, http.MethodGet, "/api/analytics", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var dash app.Dashboard
		decodeBody(t, rec, &dash)
		require.Len(t, dash.EquityCurve, 2)
		assert.InDelta(t, 1.1, dash.MaxDrawdown, 1e-9)
		assert.Equal(t, 1, dash.Level)
		assert.Equal(t, 8, dash.TradesToNextLevel)
	})

	t.Run("leaderboard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/leaderboard?limit=5", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []analytics.LeaderboardRow
		decodeBody(t, rec, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, "alice", rows[0].Username)
		assert.Equal(t, 1, rows[0].Rank)

		rec = env.do(t, http.MethodGet, "/api/leaderboard?limit=x", bob, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/trades/%d", first.ID), bob, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/trades/%d", first.ID), alice, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/trades/%d", first.ID), alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Admin(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.registerTrader(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/auth/me", aliceToken, nil)
	var alice domain.User
	decodeBody(t, rec, &alice)

	t.Run("catalog", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trading-pairs", aliceToken, map[string]string{"pair": "SOL/USDT"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/trading-pairs", env.adminToken, map[string]string{"pair": "sol/usdt"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var pair domain.TradingPair
		decodeBody(t, rec, &pair)
		assert.Equal(t, "SOL/USDT", pair.Pair)

		rec = env.do(t, http.MethodPost, "/api/trading-pairs", env.adminToken, map[string]string{"pair": "SOL/USDT"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/trading-pairs", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "SOL/USDT")

		rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/trading-pairs/%d", pair.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/strategy-types", env.adminToken, map[string]string{"name": "Scalping"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = env.do(t, http.MethodGet, "/api/strategy-types", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Scalping")
	})

	t.Run("users", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/users", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var users []domain.User
		decodeBody(t, rec, &users)
		assert.Len(t, users, 2)

		rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/level-up", alice.ID), env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		expiry := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
		rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/expiry", alice.ID), env.adminToken,
			map[string]interface{}{"expiryDate": expiry})
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/expiry", alice.ID), env.adminToken, map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats and trades", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/stats", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats app.SystemStats
		decodeBody(t, rec, &stats)
		assert.Equal(t, 2, stats.TotalUsers)

		rec = env.do(t, http.MethodGet, "/api/admin/trades", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("backups", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/backups/latest", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"lastBackup":null}`, rec.Body.String())

		rec = env.do(t, http.MethodPost, "/api/admin/backups", env.adminToken, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, env.backups.calls)

		rec = env.do(t, http.MethodGet, "/api/admin/backups/latest", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"lastBackup":"2024-05-01T13:00:00Z"}`, rec.Body.String())
	})

	t.Run("delete users", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", env.adminToken, nil)
		var admin domain.User
		decodeBody(t, rec, &admin)

		rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", alice.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = env.do(t, http.MethodGet, "/api/auth/me", aliceToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_Market(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/market/BTCUSDT", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote app.Quote
	decodeBody(t, rec, &quote)
	assert.Equal(t, 64000.5, quote.Price)
	assert.Nil(t, quote.Analysis)

	rec = env.do(t, http.MethodGet, "/api/news", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	env.market.err = fmt.Errorf("symbol: %w", ports.ErrUnknownSymbol)
	rec = env.do(t, http.MethodGet, "/api/market/NOPE", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PriceStream(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/market/ETHUSDT/stream?token=" + env.adminToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 0; i < 2; i++ {
		var tick priceTick
		require.NoError(t, conn.ReadJSON(&tick))
		assert.Equal(t, "ETHUSDT", tick.Symbol)
		assert.Equal(t, 64000.5, tick.Price)
	}

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/market/ETHUSDT/stream", nil)
	assert.Error(t, err, "stream requires a token")
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthcheck", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `journal_http_requests_total{method="GET",route="/healthcheck",status="200"} 1`)
	assert.Contains(t, body, "journal_http_request_duration_seconds")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", ports.ErrInvalidRequest), http.StatusBadRequest},
		{domain.ErrInvalidTrade, http.StatusBadRequest},
		{ports.ErrInvalidRegistrationCode, http.StatusBadRequest},
		{ports.ErrUnauthorized, http.StatusUnauthorized},
		{ports.ErrInvalidCredentials, http.StatusUnauthorized},
		{ports.ErrPermissionDenied, http.StatusForbidden},
		{ports.ErrAccountExpired, http.StatusForbidden},
		{ports.ErrNotFound, http.StatusNotFound},
		{ports.ErrDuplicateEntry, http.StatusConflict},
		{ports.ErrRateLimited, http.StatusTooManyRequests},
		{ports.ErrMarketDataUnavailable, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
