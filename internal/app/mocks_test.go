package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// memStore is an in-memory ports.Store.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	trades     map[int64]*domain.Trade
	users      map[int64]*domain.User
	pairs      []domain.TradingPair
	strategies []domain.StrategyType
	codes      []domain.RegistrationCode

	findErr error
}

var _ ports.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{trades: map[int64]*domain.Trade{}, users: map[int64]*domain.User{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateTrade(ctx context.Context, t *domain.Trade) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[t.Owner]; !ok {
		return 0, ports.ErrNotFound
	}
	t.ID = m.id()
	cp := *t
	m.trades[t.ID] = &cp
	return t.ID, nil
}

func (m *memStore) UpdateTrade(ctx context.Context, t *domain.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trades[t.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *t
	m.trades[t.ID] = &cp
	return nil
}

func (m *memStore) DeleteTrade(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trades[id]; !ok {
		return ports.ErrNotFound
	}
	delete(m.trades, id)
	return nil
}

func (m *memStore) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) sortedTrades(filter func(*domain.Trade) bool) []*domain.Trade {
	out := make([]*domain.Trade, 0)
	for _, t := range m.trades {
		if filter(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenTime.Equal(out[j].OpenTime) {
			return out[i].OpenTime.Before(out[j].OpenTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) FindByOwner(ctx context.Context, owner int64) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.sortedTrades(func(t *domain.Trade) bool { return t.Owner == owner }), nil
}

func (m *memStore) FindAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sortedTrades(func(*domain.Trade) bool { return true })
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

func (m *memStore) CountCompletedByOwner(ctx context.Context, owner int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.trades {
		if t.Owner == owner && t.Status == domain.StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) LeaderboardEntries(ctx context.Context) ([]ports.TraderTradeCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[int64]*ports.TraderTradeCounts{}
	for _, t := range m.trades {
		if t.Status != domain.StatusCompleted || t.ExitPrice == nil {
			continue
		}
		u := m.users[t.Owner]
		c, ok := counts[t.Owner]
		if !ok {
			c = &ports.TraderTradeCounts{Owner: u.ID, Username: u.Username, Level: u.Level}
			counts[t.Owner] = c
		}
		c.TotalTrades++
		if (t.Direction == domain.Long && *t.ExitPrice > t.EntryPrice) || (t.Direction == domain.Short && *t.ExitPrice < t.EntryPrice) {
			c.WinningTrades++
		}
	}
	out := make([]ports.TraderTradeCounts, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out, nil
}

func (m *memStore) CreateUser(ctx context.Context, u *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, ports.ErrDuplicateEntry
		}
	}
	u.ID = m.id()
	cp := *u
	m.users[u.ID] = &cp
	return u.ID, nil
}

func (m *memStore) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) withUser(id int64, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memStore) UpdateProfile(ctx context.Context, user *domain.User) error {
	return m.withUser(user.ID, func(u *domain.User) {
		u.Email, u.Bio, u.RiskTolerance = user.Email, user.Bio, user.RiskTolerance
	})
}

func (m *memStore) UpdateLevel(ctx context.Context, id int64, level int) error {
	return m.withUser(id, func(u *domain.User) { u.Level = level })
}

func (m *memStore) UpdateExpiry(ctx context.Context, id int64, expiry time.Time) error {
	return m.withUser(id, func(u *domain.User) { u.ExpiryDate = expiry })
}

func (m *memStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ports.ErrNotFound
	}
	for tid, t := range m.trades {
		if t.Owner == id {
			delete(m.trades, tid)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TradingPair{}, m.pairs...), nil
}

func (m *memStore) CreateTradingPair(ctx context.Context, pair string) (*domain.TradingPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pairs {
		if p.Pair == pair {
			return nil, ports.ErrDuplicateEntry
		}
	}
	p := domain.TradingPair{ID: m.id(), Pair: pair}
	m.pairs = append(m.pairs, p)
	return &p, nil
}

func (m *memStore) DeleteTradingPair(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pairs {
		if p.ID == id {
			m.pairs = append(m.pairs[:i], m.pairs[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}

func (m *memStore) ListStrategyTypes(ctx context.Context) ([]domain.StrategyType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StrategyType{}, m.strategies...), nil
}

func (m *memStore) CreateStrategyType(ctx context.Context, name string) (*domain.StrategyType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.strategies {
		if s.Name == name {
			return nil, ports.ErrDuplicateEntry
		}
	}
	s := domain.StrategyType{ID: m.id(), Name: name}
	m.strategies = append(m.strategies, s)
	return &s, nil
}

func (m *memStore) DeleteStrategyType(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.strategies {
		if s.ID == id {
			m.strategies = append(m.strategies[:i], m.strategies[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}

func (m *memStore) SaveRegistrationCode(ctx context.Context, code *domain.RegistrationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	code.ID = m.id()
	m.codes = append(m.codes, *code)
	return nil
}

func (m *memStore) LatestRegistrationCode(ctx context.Context, day time.Time) (*domain.RegistrationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		if m.codes[i].Day.Format("2006-01-02") == day.Format("2006-01-02") {
			c := m.codes[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) Close() error { return nil }

// addUser seeds a user directly.
func (m *memStore) addUser(t *testing.T, username string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, IsAdmin: admin, Level: 1}
	_, err := m.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

type mockMarket struct {
	price     float64
	priceErr  error
	klines    []*domain.Kline
	klinesErr error
	pingErr   error
}

func (m *mockMarket) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return m.price, m.priceErr
}

func (m *mockMarket) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	return m.klines, m.klinesErr
}

func (m *mockMarket) Ping(ctx context.Context) error { return m.pingErr }

type mockNews struct {
	articles  []domain.NewsArticle
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockNews) LatestNews(ctx context.Context, query string, limit int) ([]domain.NewsArticle, error) {
	m.lastQuery, m.lastLimit = query, limit
	return m.articles, m.err
}

var errBoom = errors.New("boom")

func newTestEvaluator(t *testing.T) *analytics.Evaluator {
	t.Helper()
	e, err := analytics.NewEvaluator(analytics.DefaultRiskPercent)
	require.NoError(t, err)
	return e
}

func price(v float64) *float64 { return &v }

func at(t time.Time) *time.Time { return &t }
