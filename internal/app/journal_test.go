package app

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

var journalNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestJournal(t *testing.T) (*JournalService, *memStore, *mockLogger) {
	t.Helper()
	store := newMemStore()
	logger := &mockLogger{}
	svc, err := NewJournalService(store, store, newTestEvaluator(t), &fakeClock{now: journalNow}, logger, 10)
	require.NoError(t, err)
	return svc, store, logger
}

func completed(dir domain.Direction, qty, entry, exit float64, open, close time.Time) *domain.Trade {
	return &domain.Trade{
		OpenTime: open, CloseTime: at(close), Pair: "BTC/USDT", Quantity: qty,
		EntryPrice: entry, ExitPrice: price(exit), Direction: dir, Status: domain.StatusCompleted,
	}
}

func active(dir domain.Direction, qty, entry float64, open time.Time) *domain.Trade {
	return &domain.Trade{
		OpenTime: open, Pair: "ETH/USDT", Quantity: qty, EntryPrice: entry, Direction: dir, Status: domain.StatusActive,
	}
}

func TestNewJournalService_Validation(t *testing.T) {
	store := newMemStore()
	eval := newTestEvaluator(t)

	_, err := NewJournalService(nil, store, eval, nil, &mockLogger{}, 10)
	assert.Error(t, err)
	_, err = NewJournalService(store, store, nil, nil, &mockLogger{}, 10)
	assert.Error(t, err)
	_, err = NewJournalService(store, store, eval, nil, &mockLogger{}, 0)
	assert.Error(t, err)

	svc, err := NewJournalService(store, store, eval, nil, &mockLogger{}, 5)
	require.NoError(t, err)
	assert.Same(t, eval, svc.Evaluator())
}

func TestJournalService_AddTrade(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	t.Run("status derived from exit data", func(t *testing.T) {
		trade := completed(domain.Long, 1, 100, 110, journalNow.Add(-2*time.Hour), journalNow)
		trade.Status = ""
		trade.Owner = 999 // ignored: the actor owns the trade

		saved, err := svc.AddTrade(ctx, alice, trade)
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.Equal(t, alice.ID, saved.Owner)
		assert.Equal(t, domain.StatusCompleted, saved.Status)
		assert.Equal(t, journalNow, saved.CreatedAt)

		stored, err := store.FindTradeByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, stored.Owner)
	})

	t.Run("active without status", func(t *testing.T) {
		trade := active(domain.Short, 2, 50, journalNow)
		trade.Status = ""
		saved, err := svc.AddTrade(ctx, alice, trade)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, saved.Status)
	})

	t.Run("invalid trade", func(t *testing.T) {
		trade := completed(domain.Long, 0, 100, 110, journalNow, journalNow)
		_, err := svc.AddTrade(ctx, alice, trade)
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
		assert.ErrorIs(t, err, domain.ErrInvalidTrade)
	})

	t.Run("inconsistent trade", func(t *testing.T) {
		trade := active(domain.Long, 1, 100, journalNow)
		trade.ExitPrice = price(120)
		_, err := svc.AddTrade(ctx, alice, trade)
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
		assert.ErrorIs(t, err, domain.ErrInconsistentRecord)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.AddTrade(ctx, nil, active(domain.Long, 1, 100, journalNow))
		assert.ErrorIs(t, err, ports.ErrUnauthorized)
	})
}

func TestJournalService_LevelFollowsCompletedTrades(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	bob := store.addUser(t, "bob", false)

	for i := 0; i < 9; i++ {
		_, err := svc.AddTrade(ctx, bob, completed(domain.Long, 1, 100, 101, journalNow.Add(-time.Hour), journalNow))
		require.NoError(t, err)
	}
	// Active trades do not count towards the level.
	_, err := svc.AddTrade(ctx, bob, active(domain.Long, 1, 100, journalNow))
	require.NoError(t, err)

	u, _ := store.FindUserByID(ctx, bob.ID)
	assert.Equal(t, 1, u.Level)

	last, err := svc.AddTrade(ctx, bob, completed(domain.Short, 1, 100, 90, journalNow.Add(-time.Hour), journalNow))
	require.NoError(t, err)
	u, _ = store.FindUserByID(ctx, bob.ID)
	assert.Equal(t, 2, u.Level)

	require.NoError(t, svc.DeleteTrade(ctx, bob, last.ID))
	u, _ = store.FindUserByID(ctx, bob.ID)
	assert.Equal(t, 1, u.Level)

	level, err := svc.RefreshLevel(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
}

func TestJournalService_GetTrade_Access(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)
	mallory := store.addUser(t, "mallory", false)
	admin := store.addUser(t, "root", true)

	trade, err := svc.AddTrade(ctx, alice, active(domain.Long, 1, 100, journalNow))
	require.NoError(t, err)

	got, err := svc.GetTrade(ctx, alice, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.ID, got.ID)

	_, err = svc.GetTrade(ctx, mallory, trade.ID)
	assert.ErrorIs(t, err, ports.ErrPermissionDenied)

	_, err = svc.GetTrade(ctx, admin, trade.ID)
	assert.NoError(t, err)

	_, err = svc.GetTrade(ctx, alice, 12345)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteTrade(ctx, mallory, trade.ID), ports.ErrPermissionDenied)
	assert.NoError(t, svc.DeleteTrade(ctx, admin, trade.ID))
}

func TestJournalService_UpdateTrade_ClosesPosition(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	saved, err := svc.AddTrade(ctx, alice, active(domain.Long, 2, 100, journalNow.Add(-time.Hour)))
	require.NoError(t, err)

	edit := *saved
	edit.Owner = 0
	edit.Close(105, journalNow)
	updated, err := svc.UpdateTrade(ctx, alice, &edit)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.Owner)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	eval, err := svc.EvaluateTrade(ctx, alice, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, eval)
	assert.InDelta(t, 10.0, eval.PNL, 1e-9)
	assert.InDelta(t, 0.05, eval.PercentReturn, 1e-9)

	bad := *updated
	bad.EntryPrice = -1
	_, err = svc.UpdateTrade(ctx, alice, &bad)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestJournalService_EvaluateTrade_Active(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	saved, err := svc.AddTrade(ctx, alice, active(domain.Short, 1, 100, journalNow))
	require.NoError(t, err)

	eval, err := svc.EvaluateTrade(ctx, alice, saved.ID)
	assert.NoError(t, err)
	assert.Nil(t, eval)
}

func TestJournalService_Dashboard_OrdersByCloseTime(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	// Opened first but closed last: the loss lands after the win on the curve.
	loss := completed(domain.Long, 1, 110, 99, journalNow.Add(-10*time.Hour), journalNow.Add(-1*time.Hour))
	win := completed(domain.Long, 1, 100, 110, journalNow.Add(-9*time.Hour), journalNow.Add(-5*time.Hour))
	for _, tr := range []*domain.Trade{loss, win, active(domain.Long, 1, 100, journalNow)} {
		_, err := svc.AddTrade(ctx, alice, tr)
		require.NoError(t, err)
	}

	dash, err := svc.Dashboard(ctx, alice.ID)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, dash.Metrics.TotalPNL, 1e-9)
	assert.Equal(t, 0.5, dash.Metrics.WinRate)
	assert.Equal(t, 3, dash.Metrics.TotalTrades)
	assert.Equal(t, 1, dash.Metrics.ActiveTrades)

	require.Len(t, dash.EquityCurve, 2)
	assert.Equal(t, win.ID, dash.EquityCurve[0].TradeID)
	assert.InDelta(t, 10.0, dash.EquityCurve[0].Cumulative, 1e-9)
	assert.InDelta(t, -1.0, dash.EquityCurve[1].Cumulative, 1e-9)
	assert.InDelta(t, 10.0, dash.EquityCurve[1].Peak, 1e-9)
	assert.InDelta(t, 1.1, dash.MaxDrawdown, 1e-9)
	require.Len(t, dash.Drawdowns, 1)
	assert.False(t, dash.Drawdowns[0].Recovered)

	assert.Equal(t, []float64{1, 0.5}, dash.Breakdown.WinRateTrend)
	assert.Equal(t, 1, dash.Level)
	assert.Equal(t, 8, dash.TradesToNextLevel)
}

func TestJournalService_Dashboard_Empty(t *testing.T) {
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	dash, err := svc.Dashboard(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, dash.EquityCurve)
	assert.NotNil(t, dash.EquityCurve)
	assert.NotNil(t, dash.Drawdowns)
	assert.Zero(t, dash.MaxDrawdown)
	assert.Zero(t, dash.Metrics.TotalPNL)
	assert.Equal(t, 1, dash.Level)
	assert.Equal(t, 10, dash.TradesToNextLevel)
}

func TestJournalService_Summary_SkipsCorruptRecords(t *testing.T) {
	ctx := context.Background()
	svc, store, logger := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	_, err := svc.AddTrade(ctx, alice, completed(domain.Long, 1, 100, 110, journalNow.Add(-time.Hour), journalNow))
	require.NoError(t, err)
	// A record written behind the service's back with an unknown direction.
	corrupt := completed("sideways", 1, 100, 90, journalNow.Add(-time.Hour), journalNow)
	corrupt.Owner = alice.ID
	_, err = store.CreateTrade(ctx, corrupt)
	require.NoError(t, err)

	metrics, err := svc.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Skipped)
	assert.Equal(t, 1, metrics.CompletedTrades)
	assert.InDelta(t, 10.0, metrics.TotalPNL, 1e-9)
	assert.Contains(t, logger.warnMsgs, "Skipped invalid trade records")
}

func TestJournalService_Summary_RepositoryError(t *testing.T) {
	svc, store, _ := newTestJournal(t)
	store.findErr = errBoom

	_, err := svc.Summary(context.Background(), 1)
	assert.ErrorIs(t, err, errBoom)
}

func TestJournalService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)
	bob := store.addUser(t, "bob", false)
	carol := store.addUser(t, "carol", false)

	open, closed := journalNow.Add(-time.Hour), journalNow
	add := func(u *domain.User, tr *domain.Trade) {
		_, err := svc.AddTrade(ctx, u, tr)
		require.NoError(t, err)
	}
	add(alice, completed(domain.Long, 1, 100, 110, open, closed))
	add(alice, completed(domain.Long, 1, 100, 90, open, closed))
	add(bob, completed(domain.Short, 1, 100, 90, open, closed))
	add(bob, completed(domain.Long, 1, 100, 120, open, closed))
	add(carol, active(domain.Long, 1, 100, open))

	rows, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, 1.0, rows[0].WinRate)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "alice", rows[1].Username)
	assert.Equal(t, 0.5, rows[1].WinRate)

	top, err := svc.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, bob.ID, top[0].Owner)
}

func TestJournalService_ImportTrades(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	rows := []*domain.Trade{
		completed(domain.Long, 1, 100, 110, journalNow.Add(-time.Hour), journalNow),
		completed(domain.Long, -1, 100, 110, journalNow.Add(-time.Hour), journalNow),
		active(domain.Short, 1, 50, journalNow),
	}
	rows[2].Status = ""

	n, err := svc.ImportTrades(ctx, alice, rows)
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.ErrorIs(t, err, domain.ErrInvalidTrade)

	trades, err := svc.ListTrades(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestJournalService_NonFiniteTrades(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)

	rows := []*domain.Trade{
		completed(domain.Long, 1, math.NaN(), 110, journalNow.Add(-time.Hour), journalNow),
		completed(domain.Short, 1, 100, math.Inf(1), journalNow.Add(-time.Hour), journalNow),
	}
	n, err := svc.ImportTrades(ctx, alice, rows)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, domain.ErrInvalidTrade)

	// Rows written before validation existed must not break the analytics views.
	for _, tr := range []*domain.Trade{
		completed(domain.Long, 1, 100, 110, journalNow.Add(-2*time.Hour), journalNow.Add(-time.Hour)),
		completed(domain.Long, math.Inf(1), 100, 110, journalNow.Add(-time.Hour), journalNow),
		completed(domain.Short, 1, 100, math.NaN(), journalNow.Add(-time.Hour), journalNow),
	} {
		tr.Owner = alice.ID
		_, err := store.CreateTrade(ctx, tr)
		require.NoError(t, err)
	}

	var metrics *analytics.PortfolioMetrics
	require.NotPanics(t, func() { metrics, err = svc.Summary(ctx, alice.ID) })
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.CompletedTrades)
	assert.Equal(t, 2, metrics.Skipped)
	assert.Equal(t, 10.0, metrics.TotalPNL)

	var dashboard *Dashboard
	require.NotPanics(t, func() { dashboard, err = svc.Dashboard(ctx, alice.ID) })
	require.NoError(t, err)
	require.Len(t, dashboard.EquityCurve, 1)
}

func TestJournalService_AdminViews(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)
	admin := store.addUser(t, "root", true)

	_, err := svc.AddTrade(ctx, alice, completed(domain.Long, 1, 100, 110, journalNow.Add(-time.Hour), journalNow))
	require.NoError(t, err)
	_, err = svc.AddTrade(ctx, admin, completed(domain.Short, 2, 100, 104, journalNow.Add(-time.Hour), journalNow))
	require.NoError(t, err)
	_, err = svc.AddTrade(ctx, alice, active(domain.Long, 1, 100, journalNow))
	require.NoError(t, err)

	_, err = svc.ListAllTrades(ctx, alice)
	assert.ErrorIs(t, err, ports.ErrPermissionDenied)
	all, err := svc.ListAllTrades(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.SystemStats(ctx, alice)
	assert.ErrorIs(t, err, ports.ErrPermissionDenied)
	stats, err := svc.SystemStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.CompletedTrades)
	assert.InDelta(t, 2.0, stats.TotalPNL, 1e-9) // +10 and -8
}

func TestJournalService_RecalculateUserLevel(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestJournal(t)
	alice := store.addUser(t, "alice", false)
	admin := store.addUser(t, "root", true)

	for i := 0; i < 12; i++ {
		open := journalNow.Add(-time.Duration(i+1) * time.Hour)
		_, err := store.CreateTrade(ctx, &domain.Trade{
			Owner: alice.ID, OpenTime: open, CloseTime: at(open.Add(time.Minute)), Pair: "BTC/USDT",
			Quantity: 1, EntryPrice: 100, ExitPrice: price(101), Direction: domain.Long, Status: domain.StatusCompleted,
		})
		require.NoError(t, err)
	}

	_, err := svc.RecalculateUserLevel(ctx, alice, alice.ID)
	assert.ErrorIs(t, err, ports.ErrPermissionDenied)

	_, err = svc.RecalculateUserLevel(ctx, admin, 999)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	user, err := svc.RecalculateUserLevel(ctx, admin, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Level)

	stored, err := store.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Level)
}
