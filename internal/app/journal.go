package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// JournalService orchestrates trade bookkeeping and the analytics derived from it.
// Every analytics call re-reads the trader's full record set; nothing is cached.
type JournalService struct {
	trades          ports.TradeRepository
	users           ports.UserRepository
	evaluator       *analytics.Evaluator
	clock           ports.Clock
	logger          ports.Logger
	leaderboardSize int
}

// Dashboard is the full analytics view of one trader.
type Dashboard struct {
	Metrics           *analytics.PortfolioMetrics `json:"metrics"`
	EquityCurve       []analytics.EquityPoint     `json:"equityCurve"`
	MaxDrawdown       float64                     `json:"maxDrawdown"`
	Drawdowns         []analytics.Drawdown        `json:"drawdowns"`
	Breakdown         *analytics.Breakdown        `json:"breakdown"`
	Level             int                         `json:"level"`
	TradesToNextLevel int                         `json:"tradesToNextLevel"`
}

// SystemStats summarises the whole journal for administrators.
type SystemStats struct {
	TotalUsers      int     `json:"totalUsers"`
	TotalTrades     int     `json:"totalTrades"`
	CompletedTrades int     `json:"completedTrades"`
	TotalPNL        float64 `json:"totalPnl"`
	Skipped         int     `json:"skipped"`
}

// NewJournalService creates a new journal service instance.
func NewJournalService(
	trades ports.TradeRepository,
	users ports.UserRepository,
	evaluator *analytics.Evaluator,
	clock ports.Clock,
	logger ports.Logger,
	leaderboardSize int,
) (*JournalService, error) {
	if trades == nil || users == nil || evaluator == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if leaderboardSize <= 0 {
		return nil, fmt.Errorf("leaderboard size must be positive, got %d", leaderboardSize)
	}
	return &JournalService{
		trades:          trades,
		users:           users,
		evaluator:       evaluator,
		clock:           clock,
		logger:          logger,
		leaderboardSize: leaderboardSize,
	}, nil
}

// Evaluator exposes the shared evaluator (used by the report commands).
func (s *JournalService) Evaluator() *analytics.Evaluator {
	return s.evaluator
}

// AddTrade validates and stores a new trade for the actor, then refreshes the actor's level.
// A missing status is derived from the presence of exit data.
func (s *JournalService) AddTrade(ctx context.Context, actor *domain.User, trade *domain.Trade) (*domain.Trade, error) {
	if actor == nil {
		return nil, ports.ErrUnauthorized
	}
	trade.ID = 0
	trade.Owner = actor.ID
	if trade.Status == "" {
		trade.NormalizeStatus()
	}
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}

	now := s.clock.Now().UTC()
	trade.CreatedAt = now
	trade.UpdatedAt = now
	if _, err := s.trades.CreateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to save trade", map[string]interface{}{"userID": actor.ID, "pair": trade.Pair})
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}
	s.logger.Info(ctx, "Trade added", map[string]interface{}{
		"tradeID": trade.ID, "userID": actor.ID, "pair": trade.Pair, "status": trade.Status,
	})

	if _, err := s.RefreshLevel(ctx, actor.ID); err != nil {
		return trade, err
	}
	return trade, nil
}

// UpdateTrade replaces the editable fields of an existing trade owned by the actor.
func (s *JournalService) UpdateTrade(ctx context.Context, actor *domain.User, trade *domain.Trade) (*domain.Trade, error) {
	existing, err := s.GetTrade(ctx, actor, trade.ID)
	if err != nil {
		return nil, err
	}

	trade.Owner = existing.Owner
	trade.CreatedAt = existing.CreatedAt
	if trade.Status == "" {
		trade.NormalizeStatus()
	}
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	trade.UpdatedAt = s.clock.Now().UTC()

	if err := s.trades.UpdateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to update trade", map[string]interface{}{"tradeID": trade.ID})
		return nil, fmt.Errorf("failed to update trade %d: %w", trade.ID, err)
	}
	s.logger.Info(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID, "status": trade.Status})

	if _, err := s.RefreshLevel(ctx, existing.Owner); err != nil {
		return trade, err
	}
	return trade, nil
}

// DeleteTrade removes a trade owned by the actor (admins may delete any trade).
func (s *JournalService) DeleteTrade(ctx context.Context, actor *domain.User, id int64) error {
	existing, err := s.GetTrade(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.trades.DeleteTrade(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{"tradeID": id, "userID": existing.Owner, "by": actor.ID})

	_, err = s.RefreshLevel(ctx, existing.Owner)
	return err
}

// GetTrade returns a trade visible to the actor.
func (s *JournalService) GetTrade(ctx context.Context, actor *domain.User, id int64) (*domain.Trade, error) {
	if actor == nil {
		return nil, ports.ErrUnauthorized
	}
	trade, err := s.trades.FindTradeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade %d: %w", id, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("trade %d: %w", id, ports.ErrNotFound)
	}
	if trade.Owner != actor.ID && !actor.IsAdmin {
		return nil, fmt.Errorf("trade %d belongs to another user: %w", id, ports.ErrPermissionDenied)
	}
	return trade, nil
}

// ListTrades returns the trades of a user ordered by open time.
func (s *JournalService) ListTrades(ctx context.Context, owner int64) ([]*domain.Trade, error) {
	trades, err := s.trades.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for user %d: %w", owner, err)
	}
	return trades, nil
}

// ListAllTrades returns every trade in the journal, newest first. Admin only.
func (s *JournalService) ListAllTrades(ctx context.Context, actor *domain.User) ([]*domain.Trade, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	trades, err := s.trades.FindAllTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

// ImportTrades stores a batch of trades for owner. Invalid rows are skipped and reported in the joined error;
// the level is refreshed once at the end.
func (s *JournalService) ImportTrades(ctx context.Context, owner *domain.User, trades []*domain.Trade) (int, error) {
	if owner == nil {
		return 0, ports.ErrUnauthorized
	}
	var errs []error
	imported := 0
	now := s.clock.Now().UTC()
	for i, t := range trades {
		t.ID = 0
		t.Owner = owner.ID
		if t.Status == "" {
			t.NormalizeStatus()
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		t.CreatedAt, t.UpdatedAt = now, now
		if _, err := s.trades.CreateTrade(ctx, t); err != nil {
			return imported, fmt.Errorf("failed to save imported trade (row %d): %w", i+1, err)
		}
		imported++
	}
	if imported > 0 {
		if _, err := s.RefreshLevel(ctx, owner.ID); err != nil {
			return imported, err
		}
	}
	s.logger.Info(ctx, "Trades imported", map[string]interface{}{"userID": owner.ID, "imported": imported, "rejected": len(errs)})
	return imported, errors.Join(errs...)
}

// EvaluateTrade returns the evaluation of a trade visible to the actor; nil for an active trade.
func (s *JournalService) EvaluateTrade(ctx context.Context, actor *domain.User, id int64) (*analytics.Evaluation, error) {
	trade, err := s.GetTrade(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	eval, err := s.evaluator.Evaluate(trade)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	return eval, nil
}

// Summary computes the portfolio metrics of a user. Invalid stored records are skipped and logged.
func (s *JournalService) Summary(ctx context.Context, owner int64) (*analytics.PortfolioMetrics, error) {
	trades, err := s.ListTrades(ctx, owner)
	if err != nil {
		return nil, err
	}
	metrics, err := s.evaluator.Aggregate(trades)
	s.logSkipped(ctx, owner, err)
	return metrics, nil
}

// Dashboard computes the full analytics view of a user. The equity curve and breakdown trend
// follow close time order regardless of storage order.
func (s *JournalService) Dashboard(ctx context.Context, owner int64) (*Dashboard, error) {
	trades, err := s.ListTrades(ctx, owner)
	if err != nil {
		return nil, err
	}

	metrics, aggErr := s.evaluator.Aggregate(trades)
	s.logSkipped(ctx, owner, aggErr)

	ordered := sortByCloseTime(trades)
	// Record errors were already reported by Aggregate.
	curve, _ := s.evaluator.EquityCurve(ordered)
	breakdown, _ := s.evaluator.Breakdown(ordered)
	if curve == nil {
		curve = []analytics.EquityPoint{}
	}
	drawdowns := analytics.Drawdowns(curve)
	if drawdowns == nil {
		drawdowns = []analytics.Drawdown{}
	}

	return &Dashboard{
		Metrics:           metrics,
		EquityCurve:       curve,
		MaxDrawdown:       analytics.MaxDrawdownOf(curve),
		Drawdowns:         drawdowns,
		Breakdown:         breakdown,
		Level:             analytics.ComputeLevel(metrics.CompletedTrades),
		TradesToNextLevel: analytics.TradesToNextLevel(metrics.CompletedTrades),
	}, nil
}

// Leaderboard ranks traders by win rate. limit <= 0 uses the configured leaderboard size.
func (s *JournalService) Leaderboard(ctx context.Context, limit int) ([]analytics.LeaderboardRow, error) {
	if limit <= 0 {
		limit = s.leaderboardSize
	}
	counts, err := s.trades.LeaderboardEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard counts: %w", err)
	}
	entries := make([]analytics.LeaderboardEntry, len(counts))
	for i, c := range counts {
		entries[i] = analytics.LeaderboardEntry{
			Owner:         c.Owner,
			Username:      c.Username,
			Level:         c.Level,
			TotalTrades:   c.TotalTrades,
			WinningTrades: c.WinningTrades,
		}
	}
	return analytics.RankTraders(entries, limit), nil
}

// RefreshLevel recomputes and stores the cached level of a user from their completed trades.
func (s *JournalService) RefreshLevel(ctx context.Context, owner int64) (int, error) {
	completed, err := s.trades.CountCompletedByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed trades for user %d: %w", owner, err)
	}
	level := analytics.ComputeLevel(completed)
	if err := s.users.UpdateLevel(ctx, owner, level); err != nil {
		return 0, fmt.Errorf("failed to store level for user %d: %w", owner, err)
	}
	s.logger.Debug(ctx, "Level refreshed", map[string]interface{}{"userID": owner, "completed": completed, "level": level})
	return level, nil
}

// RecalculateUserLevel refreshes the cached level of another user and returns the updated account. Admin only.
func (s *JournalService) RecalculateUserLevel(ctx context.Context, actor *domain.User, userID int64) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ports.ErrNotFound)
	}
	level, err := s.RefreshLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Level = level
	s.logger.Info(ctx, "User level recalculated", map[string]interface{}{"userID": userID, "level": level, "by": actor.ID})
	return user, nil
}

// SystemStats aggregates user and trade totals across the journal. Admin only.
func (s *JournalService) SystemStats(ctx context.Context, actor *domain.User) (*SystemStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	trades, err := s.trades.FindAllTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	stats := &SystemStats{TotalUsers: len(users), TotalTrades: len(trades)}
	total := decimal.Zero
	for _, t := range trades {
		eval, err := s.evaluator.Evaluate(t)
		if err != nil {
			stats.Skipped++
			continue
		}
		if eval == nil {
			continue
		}
		if math.IsInf(eval.PNL, 0) {
			stats.Skipped++
			continue
		}
		stats.CompletedTrades++
		total = total.Add(decimal.NewFromFloat(eval.PNL))
	}
	stats.TotalPNL = total.InexactFloat64()
	return stats, nil
}

func (s *JournalService) logSkipped(ctx context.Context, owner int64, err error) {
	if err == nil {
		return
	}
	s.logger.Warn(ctx, "Skipped invalid trade records", map[string]interface{}{"userID": owner, "error": err.Error()})
}

// sortByCloseTime returns a copy ordered by close time, then ID. Active trades go last.
func sortByCloseTime(trades []*domain.Trade) []*domain.Trade {
	ordered := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t != nil {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].CloseTime, ordered[j].CloseTime
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return ports.ErrUnauthorized
	}
	if !actor.IsAdmin {
		return fmt.Errorf("admin privileges required: %w", ports.ErrPermissionDenied)
	}
	return nil
}
