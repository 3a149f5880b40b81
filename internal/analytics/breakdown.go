package analytics

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptoJournal/internal/domain"
)

// UnassignedStrategy is the group key for trades logged without a strategy tag.
const UnassignedStrategy = "unassigned"

// GroupStat aggregates trades sharing a key (strategy or pair).
type GroupStat struct {
	Key             string  `json:"key"`
	Trades          int     `json:"trades"` // All trades, active included
	CompletedTrades int     `json:"completedTrades"`
	WinningTrades   int     `json:"winningTrades"`
	WinRate         float64 `json:"winRate"`
	TotalPNL        float64 `json:"totalPnl"`
}

// MonthlyPNL represents the realized P&L of one calendar month (by close time).
type MonthlyPNL struct {
	Month time.Time `json:"month"`
	PNL   float64   `json:"pnl"`
}

// Breakdown bundles the grouped views shown next to the portfolio metrics.
type Breakdown struct {
	ByStrategy   []GroupStat  `json:"byStrategy"`
	ByPair       []GroupStat  `json:"byPair"`
	Monthly      []MonthlyPNL `json:"monthly"`
	WinRateTrend []float64    `json:"winRateTrend"` // Cumulative win rate after each completed trade
}

type groupAcc struct {
	stat GroupStat
	pnl  decimal.Decimal
}

// Breakdown groups trades by strategy, by pair and by close month, and computes the cumulative
// win-rate trend in input order. Invalid records are skipped and reported as in Aggregate.
func (e *Evaluator) Breakdown(trades []*domain.Trade) (*Breakdown, error) {
	byStrategy := make(map[string]*groupAcc)
	byPair := make(map[string]*groupAcc)
	monthly := make(map[time.Time]decimal.Decimal)
	result := &Breakdown{WinRateTrend: make([]float64, 0)}

	var errs []error
	var completed, wins int
	for _, t := range trades {
		d, err := evaluate(t)
		if err != nil {
			errs = append(errs, &RecordError{TradeID: tradeID(t), Err: err})
			continue
		}

		strategy := strings.TrimSpace(t.Strategy)
		if strategy == "" {
			strategy = UnassignedStrategy
		}
		groups := []*groupAcc{group(byStrategy, strategy), group(byPair, strings.ToUpper(strings.TrimSpace(t.Pair)))}
		for _, g := range groups {
			g.stat.Trades++
		}
		if d == nil {
			continue
		}

		won := d.pnl.IsPositive()
		completed++
		if won {
			wins++
		}
		result.WinRateTrend = append(result.WinRateTrend, float64(wins)/float64(completed))

		for _, g := range groups {
			g.stat.CompletedTrades++
			if won {
				g.stat.WinningTrades++
			}
			g.pnl = g.pnl.Add(d.pnl)
		}

		closed := t.CloseTime.UTC()
		month := time.Date(closed.Year(), closed.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthly[month] = monthly[month].Add(d.pnl)
	}

	result.ByStrategy = flatten(byStrategy)
	result.ByPair = flatten(byPair)
	result.Monthly = make([]MonthlyPNL, 0, len(monthly))
	for month, pnl := range monthly {
		result.Monthly = append(result.Monthly, MonthlyPNL{Month: month, PNL: pnl.InexactFloat64()})
	}
	sort.Slice(result.Monthly, func(i, j int) bool {
		return result.Monthly[i].Month.Before(result.Monthly[j].Month)
	})

	return result, errors.Join(errs...)
}

func group(groups map[string]*groupAcc, key string) *groupAcc {
	g, ok := groups[key]
	if !ok {
		g = &groupAcc{stat: GroupStat{Key: key}}
		groups[key] = g
	}
	return g
}

// flatten returns the groups ordered by total P&L descending, then key.
func flatten(groups map[string]*groupAcc) []GroupStat {
	stats := make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		s := g.stat
		s.TotalPNL = g.pnl.InexactFloat64()
		if s.CompletedTrades > 0 {
			s.WinRate = float64(s.WinningTrades) / float64(s.CompletedTrades)
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalPNL != stats[j].TotalPNL {
			return stats[i].TotalPNL > stats[j].TotalPNL
		}
		return stats[i].Key < stats[j].Key
	})
	return stats
}
