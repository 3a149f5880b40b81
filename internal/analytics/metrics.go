package analytics

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"cryptoJournal/internal/domain"
)

// PortfolioMetrics holds summary statistics for one trader's trades.
// Only completed trades contribute to sums and ratios.
type PortfolioMetrics struct {
	// Core Metrics
	TotalPNL             float64       `json:"totalPnl"`
	WinRate              float64       `json:"winRate"` // Fraction in [0, 1]
	AveragePNL           float64       `json:"avgPnl"`
	SharpeRatio          float64       `json:"sharpe"` // Per-trade, not annualized
	AverageTradeDuration time.Duration `json:"avgDuration"`

	// Counts
	TotalTrades     int `json:"totalTrades"`
	CompletedTrades int `json:"completedTrades"`
	ActiveTrades    int `json:"activeTrades"`
	WinningTrades   int `json:"winningTrades"`
	LosingTrades    int `json:"losingTrades"`
	Skipped         int `json:"skipped"` // Records rejected as invalid

	// Advanced Metrics
	AverageWin           float64 `json:"avgWin"`
	AverageLoss          float64 `json:"avgLoss"`
	ProfitFactor         float64 `json:"profitFactor"`
	BestTrade            float64 `json:"bestTrade"`
	WorstTrade           float64 `json:"worstTrade"`
	MaxConsecutiveWins   int     `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int     `json:"maxConsecutiveLosses"`
}

// Aggregate computes portfolio metrics over the given trades.
// Records that fail evaluation are skipped; the returned error joins one *RecordError per skipped record
// and the metrics are always non-nil.
func (e *Evaluator) Aggregate(trades []*domain.Trade) (*PortfolioMetrics, error) {
	metrics := &PortfolioMetrics{TotalTrades: len(trades)}

	var (
		total, grossProfit, grossLoss decimal.Decimal
		returns                       []float64
		totalDuration                 decimal.Decimal // Nanoseconds; a time.Duration sum overflows
		consecutiveWins               int
		consecutiveLosses             int
		errs                          []error
	)

	for _, t := range trades {
		d, err := evaluate(t)
		if err != nil {
			metrics.Skipped++
			errs = append(errs, &RecordError{TradeID: tradeID(t), Err: err})
			continue
		}
		if d == nil {
			metrics.ActiveTrades++
			continue
		}

		metrics.CompletedTrades++
		total = total.Add(d.pnl)
		returns = append(returns, d.ret.InexactFloat64())
		totalDuration = totalDuration.Add(decimal.NewFromInt(int64(t.CloseTime.Sub(t.OpenTime))))

		pnl := d.pnl.InexactFloat64()
		if metrics.CompletedTrades == 1 || pnl > metrics.BestTrade {
			metrics.BestTrade = pnl
		}
		if metrics.CompletedTrades == 1 || pnl < metrics.WorstTrade {
			metrics.WorstTrade = pnl
		}

		switch d.pnl.Sign() {
		case 1:
			metrics.WinningTrades++
			grossProfit = grossProfit.Add(d.pnl)
			consecutiveWins++
			consecutiveLosses = 0
		case -1:
			metrics.LosingTrades++
			grossLoss = grossLoss.Add(d.pnl)
			consecutiveLosses++
			consecutiveWins = 0
		default:
			consecutiveWins = 0
			consecutiveLosses = 0
		}
		if consecutiveWins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = consecutiveLosses
		}
	}

	metrics.TotalPNL = total.InexactFloat64()
	if metrics.CompletedTrades > 0 {
		n := decimal.NewFromInt(int64(metrics.CompletedTrades))
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.CompletedTrades)
		metrics.AveragePNL = total.Div(n).InexactFloat64()
		metrics.AverageTradeDuration = time.Duration(totalDuration.Div(n).IntPart())
		metrics.SharpeRatio = sharpeRatio(returns)
	}
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(metrics.WinningTrades))).InexactFloat64()
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(metrics.LosingTrades))).InexactFloat64()
		metrics.ProfitFactor = grossProfit.Div(grossLoss.Abs()).InexactFloat64()
	}

	return metrics, errors.Join(errs...)
}

// sharpeRatio returns mean/stddev of the per-trade returns using the population standard deviation.
// Zero variance (including a single return) yields 0.
func sharpeRatio(returns []float64) float64 {
	if len(returns) == 0 || allEqual(returns) {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}
	std := math.Sqrt(sumSq / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func tradeID(t *domain.Trade) int64 {
	if t == nil {
		return 0
	}
	return t.ID
}
