package analytics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cryptoJournal/internal/domain"
)

// EquityPoint represents a point on the cumulative P&L curve, one per completed trade.
type EquityPoint struct {
	TradeID    int64     `json:"tradeId"`
	Time       time.Time `json:"time"`       // Close time of the trade
	PNL        float64   `json:"pnl"`        // Signed P&L of this trade
	Cumulative float64   `json:"cumulative"` // Running sum of P&L up to and including this trade
	Peak       float64   `json:"peak"`       // Running maximum of Cumulative
	Drawdown   float64   `json:"drawdown"`   // (Peak - Cumulative) / Peak, 0 when Peak <= 0
}

// Drawdown represents a drawdown period on the equity curve
type Drawdown struct {
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	PeakValue   float64       `json:"peakValue"`
	TroughValue float64       `json:"troughValue"`
	Depth       float64       `json:"depth"`
	Duration    time.Duration `json:"duration"`
	Recovered   bool          `json:"recovered"`
}

// EquityCurve builds the cumulative P&L series over completed trades in input order.
// Active trades are skipped; invalid records are skipped and reported as in Aggregate.
func (e *Evaluator) EquityCurve(trades []*domain.Trade) ([]EquityPoint, error) {
	curve := make([]EquityPoint, 0, len(trades))
	var errs []error

	var cumulative, peak decimal.Decimal
	for _, t := range trades {
		d, err := evaluate(t)
		if err != nil {
			errs = append(errs, &RecordError{TradeID: tradeID(t), Err: err})
			continue
		}
		if d == nil {
			continue
		}

		cumulative = cumulative.Add(d.pnl)
		if len(curve) == 0 || cumulative.GreaterThan(peak) {
			peak = cumulative
		}

		curve = append(curve, EquityPoint{
			TradeID:    t.ID,
			Time:       *t.CloseTime,
			PNL:        d.pnl.InexactFloat64(),
			Cumulative: cumulative.InexactFloat64(),
			Peak:       peak.InexactFloat64(),
			Drawdown:   drawdownAt(peak, cumulative),
		})
	}

	return curve, errors.Join(errs...)
}

// MaxDrawdown returns the largest drawdown fraction over the completed trades in input order.
func (e *Evaluator) MaxDrawdown(trades []*domain.Trade) (float64, error) {
	curve, err := e.EquityCurve(trades)
	return MaxDrawdownOf(curve), err
}

// MaxDrawdownOf returns the largest drawdown fraction of an equity curve; 0 for an empty curve.
func MaxDrawdownOf(curve []EquityPoint) float64 {
	var maxDD float64
	for _, p := range curve {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// Drawdowns splits an equity curve into drawdown periods. A period opens at the first point below
// a positive peak and closes when the cumulative P&L makes a new high.
func Drawdowns(curve []EquityPoint) []Drawdown {
	drawdowns := make([]Drawdown, 0)
	var current *Drawdown
	var peakTime time.Time

	for i, p := range curve {
		if i == 0 || p.Cumulative >= p.Peak {
			if current != nil && p.Cumulative >= current.PeakValue {
				current.EndTime = p.Time
				current.Duration = current.EndTime.Sub(current.StartTime)
				current.Recovered = true
				drawdowns = append(drawdowns, *current)
				current = nil
			}
			peakTime = p.Time
			continue
		}
		if p.Drawdown <= 0 {
			continue
		}

		if current == nil {
			current = &Drawdown{
				StartTime:   peakTime,
				PeakValue:   p.Peak,
				TroughValue: p.Cumulative,
				Depth:       p.Drawdown,
			}
		} else if p.Drawdown > current.Depth {
			current.Depth = p.Drawdown
			current.TroughValue = p.Cumulative
		}
	}

	// Close any open drawdown
	if current != nil {
		current.EndTime = curve[len(curve)-1].Time
		current.Duration = current.EndTime.Sub(current.StartTime)
		drawdowns = append(drawdowns, *current)
	}
	return drawdowns
}

// drawdownAt is (peak - cumulative) / peak, defined as 0 when the peak is not positive.
func drawdownAt(peak, cumulative decimal.Decimal) float64 {
	if !peak.IsPositive() {
		return 0
	}
	return peak.Sub(cumulative).Div(peak).InexactFloat64()
}
