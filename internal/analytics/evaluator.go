package analytics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cryptoJournal/internal/domain"
)

// DefaultRiskPercent is the assumed stop distance, as a fraction of the entry price,
// used for the risk side of the risk/reward ratio.
const DefaultRiskPercent = 0.01

// Evaluation holds the derived values of a single completed trade.
type Evaluation struct {
	TradeID       int64   `json:"tradeId"`
	PNL           float64 `json:"pnl"`           // Signed profit/loss in quote currency
	PercentReturn float64 `json:"percentReturn"` // Signed return as a fraction of the entry price
	RiskReward    float64 `json:"riskReward"`    // Reward divided by the assumed risk
}

// RecordError reports a trade that could not be evaluated.
type RecordError struct {
	TradeID int64
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("trade %d: %v", e.TradeID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Evaluator computes per-trade and portfolio analytics. It is immutable and safe for concurrent use.
type Evaluator struct {
	riskPercent decimal.Decimal
}

// NewEvaluator creates an evaluator with the given risk percentage (0 < riskPercent < 1).
func NewEvaluator(riskPercent float64) (*Evaluator, error) {
	if !(riskPercent > 0 && riskPercent < 1) {
		return nil, fmt.Errorf("risk percent must be between 0.0 and 1.0 (exclusive), got %v", riskPercent)
	}
	return &Evaluator{riskPercent: decimal.NewFromFloat(riskPercent)}, nil
}

// RiskPercent returns the configured risk fraction.
func (e *Evaluator) RiskPercent() float64 {
	return e.riskPercent.InexactFloat64()
}

// Evaluate computes signed P&L, percentage return and risk/reward for one trade.
// It returns nil, nil for an active trade.
func (e *Evaluator) Evaluate(t *domain.Trade) (*Evaluation, error) {
	d, err := evaluate(t)
	if err != nil || d == nil {
		return nil, err
	}

	risk := d.entry.Mul(e.riskPercent)
	var rr decimal.Decimal
	if !risk.IsZero() {
		rr = d.move.Abs().Div(risk)
	}

	return &Evaluation{
		TradeID:       t.ID,
		PNL:           d.pnl.InexactFloat64(),
		PercentReturn: d.ret.InexactFloat64(),
		RiskReward:    rr.InexactFloat64(),
	}, nil
}

// decimalEval is the exact intermediate form shared by every computation in this package.
type decimalEval struct {
	entry decimal.Decimal
	move  decimal.Decimal // Favourable price move per unit (positive = profit)
	pnl   decimal.Decimal
	ret   decimal.Decimal
}

// evaluate validates the record and computes its exact P&L.
// Returns nil, nil for an active trade.
func evaluate(t *domain.Trade) (*decimalEval, error) {
	if t == nil {
		return nil, errors.New("nil trade")
	}
	if err := t.CheckConsistency(); err != nil {
		return nil, err
	}
	if !t.IsCompleted() {
		return nil, nil
	}
	if !t.HasFiniteValues() {
		return nil, fmt.Errorf("trade %d has a non-finite price or amount: %w", t.ID, domain.ErrInvalidTrade)
	}

	entry := decimal.NewFromFloat(t.EntryPrice)
	exit := decimal.NewFromFloat(*t.ExitPrice)
	qty := decimal.NewFromFloat(t.Quantity)

	var move decimal.Decimal
	switch t.Direction {
	case domain.Long:
		move = exit.Sub(entry)
	case domain.Short:
		move = entry.Sub(exit)
	default:
		return nil, fmt.Errorf("trade %d has direction %q: %w", t.ID, t.Direction, domain.ErrInvalidDirection)
	}

	d := &decimalEval{entry: entry, move: move, pnl: move.Mul(qty)}
	if !entry.IsZero() {
		d.ret = move.Div(entry)
	}
	return d, nil
}
