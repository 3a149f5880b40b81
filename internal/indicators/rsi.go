package indicators

import (
	"context"
	"cryptoJournal/internal/domain"
	"fmt"
)

// RSI zones reported by Zone.
const (
	ZoneOverbought = "overbought"
	ZoneOversold   = "oversold"
	ZoneNeutral    = "neutral"
)

// RSIConfig holds configuration for the RSI indicator
type RSIConfig struct {
	IndicatorConfig
	Overbought float64 // Defaults to 70
	Oversold   float64 // Defaults to 30
}

// RSI implements the Relative Strength Index indicator
type RSI struct {
	BaseIndicator
	config RSIConfig
}

// NewRSI creates a new RSI indicator instance
func NewRSI(config RSIConfig) *RSI {
	if config.Overbought == 0 {
		config.Overbought = 70
	}
	if config.Oversold == 0 {
		config.Oversold = 30
	}
	return &RSI{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (r *RSI) Name() string {
	return fmt.Sprintf("RSI%d", r.Config.Period)
}

// RequiredDataPoints is one more than the period: RSI works on price changes.
func (r *RSI) RequiredDataPoints() int {
	return r.Config.Period + 1
}

// Calculate computes the RSI value using Wilder's smoothing method
func (r *RSI) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	period := r.Config.Period
	if period <= 0 {
		return 0, fmt.Errorf("RSI period must be positive, got %d", period)
	}
	if len(klines) <= period {
		return 0, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(klines), period)
	}

	changes := make([]float64, 0, len(klines)-1)
	for i := 1; i < len(klines); i++ {
		changes = append(changes, klines[i].Close-klines[i-1].Close)
	}

	var avgGain, avgLoss float64
	for _, c := range changes[:period] {
		if c > 0 {
			avgGain += c
		} else {
			avgLoss -= c
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder's smoothing over the remaining changes
	weight := float64(period - 1)
	for _, c := range changes[period:] {
		gain, loss := 0.0, 0.0
		if c > 0 {
			gain = c
		} else {
			loss = -c
		}
		avgGain = (avgGain*weight + gain) / float64(period)
		avgLoss = (avgLoss*weight + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rsi := 100 - (100 / (1 + avgGain/avgLoss))
	switch {
	case rsi > 100:
		rsi = 100
	case rsi < 0:
		rsi = 0
	}
	return rsi, nil
}

// Zone classifies an RSI value against the configured thresholds.
func (r *RSI) Zone(value float64) string {
	switch {
	case value >= r.config.Overbought:
		return ZoneOverbought
	case value <= r.config.Oversold:
		return ZoneOversold
	default:
		return ZoneNeutral
	}
}
