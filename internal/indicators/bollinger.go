package indicators

import (
	"context"
	"cryptoJournal/internal/domain"
	"fmt"
	"math"
)

// BollingerConfig configures Bollinger bands.
type BollingerConfig struct {
	IndicatorConfig
	Multiplier float64 // Standard deviations between the middle and outer bands. Defaults to 2
}

// BollingerBands is the band triple at the latest kline.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes bands around the SMA using the population standard deviation of closes.
type Bollinger struct {
	BaseIndicator
	multiplier float64
}

func NewBollinger(config BollingerConfig) *Bollinger {
	if config.Multiplier == 0 {
		config.Multiplier = 2
	}
	return &Bollinger{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		multiplier:    config.Multiplier,
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB%d", b.Config.Period)
}

// Calculate returns the middle band.
func (b *Bollinger) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	bands, err := b.Bands(klines)
	if err != nil {
		return 0, err
	}
	return bands.Middle, nil
}

// Bands computes all three bands over the last period klines.
func (b *Bollinger) Bands(klines []*domain.Kline) (BollingerBands, error) {
	period := b.Config.Period
	if period <= 0 {
		return BollingerBands{}, fmt.Errorf("bollinger period must be positive, got %d", period)
	}
	if len(klines) < period {
		return BollingerBands{}, fmt.Errorf("not enough data (%d) to calculate Bollinger bands for period %d", len(klines), period)
	}

	window := closes(klines[len(klines)-period:])
	mean := 0.0
	for _, c := range window {
		mean += c
	}
	mean /= float64(period)

	variance := 0.0
	for _, c := range window {
		variance += (c - mean) * (c - mean)
	}
	std := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Upper:  mean + b.multiplier*std,
		Middle: mean,
		Lower:  mean - b.multiplier*std,
	}, nil
}
