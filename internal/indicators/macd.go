package indicators

import (
	"context"
	"cryptoJournal/internal/domain"
	"fmt"
)

// MACDConfig configures the MACD periods. Zero values fall back to 12/26/9.
type MACDConfig struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// MACDValue is the MACD triple at the latest kline.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD implements Moving Average Convergence Divergence.
type MACD struct {
	config MACDConfig
}

func NewMACD(config MACDConfig) *MACD {
	if config.FastPeriod == 0 {
		config.FastPeriod = 12
	}
	if config.SlowPeriod == 0 {
		config.SlowPeriod = 26
	}
	if config.SignalPeriod == 0 {
		config.SignalPeriod = 9
	}
	return &MACD{config: config}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.config.FastPeriod, m.config.SlowPeriod, m.config.SignalPeriod)
}

// RequiredDataPoints covers the slow EMA plus the signal EMA over the MACD line.
func (m *MACD) RequiredDataPoints() int {
	return m.config.SlowPeriod + m.config.SignalPeriod - 1
}

// Calculate returns the histogram value.
func (m *MACD) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	v, err := m.Value(klines)
	if err != nil {
		return 0, err
	}
	return v.Histogram, nil
}

// Value computes the MACD line, its signal line and the histogram at the latest kline.
func (m *MACD) Value(klines []*domain.Kline) (MACDValue, error) {
	fast, slow, signal := m.config.FastPeriod, m.config.SlowPeriod, m.config.SignalPeriod
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return MACDValue{}, fmt.Errorf("invalid MACD periods fast=%d slow=%d signal=%d", fast, slow, signal)
	}
	if len(klines) < m.RequiredDataPoints() {
		return MACDValue{}, fmt.Errorf("not enough data (%d) to calculate %s: need %d", len(klines), m.Name(), m.RequiredDataPoints())
	}

	values := closes(klines)
	fastEMA := emaSeries(values, fast)
	slowEMA := emaSeries(values, slow)

	// Align both series on the first index where the slow EMA exists.
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+slow-fast] - slowEMA[i]
	}
	signalLine := emaSeries(line, signal)

	last := MACDValue{
		MACD:   line[len(line)-1],
		Signal: signalLine[len(signalLine)-1],
	}
	last.Histogram = last.MACD - last.Signal
	return last, nil
}
