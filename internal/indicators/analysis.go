package indicators

import (
	"context"
	"cryptoJournal/internal/domain"
	"fmt"
)

// Trend labels reported by Analyze.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Analysis is the technical snapshot shown next to a market price.
// Values are nil when there are not enough klines to compute them.
type Analysis struct {
	Symbol    string          `json:"symbol"`
	Interval  string          `json:"interval"`
	LastClose float64         `json:"lastClose"`
	SMA20     *float64        `json:"sma20,omitempty"`
	SMA50     *float64        `json:"sma50,omitempty"`
	EMA20     *float64        `json:"ema20,omitempty"`
	RSI14     *float64        `json:"rsi14,omitempty"`
	RSIZone   string          `json:"rsiZone,omitempty"`
	ATR14     *float64        `json:"atr14,omitempty"`
	Bollinger *BollingerBands `json:"bollinger,omitempty"`
	MACD      *MACDValue      `json:"macd,omitempty"`
	Trend     string          `json:"trend"`
}

// Analyze runs the standard indicator set over klines ordered oldest first.
func Analyze(ctx context.Context, klines []*domain.Kline) (*Analysis, error) {
	if len(klines) == 0 {
		return nil, fmt.Errorf("no klines to analyze")
	}
	last := klines[len(klines)-1]
	a := &Analysis{
		Symbol:    last.Symbol,
		Interval:  last.Interval,
		LastClose: last.Close,
		Trend:     TrendNeutral,
	}

	value := func(ind Indicator) *float64 {
		if len(klines) < ind.RequiredDataPoints() {
			return nil
		}
		v, err := ind.Calculate(ctx, klines)
		if err != nil {
			return nil
		}
		return &v
	}

	a.SMA20 = value(NewMovingAverage(MovingAverageConfig{IndicatorConfig: IndicatorConfig{Period: 20}, Type: SimpleMovingAverage}))
	a.SMA50 = value(NewMovingAverage(MovingAverageConfig{IndicatorConfig: IndicatorConfig{Period: 50}, Type: SimpleMovingAverage}))
	a.EMA20 = value(NewMovingAverage(MovingAverageConfig{IndicatorConfig: IndicatorConfig{Period: 20}, Type: ExponentialMovingAverage}))
	a.ATR14 = value(NewATR(IndicatorConfig{Period: 14}))

	rsi := NewRSI(RSIConfig{IndicatorConfig: IndicatorConfig{Period: 14}})
	if a.RSI14 = value(rsi); a.RSI14 != nil {
		a.RSIZone = rsi.Zone(*a.RSI14)
	}

	if bands, err := NewBollinger(BollingerConfig{IndicatorConfig: IndicatorConfig{Period: 20}}).Bands(klines); err == nil {
		a.Bollinger = &bands
	}
	if macd, err := NewMACD(MACDConfig{}).Value(klines); err == nil {
		a.MACD = &macd
	}

	if a.SMA20 != nil && a.SMA50 != nil {
		switch {
		case a.LastClose > *a.SMA20 && *a.SMA20 > *a.SMA50:
			a.Trend = TrendBullish
		case a.LastClose < *a.SMA20 && *a.SMA20 < *a.SMA50:
			a.Trend = TrendBearish
		}
	}
	return a, nil
}
