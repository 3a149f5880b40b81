package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/indicators"
	"cryptoJournal/internal/ports"
)

// MarketConfig controls the market data view.
type MarketConfig struct {
	KlineInterval string
	KlineLimit    int
	NewsPageSize  int
}

// Quote is a price plus technical analysis for one symbol.
type Quote struct {
	Symbol    string               `json:"symbol"`
	Price     float64              `json:"price"`
	Analysis  *indicators.Analysis `json:"analysis,omitempty"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// MarketService serves read-only market data and news next to the journal.
type MarketService struct {
	market ports.MarketDataClient
	news   ports.NewsClient
	clock  ports.Clock
	logger ports.Logger
	cfg    MarketConfig
}

func NewMarketService(market ports.MarketDataClient, news ports.NewsClient, clock ports.Clock, logger ports.Logger, cfg MarketConfig) (*MarketService, error) {
	if market == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for MarketService")
	}
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = "1d"
	}
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = 200
	}
	if cfg.NewsPageSize <= 0 {
		cfg.NewsPageSize = 5
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &MarketService{market: market, news: news, clock: clock, logger: logger, cfg: cfg}, nil
}

// Price returns the last traded price of symbol.
func (s *MarketService) Price(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("%w: symbol must be set", ports.ErrInvalidRequest)
	}
	return s.market.GetTickerPrice(ctx, symbol)
}

// Quote returns the price and, when klines are available, the technical analysis of symbol.
// A kline failure degrades to a price-only quote.
func (s *MarketService) Quote(ctx context.Context, symbol string) (*Quote, error) {
	price, err := s.Price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	quote := &Quote{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Price: price, FetchedAt: s.clock.Now().UTC()}

	klines, err := s.market.GetKlines(ctx, symbol, s.cfg.KlineInterval, s.cfg.KlineLimit)
	if err != nil {
		s.logger.Warn(ctx, "Klines unavailable, returning price only", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return quote, nil
	}
	analysis, err := indicators.Analyze(ctx, klines)
	if err != nil {
		s.logger.Warn(ctx, "Technical analysis failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return quote, nil
	}
	quote.Analysis = analysis
	return quote, nil
}

// News returns the latest crypto headlines. A failing provider yields an empty list.
func (s *MarketService) News(ctx context.Context, query string) ([]domain.NewsArticle, error) {
	if s.news == nil {
		return []domain.NewsArticle{}, nil
	}
	articles, err := s.news.LatestNews(ctx, query, s.cfg.NewsPageSize)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, ports.ErrContextCanceled) {
			return nil, err
		}
		s.logger.Warn(ctx, "News unavailable", map[string]interface{}{"error": err.Error()})
		return []domain.NewsArticle{}, nil
	}
	return articles, nil
}

// Ping checks the market data provider.
func (s *MarketService) Ping(ctx context.Context) error {
	return s.market.Ping(ctx)
}
