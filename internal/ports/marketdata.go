package ports

import (
	"context"
	"time"

	"cryptoJournal/internal/domain"
)

// MarketDataClient defines the read-only market data the journal displays next to a trader's analytics.
type MarketDataClient interface {
	// GetTickerPrice retrieves the last traded price for a given symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetKlines retrieves historical klines/candlestick data for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// Ping checks the connectivity to the market data API.
	Ping(ctx context.Context) error
}

// NewsClient fetches recent crypto headlines.
type NewsClient interface {
	LatestNews(ctx context.Context, query string, limit int) ([]domain.NewsArticle, error)
}

// SessionStore keeps bearer-token sessions.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Get returns nil, nil when the token is unknown or expired.
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	// DeleteByUserID drops every session of a user (used on account deletion).
	DeleteByUserID(ctx context.Context, userID int64) error
}

// Clock abstracts time for services and schedulers.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
