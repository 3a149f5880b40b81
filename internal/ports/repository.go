package ports

import (
	"context"
	"time"

	"cryptoJournal/internal/domain"
)

// TraderTradeCounts is the per-trader input to leaderboard ranking.
type TraderTradeCounts struct {
	Owner         int64
	Username      string
	Level         int
	TotalTrades   int // Completed trades only
	WinningTrades int // Completed trades whose price moved in the trade's favour
}

// TradeRepository defines the interface for storing and retrieving journal trades.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// UpdateTrade modifies an existing trade. Returns ErrNotFound if the ID does not exist.
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	// DeleteTrade removes a trade by ID. Returns ErrNotFound if the ID does not exist.
	DeleteTrade(ctx context.Context, id int64) error
	// FindTradeByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindByOwner retrieves all trades of a user ordered by open time, then ID.
	FindByOwner(ctx context.Context, owner int64) ([]*domain.Trade, error)
	// FindAllTrades retrieves every trade ordered by open time descending.
	FindAllTrades(ctx context.Context) ([]*domain.Trade, error)
	// CountCompletedByOwner counts the completed trades of a user.
	CountCompletedByOwner(ctx context.Context, owner int64) (int, error)
	// LeaderboardEntries returns completed/winning trade counts for every trader with at least one completed trade.
	LeaderboardEntries(ctx context.Context) ([]TraderTradeCounts, error)
}

// UserRepository defines the interface for storing and retrieving users.
type UserRepository interface {
	// CreateUser saves a new user and returns its assigned ID.
	// Returns ErrDuplicateEntry if the username is taken.
	CreateUser(ctx context.Context, user *domain.User) (int64, error)
	// FindUserByID retrieves a user by ID. Returns nil, nil if not found.
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	// FindUserByUsername retrieves a user by username. Returns nil, nil if not found.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// ListUsers retrieves all users ordered by ID.
	ListUsers(ctx context.Context) ([]*domain.User, error)
	// UpdateProfile updates email, bio and risk tolerance.
	UpdateProfile(ctx context.Context, user *domain.User) error
	// UpdateLevel stores the cached level of a user.
	UpdateLevel(ctx context.Context, id int64, level int) error
	// UpdateExpiry changes the account expiry date of a user.
	UpdateExpiry(ctx context.Context, id int64, expiry time.Time) error
	// DeleteUser removes a user together with their trades.
	DeleteUser(ctx context.Context, id int64) error
}

// CatalogRepository stores the admin-managed pick lists.
type CatalogRepository interface {
	ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error)
	// CreateTradingPair returns ErrDuplicateEntry if the pair exists.
	CreateTradingPair(ctx context.Context, pair string) (*domain.TradingPair, error)
	DeleteTradingPair(ctx context.Context, id int64) error
	ListStrategyTypes(ctx context.Context) ([]domain.StrategyType, error)
	// CreateStrategyType returns ErrDuplicateEntry if the name exists.
	CreateStrategyType(ctx context.Context, name string) (*domain.StrategyType, error)
	DeleteStrategyType(ctx context.Context, id int64) error
}

// RegistrationCodeRepository stores daily registration codes.
type RegistrationCodeRepository interface {
	// SaveRegistrationCode stores a code for the given day.
	SaveRegistrationCode(ctx context.Context, code *domain.RegistrationCode) error
	// LatestRegistrationCode returns the most recent code for the day, or nil, nil.
	LatestRegistrationCode(ctx context.Context, day time.Time) (*domain.RegistrationCode, error)
}

// Store bundles every repository a storage backend provides.
type Store interface {
	TradeRepository
	UserRepository
	CatalogRepository
	RegistrationCodeRepository
	Close() error
}

// Snapshotter is implemented by stores able to write a consistent copy of themselves to a file.
type Snapshotter interface {
	BackupTo(ctx context.Context, path string) error
}
