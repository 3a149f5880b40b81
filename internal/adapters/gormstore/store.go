// Package gormstore implements ports.Store on PostgreSQL through gorm, for deployments
// that outgrow the embedded SQLite database.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

const dayLayout = "2006-01-02"

// Store implements ports.Store with gorm.
type Store struct {
	db     *gorm.DB
	logger ports.Logger
}

var _ ports.Store = (*Store)(nil)

// Config holds configuration for the gorm store.
type Config struct {
	DSN          string
	GormLogLevel int               // gorm logger level, 1 (silent) to 4 (info)
	LogWriter    gormlogger.Writer // e.g. a *logrus.Logger; nil uses gorm's default writer
	Logger       ports.Logger
}

// NewStore connects to PostgreSQL, tunes the pool and migrates the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for gorm store")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required for gorm store: %w", ports.ErrConfigurationError)
	}

	gormCfg := &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	if cfg.LogWriter != nil {
		gormCfg.Logger = gormlogger.New(cfg.LogWriter, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.LogLevel(cfg.GormLogLevel),
			IgnoreRecordNotFoundError: true,
		})
	} else {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.LogLevel(cfg.GormLogLevel))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	if err != nil {
		cfg.Logger.Error(context.Background(), err, "Failed to connect to database")
		return nil, fmt.Errorf("%w: %v", ports.ErrDBConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&User{}, &Trade{}, &TradingPair{}, &StrategyType{}, &RegistrationCode{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	cfg.Logger.Info(context.Background(), "Database connection initialized", map[string]interface{}{"driver": "postgres"})

	return newStore(db, cfg.Logger), nil
}

func newStore(db *gorm.DB, logger ports.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Info(context.Background(), "Closing database connection")
	return sqlDB.Close()
}

// translate maps gorm errors onto the ports taxonomy.
func translate(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, ports.ErrDuplicateEntry)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", msg, ports.ErrNotFound)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ports.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func expectRow(result *gorm.DB, entity string, id int64) error {
	if result.Error != nil {
		return translate(result.Error, "failed to modify %s ID %d", entity, id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s ID %d not found: %w", entity, id, ports.ErrNotFound)
	}
	return nil
}

// --- TradeRepository Implementation ---

// CreateTrade saves a new trade record and returns its assigned ID.
func (s *Store) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	m := toTradeModel(trade)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, translate(err, "failed to insert trade for pair %s", trade.Pair)
	}
	trade.ID = m.ID
	trade.CreatedAt = m.CreatedAt
	trade.UpdatedAt = m.UpdatedAt
	s.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": m.ID, "userID": trade.Owner})
	return m.ID, nil
}

// UpdateTrade modifies an existing trade based on its ID. The owner is never changed.
func (s *Store) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	m := toTradeModel(trade)
	trade.UpdatedAt = time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Trade{}).Where("id = ?", trade.ID).Updates(map[string]interface{}{
		"date":             m.Date,
		"end_date":         m.EndDate,
		"pair":             m.Pair,
		"amount":           m.Amount,
		"entry_price":      m.EntryPrice,
		"exit_price":       m.ExitPrice,
		"trade_type":       m.TradeType,
		"status":           m.Status,
		"strategy":         m.Strategy,
		"notes":            m.Notes,
		"entry_screenshot": m.EntryScreenshot,
		"exit_screenshot":  m.ExitScreenshot,
		"updated_at":       trade.UpdatedAt,
	})
	return expectRow(result, "trade", trade.ID)
}

// DeleteTrade removes a trade by ID.
func (s *Store) DeleteTrade(ctx context.Context, id int64) error {
	return expectRow(s.db.WithContext(ctx).Where("id = ?", id).Delete(&Trade{}), "trade", id)
}

// FindTradeByID retrieves a trade by its unique ID; nil, nil if missing.
func (s *Store) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	var rows []Trade
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query trade by ID %d", id)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// FindByOwner retrieves all trades of a user ordered by open time, then ID.
func (s *Store) FindByOwner(ctx context.Context, owner int64) ([]*domain.Trade, error) {
	var rows []Trade
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).Order(`"date" ASC, id ASC`).Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to query trades for user %d", owner)
	}
	return tradesToDomain(rows), nil
}

// FindAllTrades retrieves every trade ordered by open time descending.
func (s *Store) FindAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	var rows []Trade
	if err := s.db.WithContext(ctx).Order(`"date" DESC, id DESC`).Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query all trades")
	}
	return tradesToDomain(rows), nil
}

func tradesToDomain(rows []Trade) []*domain.Trade {
	trades := make([]*domain.Trade, 0, len(rows))
	for i := range rows {
		trades = append(trades, rows[i].toDomain())
	}
	return trades
}

// CountCompletedByOwner counts the completed trades of a user.
func (s *Store) CountCompletedByOwner(ctx context.Context, owner int64) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Trade{}).
		Where("user_id = ? AND status = ? AND exit_price IS NOT NULL AND end_date IS NOT NULL", owner, string(domain.StatusCompleted)).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "failed to count completed trades for user %d", owner)
	}
	return int(count), nil
}

const leaderboardQuery = `
SELECT u.id AS owner, u.username, u.level,
       COUNT(t.id) AS total_trades,
       COALESCE(SUM(CASE
           WHEN t.trade_type = 'long' AND t.exit_price > t.entry_price THEN 1
           WHEN t.trade_type = 'short' AND t.exit_price < t.entry_price THEN 1
           ELSE 0 END), 0) AS winning_trades
FROM users u
JOIN trades t ON t.user_id = u.id AND t.status = 'completed'
     AND t.exit_price IS NOT NULL AND t.end_date IS NOT NULL
GROUP BY u.id, u.username, u.level
ORDER BY u.id`

// LeaderboardEntries returns completed and winning trade counts per trader.
func (s *Store) LeaderboardEntries(ctx context.Context) ([]ports.TraderTradeCounts, error) {
	var rows []struct {
		Owner         int64
		Username      string
		Level         int
		TotalTrades   int
		WinningTrades int
	}
	if err := s.db.WithContext(ctx).Raw(leaderboardQuery).Scan(&rows).Error; err != nil {
		return nil, translate(err, "failed to query leaderboard entries")
	}

	entries := make([]ports.TraderTradeCounts, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ports.TraderTradeCounts{
			Owner:         r.Owner,
			Username:      r.Username,
			Level:         r.Level,
			TotalTrades:   r.TotalTrades,
			WinningTrades: r.WinningTrades,
		})
	}
	return entries, nil
}

// --- UserRepository Implementation ---

// CreateUser saves a new user and returns its assigned ID.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (int64, error) {
	if user.Level < 1 {
		user.Level = 1
	}
	m := toUserModel(user)
	if err := s.db.WithContext(ctx).Omit("Trades").Create(m).Error; err != nil {
		return 0, translate(err, "failed to insert user %s", user.Username)
	}
	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	return m.ID, nil
}

// FindUserByID retrieves a user by ID; nil, nil if missing.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

// FindUserByUsername retrieves a user by username; nil, nil if missing.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) findUser(ctx context.Context, cond string, arg interface{}) (*domain.User, error) {
	var rows []User
	if err := s.db.WithContext(ctx).Where(cond, arg).Limit(1).Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query user %v", arg)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// ListUsers retrieves all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var rows []User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query users")
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

// UpdateProfile updates email, bio and risk tolerance.
func (s *Store) UpdateProfile(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"email":          user.Email,
		"bio":            user.Bio,
		"risk_tolerance": user.RiskTolerance,
	})
	return expectRow(result, "user", user.ID)
}

// UpdateLevel stores the cached level of a user.
func (s *Store) UpdateLevel(ctx context.Context, id int64, level int) error {
	return expectRow(s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("level", level), "user", id)
}

// UpdateExpiry changes the account expiry date of a user.
func (s *Store) UpdateExpiry(ctx context.Context, id int64, expiry time.Time) error {
	return expectRow(s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("expiry_date", expiry.UTC()), "user", id)
}

// DeleteUser removes a user together with their trades.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Trade{}).Error; err != nil {
			return translate(err, "failed to delete trades of user ID %d", id)
		}
		return expectRow(tx.Where("id = ?", id).Delete(&User{}), "user", id)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "User deleted", map[string]interface{}{"userID": id})
	return nil
}

// --- CatalogRepository Implementation ---

func (s *Store) ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	var rows []TradingPair
	if err := s.db.WithContext(ctx).Order("pair ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query trading pairs")
	}
	pairs := make([]domain.TradingPair, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, domain.TradingPair{ID: r.ID, Pair: r.Pair})
	}
	return pairs, nil
}

func (s *Store) CreateTradingPair(ctx context.Context, pair string) (*domain.TradingPair, error) {
	m := &TradingPair{Pair: pair}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, translate(err, "failed to insert trading pair %q", pair)
	}
	return &domain.TradingPair{ID: m.ID, Pair: m.Pair}, nil
}

func (s *Store) DeleteTradingPair(ctx context.Context, id int64) error {
	return expectRow(s.db.WithContext(ctx).Where("id = ?", id).Delete(&TradingPair{}), "trading pair", id)
}

func (s *Store) ListStrategyTypes(ctx context.Context) ([]domain.StrategyType, error) {
	var rows []StrategyType
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "failed to query strategy types")
	}
	types := make([]domain.StrategyType, 0, len(rows))
	for _, r := range rows {
		types = append(types, domain.StrategyType{ID: r.ID, Name: r.Name})
	}
	return types, nil
}

func (s *Store) CreateStrategyType(ctx context.Context, name string) (*domain.StrategyType, error) {
	m := &StrategyType{Name: name}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, translate(err, "failed to insert strategy type %q", name)
	}
	return &domain.StrategyType{ID: m.ID, Name: m.Name}, nil
}

func (s *Store) DeleteStrategyType(ctx context.Context, id int64) error {
	return expectRow(s.db.WithContext(ctx).Where("id = ?", id).Delete(&StrategyType{}), "strategy type", id)
}

// --- RegistrationCodeRepository Implementation ---

func (s *Store) SaveRegistrationCode(ctx context.Context, code *domain.RegistrationCode) error {
	m := &RegistrationCode{Code: code.Code, Day: code.Day.Format(dayLayout)}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "failed to insert registration code")
	}
	code.ID = m.ID
	return nil
}

func (s *Store) LatestRegistrationCode(ctx context.Context, day time.Time) (*domain.RegistrationCode, error) {
	var rows []RegistrationCode
	err := s.db.WithContext(ctx).Where("day = ?", day.Format(dayLayout)).Order("id DESC").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to query registration code")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	parsed, err := time.Parse(dayLayout, rows[0].Day)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registration code day %q: %w", rows[0].Day, err)
	}
	return &domain.RegistrationCode{ID: rows[0].ID, Code: rows[0].Code, Day: parsed}, nil
}
