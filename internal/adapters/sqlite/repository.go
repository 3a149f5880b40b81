package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// Repository implements ports.Store using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

var (
	_ ports.Store       = (*Repository)(nil)
	_ ports.Snapshotter = (*Repository)(nil)
)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trading_journal.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})

	// WAL mode for concurrent readers, foreign keys for the trades -> users cascade
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %v", ports.ErrDBConnection, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %v", ports.ErrDBConnection, err)
	}

	// SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, now: func() time.Time { return time.Now().UTC() }}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		expiry_date TIMESTAMP DEFAULT NULL,
		bio TEXT NOT NULL DEFAULT '',
		risk_tolerance TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TIMESTAMP NOT NULL,
		end_date TIMESTAMP DEFAULT NULL,
		pair TEXT NOT NULL,
		amount REAL NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL DEFAULT NULL,
		trade_type TEXT NOT NULL,
		status TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		entry_screenshot TEXT NOT NULL DEFAULT '',
		exit_screenshot TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trading_pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pair TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS strategy_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS registration_codes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		day TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_user_date ON trades (user_id, date);
	CREATE INDEX IF NOT EXISTS idx_trades_user_status ON trades (user_id, status);
	CREATE INDEX IF NOT EXISTS idx_registration_codes_day ON registration_codes (day);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// BackupTo writes a consistent copy of the database to path using VACUUM INTO.
// The target file must not exist yet.
func (r *Repository) BackupTo(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory '%s': %w", filepath.Dir(path), err)
	}
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("failed to back up database to '%s': %w", path, err)
	}
	r.logger.Debug(ctx, "Database snapshot written", map[string]interface{}{"path": path})
	return nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `id, user_id, date, end_date, pair, amount, entry_price, exit_price, trade_type, status,
	       strategy, notes, entry_screenshot, exit_screenshot, created_at, updated_at`

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (user_id, date, end_date, pair, amount, entry_price, exit_price, trade_type, status,
	                    strategy, notes, entry_screenshot, exit_screenshot, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.now()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, query,
		trade.Owner, trade.OpenTime.UTC(), nullTime(trade.CloseTime), trade.Pair, trade.Quantity, trade.EntryPrice,
		nullFloat(trade.ExitPrice), string(trade.Direction), string(trade.Status),
		trade.Strategy, trade.Notes, trade.EntryScreenshot, trade.ExitScreenshot, trade.CreatedAt, trade.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("user ID %d does not exist: %w", trade.Owner, ports.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to insert trade for pair %s: %w", trade.Pair, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Pair, err)
	}
	trade.ID = id // Update domain object
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "userID": trade.Owner, "pair": trade.Pair})
	return id, nil
}

// UpdateTrade modifies an existing trade based on its ID. The owner is never changed.
func (r *Repository) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET date = ?, end_date = ?, pair = ?, amount = ?, entry_price = ?, exit_price = ?, trade_type = ?,
	    status = ?, strategy = ?, notes = ?, entry_screenshot = ?, exit_screenshot = ?, updated_at = ?
	WHERE id = ?`

	trade.UpdatedAt = r.now()
	result, err := r.db.ExecContext(ctx, query,
		trade.OpenTime.UTC(), nullTime(trade.CloseTime), trade.Pair, trade.Quantity, trade.EntryPrice,
		nullFloat(trade.ExitPrice), string(trade.Direction), string(trade.Status),
		trade.Strategy, trade.Notes, trade.EntryScreenshot, trade.ExitScreenshot, trade.UpdatedAt,
		trade.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade ID %d: %w", trade.ID, err)
	}

	if err := expectRow(result, "trade", trade.ID); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID, "status": trade.Status})
	return nil
}

// DeleteTrade removes a trade by ID.
func (r *Repository) DeleteTrade(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade ID %d: %w", id, err)
	}
	if err := expectRow(result, "trade", id); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// FindTradeByID retrieves a trade by its unique ID.
func (r *Repository) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	trade, err := scanTrade(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %d: %w", id, err)
	}
	return trade, nil
}

// FindByOwner retrieves all trades of a user ordered by open time, then ID.
func (r *Repository) FindByOwner(ctx context.Context, owner int64) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = ? ORDER BY date ASC, id ASC`
	return r.queryTrades(ctx, "FindByOwner", query, owner)
}

// FindAllTrades retrieves every trade ordered by open time descending.
func (r *Repository) FindAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY date DESC, id DESC`
	return r.queryTrades(ctx, "FindAllTrades", query)
}

func (r *Repository) queryTrades(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Trade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades (%s): %w", op, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during %s: %w", op, err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// CountCompletedByOwner counts the completed trades of a user.
func (r *Repository) CountCompletedByOwner(ctx context.Context, owner int64) (int, error) {
	const query = `SELECT COUNT(*) FROM trades
	WHERE user_id = ? AND status = ? AND exit_price IS NOT NULL AND end_date IS NOT NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query, owner, string(domain.StatusCompleted)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed trades for user %d: %w", owner, err)
	}
	return count, nil
}

// LeaderboardEntries returns completed and winning trade counts per trader.
// A trade wins when its price moved in the trade's favour, which is exactly a strictly positive P&L
// because quantities are positive.
func (r *Repository) LeaderboardEntries(ctx context.Context) ([]ports.TraderTradeCounts, error) {
	const query = `
	SELECT u.id, u.username, u.level,
	       COUNT(t.id),
	       COALESCE(SUM(CASE
	           WHEN t.trade_type = 'long' AND t.exit_price > t.entry_price THEN 1
	           WHEN t.trade_type = 'short' AND t.exit_price < t.entry_price THEN 1
	           ELSE 0 END), 0)
	FROM users u
	JOIN trades t ON t.user_id = u.id AND t.status = 'completed'
     AND t.exit_price IS NOT NULL AND t.end_date IS NOT NULL
	GROUP BY u.id, u.username, u.level
	ORDER BY u.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard entries: %w", err)
	}
	defer rows.Close()

	entries := make([]ports.TraderTradeCounts, 0)
	for rows.Next() {
		var e ports.TraderTradeCounts
		if err := rows.Scan(&e.Owner, &e.Username, &e.Level, &e.TotalTrades, &e.WinningTrades); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return entries, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var closeTime sql.NullTime
	var exitPrice sql.NullFloat64
	var direction, status string
	err := s.Scan(
		&t.ID, &t.Owner, &t.OpenTime, &closeTime, &t.Pair, &t.Quantity, &t.EntryPrice, &exitPrice,
		&direction, &status, &t.Strategy, &t.Notes, &t.EntryScreenshot, &t.ExitScreenshot,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if closeTime.Valid {
		ct := closeTime.Time
		t.CloseTime = &ct
	}
	if exitPrice.Valid {
		ep := exitPrice.Float64
		t.ExitPrice = &ep
	}
	t.Direction = domain.Direction(direction)
	t.Status = domain.TradeStatus(status)
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// expectRow turns a zero-row update/delete into ErrNotFound.
func expectRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s ID %d: %w", entity, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s ID %d not found: %w", entity, id, ports.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
