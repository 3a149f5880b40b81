package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// dayLayout is how registration-code days are stored.
const dayLayout = "2006-01-02"

// --- CatalogRepository Implementation ---

// ListTradingPairs retrieves the trading pair pick list ordered by name.
func (r *Repository) ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, pair FROM trading_pairs ORDER BY pair`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trading pairs: %w", err)
	}
	defer rows.Close()

	pairs := make([]domain.TradingPair, 0)
	for rows.Next() {
		var p domain.TradingPair
		if err := rows.Scan(&p.ID, &p.Pair); err != nil {
			return nil, fmt.Errorf("failed to scan trading pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// CreateTradingPair adds a pair to the pick list.
func (r *Repository) CreateTradingPair(ctx context.Context, pair string) (*domain.TradingPair, error) {
	id, err := r.insertNamed(ctx, `INSERT INTO trading_pairs (pair) VALUES (?)`, pair)
	if err != nil {
		return nil, err
	}
	return &domain.TradingPair{ID: id, Pair: pair}, nil
}

// DeleteTradingPair removes a pair from the pick list. Existing trades keep their pair text.
func (r *Repository) DeleteTradingPair(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trading_pairs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trading pair ID %d: %w", id, err)
	}
	return expectRow(result, "trading pair", id)
}

// ListStrategyTypes retrieves the strategy pick list ordered by name.
func (r *Repository) ListStrategyTypes(ctx context.Context) ([]domain.StrategyType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM strategy_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.StrategyType, 0)
	for rows.Next() {
		var s domain.StrategyType
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan strategy type: %w", err)
		}
		types = append(types, s)
	}
	return types, rows.Err()
}

// CreateStrategyType adds a strategy label to the pick list.
func (r *Repository) CreateStrategyType(ctx context.Context, name string) (*domain.StrategyType, error) {
	id, err := r.insertNamed(ctx, `INSERT INTO strategy_types (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return &domain.StrategyType{ID: id, Name: name}, nil
}

// DeleteStrategyType removes a strategy label from the pick list.
func (r *Repository) DeleteStrategyType(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM strategy_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete strategy type ID %d: %w", id, err)
	}
	return expectRow(result, "strategy type", id)
}

func (r *Repository) insertNamed(ctx context.Context, query, value string) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%q already exists: %w", value, ports.ErrDuplicateEntry)
		}
		return 0, fmt.Errorf("failed to insert %q: %w", value, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for %q: %w", value, err)
	}
	return id, nil
}

// --- RegistrationCodeRepository Implementation ---

// SaveRegistrationCode stores a code for the given day.
func (r *Repository) SaveRegistrationCode(ctx context.Context, code *domain.RegistrationCode) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO registration_codes (code, day) VALUES (?, ?)`,
		code.Code, code.Day.Format(dayLayout))
	if err != nil {
		return fmt.Errorf("failed to insert registration code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID for registration code: %w", err)
	}
	code.ID = id
	return nil
}

// LatestRegistrationCode returns the most recent code for the day, or nil, nil.
func (r *Repository) LatestRegistrationCode(ctx context.Context, day time.Time) (*domain.RegistrationCode, error) {
	const query = `SELECT id, code, day FROM registration_codes WHERE day = ? ORDER BY id DESC LIMIT 1`

	var code domain.RegistrationCode
	var dayStr string
	err := r.db.QueryRowContext(ctx, query, day.Format(dayLayout)).Scan(&code.ID, &code.Code, &dayStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query registration code: %w", err)
	}
	code.Day, err = time.Parse(dayLayout, dayStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registration code day %q: %w", dayStr, err)
	}
	return &code, nil
}
