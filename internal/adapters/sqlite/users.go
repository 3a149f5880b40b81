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

const userColumns = `id, username, password_hash, email, is_admin, level, expiry_date, bio, risk_tolerance, created_at`

// --- UserRepository Implementation ---

// CreateUser saves a new user and returns its assigned ID.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (int64, error) {
	const query = `
	INSERT INTO users (username, password_hash, email, is_admin, level, expiry_date, bio, risk_tolerance, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	if user.Level < 1 {
		user.Level = 1
	}

	var expiry *time.Time
	if !user.ExpiryDate.IsZero() {
		expiry = &user.ExpiryDate
	}

	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.Email, user.IsAdmin, user.Level, nullTime(expiry),
		user.Bio, user.RiskTolerance, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("username %q is taken: %w", user.Username, ports.ErrDuplicateEntry)
		}
		return 0, fmt.Errorf("failed to insert user %s: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user %s: %w", user.Username, err)
	}
	user.ID = id
	r.logger.Debug(ctx, "User created", map[string]interface{}{"userID": id, "username": user.Username, "isAdmin": user.IsAdmin})
	return id, nil
}

// FindUserByID retrieves a user by ID.
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindUserByUsername retrieves a user by username.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *Repository) findUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query user %v: %w", arg, err)
	}
	return user, nil
}

// ListUsers retrieves all users ordered by ID.
func (r *Repository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user during ListUsers: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateProfile updates email, bio and risk tolerance.
func (r *Repository) UpdateProfile(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET email = ?, bio = ?, risk_tolerance = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, user.Email, user.Bio, user.RiskTolerance, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile of user ID %d: %w", user.ID, err)
	}
	return expectRow(result, "user", user.ID)
}

// UpdateLevel stores the cached level of a user.
func (r *Repository) UpdateLevel(ctx context.Context, id int64, level int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET level = ? WHERE id = ?`, level, id)
	if err != nil {
		return fmt.Errorf("failed to update level of user ID %d: %w", id, err)
	}
	if err := expectRow(result, "user", id); err != nil {
		return err
	}
	r.logger.Debug(ctx, "User level updated", map[string]interface{}{"userID": id, "level": level})
	return nil
}

// UpdateExpiry changes the account expiry date of a user.
func (r *Repository) UpdateExpiry(ctx context.Context, id int64, expiry time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET expiry_date = ? WHERE id = ?`, nullTime(&expiry), id)
	if err != nil {
		return fmt.Errorf("failed to update expiry of user ID %d: %w", id, err)
	}
	return expectRow(result, "user", id)
}

// DeleteUser removes a user together with their trades.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete trades of user ID %d: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user ID %d: %w", id, err)
	}
	if err := expectRow(result, "user", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}
	r.logger.Info(ctx, "User deleted", map[string]interface{}{"userID": id})
	return nil
}

// scanUser scans a row into a domain.User struct.
func scanUser(s scanner) (*domain.User, error) {
	u := &domain.User{}
	var expiry sql.NullTime
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.IsAdmin, &u.Level, &expiry,
		&u.Bio, &u.RiskTolerance, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		u.ExpiryDate = expiry.Time
	}
	return u, nil
}
