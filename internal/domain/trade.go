package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Trade represents a manually logged trade. Exit data is only present once the trade is completed.
type Trade struct {
	ID              int64       `json:"id"`              // Unique identifier (assigned by the repository)
	Owner           int64       `json:"userId"`          // ID of the user who logged the trade
	OpenTime        time.Time   `json:"date"`            // Timestamp when the position was entered
	CloseTime       *time.Time  `json:"endDate"`         // Timestamp when the position was exited (nil while active)
	Pair            string      `json:"pair"`            // Traded instrument (e.g., "BTC/USDT")
	Quantity        float64     `json:"amount"`          // Units traded
	EntryPrice      float64     `json:"entryPrice"`      // Price at which the position was entered
	ExitPrice       *float64    `json:"exitPrice"`       // Price at which the position was exited (nil while active)
	Direction       Direction   `json:"tradeType"`       // long or short
	Status          TradeStatus `json:"status"`          // active or completed
	Strategy        string      `json:"strategy"`        // Free-form grouping tag
	Notes           string      `json:"notes"`           // Free-form notes
	EntryScreenshot string      `json:"entryScreenshot"` // Opaque reference to an entry chart image
	ExitScreenshot  string      `json:"exitScreenshot"`  // Opaque reference to an exit chart image
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// IsCompleted reports whether the trade carries exit data.
func (t *Trade) IsCompleted() bool {
	return t.Status == StatusCompleted && t.ExitPrice != nil && t.CloseTime != nil
}

// Close transitions an active trade to completed.
func (t *Trade) Close(exitPrice float64, closeTime time.Time) {
	t.ExitPrice = &exitPrice
	t.CloseTime = &closeTime
	t.Status = StatusCompleted
}

// NormalizeStatus derives the status from the presence of exit data.
// Used at the data-entry boundary where callers may omit the status.
func (t *Trade) NormalizeStatus() {
	if t.ExitPrice != nil && t.CloseTime != nil {
		t.Status = StatusCompleted
	} else if t.ExitPrice == nil && t.CloseTime == nil {
		t.Status = StatusActive
	}
}

// CheckConsistency verifies status = completed <=> exit price present <=> close time present.
func (t *Trade) CheckConsistency() error {
	hasExit := t.ExitPrice != nil
	hasClose := t.CloseTime != nil
	switch {
	case hasExit != hasClose:
		return fmt.Errorf("trade %d: exit price present=%t but close time present=%t: %w", t.ID, hasExit, hasClose, ErrInconsistentRecord)
	case t.Status == StatusCompleted && !hasExit:
		return fmt.Errorf("trade %d: completed without exit data: %w", t.ID, ErrInconsistentRecord)
	case t.Status == StatusActive && hasExit:
		return fmt.Errorf("trade %d: active with exit data: %w", t.ID, ErrInconsistentRecord)
	case !t.Status.Valid():
		return fmt.Errorf("trade %d: unknown status %q: %w", t.ID, t.Status, ErrInconsistentRecord)
	}
	return nil
}

// Validate checks the data-entry constraints for a trade.
func (t *Trade) Validate() error {
	var errs []string
	if strings.TrimSpace(t.Pair) == "" {
		errs = append(errs, "pair must be set")
	}
	switch {
	case !isFinite(t.Quantity):
		errs = append(errs, "amount must be a finite number")
	case t.Quantity <= 0:
		errs = append(errs, "amount must be positive")
	}
	switch {
	case !isFinite(t.EntryPrice):
		errs = append(errs, "entry price must be a finite number")
	case t.EntryPrice <= 0:
		errs = append(errs, "entry price must be positive")
	}
	if t.ExitPrice != nil {
		switch {
		case !isFinite(*t.ExitPrice):
			errs = append(errs, "exit price must be a finite number")
		case *t.ExitPrice < 0:
			errs = append(errs, "exit price cannot be negative")
		}
	}
	if t.OpenTime.IsZero() {
		errs = append(errs, "date must be set")
	}
	if t.CloseTime != nil && t.CloseTime.Before(t.OpenTime) {
		errs = append(errs, "end date cannot be before date")
	}
	if !t.Direction.Valid() {
		errs = append(errs, fmt.Sprintf("trade type must be %q or %q", Long, Short))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTrade, strings.Join(errs, "; "))
	}
	return t.CheckConsistency()
}

// HasFiniteValues reports whether quantity and prices are all finite numbers.
func (t *Trade) HasFiniteValues() bool {
	if !isFinite(t.Quantity) || !isFinite(t.EntryPrice) {
		return false
	}
	return t.ExitPrice == nil || isFinite(*t.ExitPrice)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
