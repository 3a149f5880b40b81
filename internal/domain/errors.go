package domain

import "errors"

// Record-level errors. Infrastructure errors live in the ports package.
var (
	// ErrInvalidDirection is returned when a trade direction is neither long nor short.
	ErrInvalidDirection = errors.New("invalid trade direction")
	// ErrInconsistentRecord is returned when status, exit price and close time disagree.
	ErrInconsistentRecord = errors.New("inconsistent trade record")
	// ErrInvalidTrade is returned when a trade violates the data-entry constraints.
	ErrInvalidTrade = errors.New("invalid trade")
)
