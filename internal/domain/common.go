package domain

// Direction represents the side a trade was taken on (long or short).
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Valid reports whether d is one of the two supported directions.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// TradeStatus represents the lifecycle state of a trade record.
type TradeStatus string

const (
	StatusActive    TradeStatus = "active"
	StatusCompleted TradeStatus = "completed"
)

// Valid reports whether s is a known trade status.
func (s TradeStatus) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}
