package domain

import "time"

// User represents a registered trader.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Email         string    `json:"email"`
	IsAdmin       bool      `json:"isAdmin"`
	Level         int       `json:"level"` // Cached experience level, recomputed after every trade mutation
	ExpiryDate    time.Time `json:"expiryDate"`
	Bio           string    `json:"bio"`
	RiskTolerance string    `json:"riskTolerance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsExpired reports whether the account validity has lapsed at the given instant.
// Admin accounts never expire.
func (u *User) IsExpired(now time.Time) bool {
	if u.IsAdmin || u.ExpiryDate.IsZero() {
		return false
	}
	return now.After(u.ExpiryDate)
}

// Session binds an opaque bearer token to a user.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
