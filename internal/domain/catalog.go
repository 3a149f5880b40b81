package domain

import "time"

// TradingPair is an admin-managed instrument offered in the trade entry pick list.
type TradingPair struct {
	ID   int64  `json:"id"`
	Pair string `json:"pair"`
}

// StrategyType is an admin-managed analysis/strategy label.
type StrategyType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RegistrationCode gates sign-ups; one code is valid per calendar day.
type RegistrationCode struct {
	ID   int64     `json:"id"`
	Code string    `json:"code"`
	Day  time.Time `json:"day"` // Truncated to midnight UTC
}

// NewsArticle is a headline returned by the news collaborator.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}
