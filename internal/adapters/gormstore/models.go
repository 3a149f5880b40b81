package gormstore

import (
	"time"

	"cryptoJournal/internal/domain"
)

// Trade is the persisted form of domain.Trade.
type Trade struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          int64      `gorm:"index;not null"`
	Date            time.Time  `gorm:"column:date;not null"`
	EndDate         *time.Time `gorm:"column:end_date"`
	Pair            string     `gorm:"size:32;not null"`
	Amount          float64    `gorm:"not null"`
	EntryPrice      float64    `gorm:"not null"`
	ExitPrice       *float64
	TradeType       string `gorm:"size:10;not null"`
	Status          string `gorm:"size:20;not null;index"`
	Strategy        string
	Notes           string
	EntryScreenshot string
	ExitScreenshot  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Trade) TableName() string { return "trades" }

// User is the persisted form of domain.User.
type User struct {
	ID            int64  `gorm:"primaryKey"`
	Username      string `gorm:"size:60;uniqueIndex;not null"`
	PasswordHash  string `gorm:"not null"`
	Email         string
	IsAdmin       bool `gorm:"not null;default:false"`
	Level         int  `gorm:"not null;default:1"`
	ExpiryDate    *time.Time
	Bio           string
	RiskTolerance string `gorm:"size:20"`
	CreatedAt     time.Time
	Trades        []Trade `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

type TradingPair struct {
	ID   int64  `gorm:"primaryKey"`
	Pair string `gorm:"size:32;uniqueIndex;not null"`
}

func (TradingPair) TableName() string { return "trading_pairs" }

type StrategyType struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:100;uniqueIndex;not null"`
}

func (StrategyType) TableName() string { return "strategy_types" }

type RegistrationCode struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"size:16;not null"`
	Day  string `gorm:"size:10;index;not null"` // YYYY-MM-DD
}

func (RegistrationCode) TableName() string { return "registration_codes" }

// --- mappers ---

func toTradeModel(t *domain.Trade) *Trade {
	m := &Trade{
		ID:              t.ID,
		UserID:          t.Owner,
		Date:            t.OpenTime.UTC(),
		Pair:            t.Pair,
		Amount:          t.Quantity,
		EntryPrice:      t.EntryPrice,
		ExitPrice:       t.ExitPrice,
		TradeType:       string(t.Direction),
		Status:          string(t.Status),
		Strategy:        t.Strategy,
		Notes:           t.Notes,
		EntryScreenshot: t.EntryScreenshot,
		ExitScreenshot:  t.ExitScreenshot,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.CloseTime != nil {
		end := t.CloseTime.UTC()
		m.EndDate = &end
	}
	return m
}

func (m *Trade) toDomain() *domain.Trade {
	return &domain.Trade{
		ID:              m.ID,
		Owner:           m.UserID,
		OpenTime:        m.Date,
		CloseTime:       m.EndDate,
		Pair:            m.Pair,
		Quantity:        m.Amount,
		EntryPrice:      m.EntryPrice,
		ExitPrice:       m.ExitPrice,
		Direction:       domain.Direction(m.TradeType),
		Status:          domain.TradeStatus(m.Status),
		Strategy:        m.Strategy,
		Notes:           m.Notes,
		EntryScreenshot: m.EntryScreenshot,
		ExitScreenshot:  m.ExitScreenshot,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) *User {
	m := &User{
		ID:            u.ID,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		Email:         u.Email,
		IsAdmin:       u.IsAdmin,
		Level:         u.Level,
		Bio:           u.Bio,
		RiskTolerance: u.RiskTolerance,
		CreatedAt:     u.CreatedAt,
	}
	if !u.ExpiryDate.IsZero() {
		expiry := u.ExpiryDate.UTC()
		m.ExpiryDate = &expiry
	}
	return m
}

func (m *User) toDomain() *domain.User {
	u := &domain.User{
		ID:            m.ID,
		Username:      m.Username,
		PasswordHash:  m.PasswordHash,
		Email:         m.Email,
		IsAdmin:       m.IsAdmin,
		Level:         m.Level,
		Bio:           m.Bio,
		RiskTolerance: m.RiskTolerance,
		CreatedAt:     m.CreatedAt,
	}
	if m.ExpiryDate != nil {
		u.ExpiryDate = *m.ExpiryDate
	}
	return u
}
