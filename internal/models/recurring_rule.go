package models

import (
	"time"

	"fintrack/internal/money"
)

// RecurringFrequency is how often a recurring rule fires.
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
	FrequencyYearly  RecurringFrequency = "yearly"
)

// RecurringRule is a template that generates future transactions. An
// active rule blocks deletion of any account it references.
type RecurringRule struct {
	Base
	UserID      string             `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string             `gorm:"type:uuid;not null;index" json:"account_id"`
	ToAccountID *string            `gorm:"type:uuid" json:"to_account_id,omitempty"`
	CategoryID  *string            `gorm:"type:uuid" json:"category_id,omitempty"`
	Type        TransactionType    `gorm:"not null" json:"type"`
	Amount      money.Amount       `gorm:"type:bigint;not null" json:"amount"`
	Description string             `json:"description"`
	Frequency   RecurringFrequency `gorm:"not null" json:"frequency"`
	NextRunAt   time.Time          `gorm:"not null;index" json:"next_run_at"`
	IsActive    bool               `gorm:"default:true" json:"is_active"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// NextAfter returns the run time following t for the rule's frequency.
func (r *RecurringRule) NextAfter(t time.Time) time.Time {
	switch r.Frequency {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}
