package models

import (
	"time"

	"fintrack/internal/money"
)

// TransactionType represents the type of transaction.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction represents a financial transaction in the ledger.
//
// Lifecycle: none -> live -> deleted, terminal. A soft-deleted transaction
// has had its balance effect reversed and is excluded from every balance,
// budget, and summary computation; it is kept for audit only.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      money.Amount    `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Tags        []string        `gorm:"serializer:json" json:"tags,omitempty"`

	// For transfers: the receiving account.
	ToAccountID *string `gorm:"type:uuid;index" json:"to_account_id,omitempty"`

	// Back-reference when generated from a recurring rule.
	RecurringRuleID *string `gorm:"type:uuid" json:"recurring_rule_id,omitempty"`

	// Relationships
	Account   Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	ToAccount *Account       `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	Category  *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Rule      *RecurringRule `gorm:"foreignKey:RecurringRuleID" json:"rule,omitempty"`
}
