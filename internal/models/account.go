package models

import "fintrack/internal/money"

// AccountType represents the type of account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeCash       AccountType = "cash"
	AccountTypeInvestment AccountType = "investment"
)

// Account represents a financial account in the ledger.
//
// Invariant: Balance = InitialBalance + the summed effect of every live
// transaction touching this account. The balance engine maintains this;
// nothing else may write Balance.
type Account struct {
	Base
	UserID         string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string       `gorm:"not null" json:"name"`
	Type           AccountType  `gorm:"not null" json:"type"`
	Balance        money.Amount `gorm:"type:bigint;not null;default:0" json:"balance"`
	InitialBalance money.Amount `gorm:"type:bigint;not null;default:0" json:"initial_balance"`
	Currency       string       `gorm:"not null;default:'USD'" json:"currency"`
	IsDefault      bool         `gorm:"default:false" json:"is_default"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
