package models

import (
	"time"

	"fintrack/internal/money"
)

// BudgetBand classifies how much of a budget has been used. Bands are
// computed on read, never stored.
type BudgetBand string

const (
	BudgetBandGood    BudgetBand = "good"    // < 80% used
	BudgetBandWarning BudgetBand = "warning" // 80–99%
	BudgetBandOver    BudgetBand = "over"    // >= 100%
)

// Budget caps spending for a category over a period.
//
// Spent is derived: it always equals the sum of live expense transactions
// in the budget's category whose date falls within [PeriodStart,
// PeriodEnd]. The budget tracker recomputes it inside the same database
// transaction as any ledger mutation that touches the category.
type Budget struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  string       `gorm:"type:uuid;not null;index" json:"category_id"`
	Name        string       `gorm:"not null" json:"name"`
	Amount      money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Spent       money.Amount `gorm:"type:bigint;not null;default:0" json:"spent"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null" json:"period_end"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Band returns the usage band for the budget's current Spent value.
func (b *Budget) Band() BudgetBand {
	pct := money.Percent(b.Spent, b.Amount)
	switch {
	case pct >= 100:
		return BudgetBandOver
	case pct >= 80:
		return BudgetBandWarning
	default:
		return BudgetBandGood
	}
}
