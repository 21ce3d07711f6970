package models

import (
	"time"

	"fintrack/internal/money"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused:
		return true
	}
	return false
}

// SavingsGoal tracks progress toward a target amount. CurrentAmount is
// updated by explicit contributions, not derived from transactions; the
// linked account records where the saved money lives. Overshoot beyond
// TargetAmount is preserved in storage and only clamped for display.
type SavingsGoal struct {
	Base
	UserID        string       `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID     string       `gorm:"type:uuid;not null;index" json:"account_id"`
	Name          string       `gorm:"not null" json:"name"`
	TargetAmount  money.Amount `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount money.Amount `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	TargetDate    *time.Time   `json:"target_date,omitempty"`
	Status        GoalStatus   `gorm:"not null;default:'active'" json:"status"`

	// Relationships
	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// Progress returns percent toward target, capped at 100 for display.
func (g *SavingsGoal) Progress() float64 {
	pct := money.Percent(g.CurrentAmount, g.TargetAmount)
	if pct > 100 {
		return 100
	}
	return pct
}
