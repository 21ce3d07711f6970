package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
)

// budgetService handles budget CRUD and the spent tracker. Spent is never
// written directly: it is always recomputed from the live expense
// transactions in the budget's category and period, which makes the
// recompute idempotent by construction.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for a category. Spent is computed
// immediately so a budget opened over an existing period starts correct.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget name is required")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget amount must be greater than zero")
	}
	if !input.PeriodStart.Before(input.PeriodEnd) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "period start must be before period end")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", input.CategoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Amount:      input.Amount,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		IsActive:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recompute(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets with an optional
// active filter.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).Order("period_start DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's fields. Changing the amount or period
// re-derives Spent in the same unit of work, since the derived total
// depends on the period window.
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetPatch) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Amount != nil {
		if !fields.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget amount must be greater than zero")
		}
		updates["amount"] = *fields.Amount
	}
	if fields.PeriodStart != nil {
		updates["period_start"] = *fields.PeriodStart
	}
	if fields.PeriodEnd != nil {
		updates["period_end"] = *fields.PeriodEnd
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	start := budget.PeriodStart
	if fields.PeriodStart != nil {
		start = *fields.PeriodStart
	}
	end := budget.PeriodEnd
	if fields.PeriodEnd != nil {
		end = *fields.PeriodEnd
	}
	if !start.Before(end) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "period start must be before period end")
	}

	if len(updates) == 0 {
		return budget, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(budget).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", budgetID).First(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recompute(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Recompute re-derives a budget's Spent total on demand.
func (s *budgetService) Recompute(userID, budgetID string) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.recompute(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// Status reports the budget's usage with the percentage rounded to two
// decimal places.
func (s *budgetService) Status(userID, budgetID string) (*BudgetStatus, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	status := statusOf(budget)
	return &status, nil
}

// RecomputeForCategory re-derives Spent for every budget of the category
// whose period covers any of the touched dates. The active flag does not
// gate recomputation — an inactive budget still tracks spending, it is
// just not surfaced in the overview.
func (s *budgetService) RecomputeForCategory(tx *gorm.DB, userID, categoryID string, dates ...time.Time) error {
	var budgets []models.Budget
	if err := tx.Where("user_id = ? AND category_id = ?", userID, categoryID).Find(&budgets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		if !coversAny(&budgets[i], dates) {
			continue
		}
		if err := s.recompute(tx, &budgets[i]); err != nil {
			return err
		}
	}
	return nil
}

func coversAny(b *models.Budget, dates []time.Time) bool {
	for _, d := range dates {
		if !d.Before(b.PeriodStart) && !d.After(b.PeriodEnd) {
			return true
		}
	}
	return false
}

// recompute sets Spent to the exact sum of live expense transactions in
// the budget's category and period. Soft-deleted transactions are excluded
// by the tombstone filter on the transactions model.
func (s *budgetService) recompute(tx *gorm.DB, budget *models.Budget) error {
	var spent int64
	err := tx.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?",
			budget.UserID, budget.CategoryID, models.TransactionTypeExpense,
			budget.PeriodStart, budget.PeriodEnd).
		Scan(&spent).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := tx.Model(budget).Update("spent", spent).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Spent = money.Amount(spent)
	return nil
}

func statusOf(b *models.Budget) BudgetStatus {
	return BudgetStatus{
		BudgetID:    b.ID,
		Name:        b.Name,
		Allocated:   b.Amount,
		Spent:       b.Spent,
		Remaining:   b.Amount - b.Spent,
		PercentUsed: money.Percent(b.Spent, b.Amount),
		Band:        b.Band(),
	}
}
