package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// recurringService handles recurring-rule business logic. Generated
// occurrences go through the transaction lifecycle, so their balance and
// budget effects are identical to manual entry. Scheduling (who calls
// GenerateDue and when) belongs to the deployment, not this service.
type recurringService struct {
	db           *gorm.DB
	accounts     AccountServicer
	transactions TransactionServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, accounts AccountServicer, transactions TransactionServicer) RecurringServicer {
	return &recurringService{db: db, accounts: accounts, transactions: transactions}
}

func validFrequency(f models.RecurringFrequency) bool {
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return true
	}
	return false
}

// CreateRule creates a new recurring rule. The rule is validated with the
// same business rules as the transactions it will generate.
func (s *recurringService) CreateRule(userID string, input RecurringRuleInput) (*models.RecurringRule, error) {
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if !input.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid transaction type")
	}
	if !validFrequency(input.Frequency) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid frequency")
	}
	if _, err := s.accounts.GetAccountByID(userID, input.AccountID); err != nil {
		return nil, err
	}
	if input.Type == models.TransactionTypeTransfer {
		if input.ToAccountID == nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "transfer requires a destination account")
		}
		if *input.ToAccountID == input.AccountID {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "cannot transfer to the same account")
		}
		if _, err := s.accounts.GetAccountByID(userID, *input.ToAccountID); err != nil {
			return nil, err
		}
	}
	if input.CategoryID != nil {
		var category models.Category
		err := s.db.Where("id = ? AND user_id = ?", *input.CategoryID, userID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	startAt := input.StartAt
	if startAt.IsZero() {
		startAt = time.Now()
	}

	rule := &models.RecurringRule{
		UserID:      userID,
		AccountID:   input.AccountID,
		ToAccountID: input.ToAccountID,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Frequency:   input.Frequency,
		NextRunAt:   startAt,
		IsActive:    true,
	}

	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// GetUserRules returns a paginated list of rules with an optional active
// filter.
func (s *recurringService) GetUserRules(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringRule], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringRule{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rules []models.RecurringRule
	if err := base.Scopes(pagination.Paginate(page)).Order("next_run_at").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rules, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRuleByID returns a rule by ID if it belongs to the user.
func (s *recurringService) GetRuleByID(userID, ruleID string) (*models.RecurringRule, error) {
	var rule models.RecurringRule
	if err := s.db.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule updates a rule's mutable fields.
func (s *recurringService) UpdateRule(userID, ruleID string, fields RecurringRulePatch) (*models.RecurringRule, error) {
	rule, err := s.GetRuleByID(userID, ruleID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Amount != nil {
		if !fields.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
		}
		updates["amount"] = *fields.Amount
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Frequency != nil {
		if !validFrequency(*fields.Frequency) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid frequency")
		}
		updates["frequency"] = *fields.Frequency
	}
	if fields.NextRunAt != nil {
		updates["next_run_at"] = *fields.NextRunAt
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(rule).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", ruleID).First(rule).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return rule, nil
}

// DeleteRule soft-deletes a rule.
func (s *recurringService) DeleteRule(userID, ruleID string) error {
	rule, err := s.GetRuleByID(userID, ruleID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GenerateDue posts a transaction for every elapsed occurrence of the
// user's active rules and advances their NextRunAt. Each occurrence is
// its own unit of work; cancellation between occurrences leaves already
// committed ones intact and stops. Returns the number generated.
func (s *recurringService) GenerateDue(ctx context.Context, userID string, now time.Time) (int, error) {
	var rules []models.RecurringRule
	if err := s.db.Where("user_id = ? AND is_active = ? AND next_run_at <= ?", userID, true, now).
		Order("next_run_at").Find(&rules).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	generated := 0
	for i := range rules {
		rule := &rules[i]
		for !rule.NextRunAt.After(now) {
			select {
			case <-ctx.Done():
				return generated, nil
			default:
			}

			_, err := s.transactions.CreateTransaction(userID, TransactionInput{
				AccountID:       rule.AccountID,
				ToAccountID:     rule.ToAccountID,
				CategoryID:      rule.CategoryID,
				Type:            rule.Type,
				Amount:          rule.Amount,
				Description:     rule.Description,
				Date:            rule.NextRunAt,
				RecurringRuleID: &rule.ID,
			})
			if err != nil {
				return generated, err
			}

			rule.NextRunAt = rule.NextAfter(rule.NextRunAt)
			if err := s.db.Model(rule).Update("next_run_at", rule.NextRunAt).Error; err != nil {
				return generated, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			generated++
		}
	}
	return generated, nil
}
