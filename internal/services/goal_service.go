package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
)

// goalService handles savings-goal business logic. Goal progress is
// contribution-driven: CurrentAmount moves only through explicit
// contributions, never as a side effect of transaction posting. The
// linked account records where the saved money lives and blocks that
// account's deletion while the goal is active.
type goalService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, accounts AccountServicer) GoalServicer {
	return &goalService{db: db, accounts: accounts}
}

// CreateGoal creates a new savings goal linked to an owned account.
func (s *goalService) CreateGoal(userID string, input GoalInput) (*models.SavingsGoal, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "goal name is required")
	}
	if !input.TargetAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "target amount must be greater than zero")
	}
	if _, err := s.accounts.GetAccountByID(userID, input.AccountID); err != nil {
		return nil, err
	}

	goal := &models.SavingsGoal{
		UserID:       userID,
		AccountID:    input.AccountID,
		Name:         input.Name,
		TargetAmount: input.TargetAmount,
		TargetDate:   input.TargetDate,
		Status:       models.GoalStatusActive,
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of goals with an optional status
// filter.
func (s *goalService) GetUserGoals(userID string, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.SavingsGoal], error) {
	page.Defaults()

	base := s.db.Model(&models.SavingsGoal{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.SavingsGoal
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID returns a goal by ID if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.SavingsGoal, error) {
	var goal models.SavingsGoal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal updates a goal's name, target, or target date. Lowering the
// target below the current progress completes an active goal.
func (s *goalService) UpdateGoal(userID, goalID string, fields GoalPatch) (*models.SavingsGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.TargetAmount != nil {
		if !fields.TargetAmount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "target amount must be greater than zero")
		}
		updates["target_amount"] = *fields.TargetAmount
	}
	if fields.TargetDate.Set {
		if fields.TargetDate.Value == nil {
			updates["target_date"] = nil
		} else {
			updates["target_date"] = *fields.TargetDate.Value
		}
	}

	if len(updates) == 0 {
		return goal, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(goal).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", goalID).First(goal).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.evaluateCompletion(tx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal soft-deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyContribution moves CurrentAmount by a signed delta. Overshoot past
// the target is preserved in storage; progress is only clamped for
// display. An active goal that reaches its target completes
// automatically; a paused goal accepts contributions but never
// auto-completes.
func (s *goalService) ApplyContribution(userID, goalID string, delta money.Amount) (*models.SavingsGoal, error) {
	if delta.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "contribution amount must be non-zero")
	}

	var goal *models.SavingsGoal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		goal, err = s.GetGoalByID(userID, goalID)
		if err != nil {
			return err
		}
		if goal.Status == models.GoalStatusCompleted {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation, "goal is already completed")
		}

		next := goal.CurrentAmount + delta
		if next.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrValidation, "contribution would make goal progress negative")
		}

		if err := tx.Model(goal).Update("current_amount", next).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		goal.CurrentAmount = next
		return s.evaluateCompletion(tx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// UpdateStatus applies an explicit status transition. active and paused
// swap freely, either may be completed explicitly, and completed is
// terminal: it never reverts, automatically or otherwise.
func (s *goalService) UpdateStatus(userID, goalID string, status models.GoalStatus) (*models.SavingsGoal, error) {
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid goal status")
	}

	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == status {
		return goal, nil
	}
	if goal.Status == models.GoalStatusCompleted {
		return nil, apperrors.WithMessage(apperrors.ErrConstraintViolation, "completed goal cannot change status")
	}

	if err := s.db.Model(goal).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	goal.Status = status
	return goal, nil
}

// Recompute re-evaluates the completion transition against the stored
// progress. Progress itself is contribution-driven, so there is no sum to
// re-derive here.
func (s *goalService) Recompute(userID, goalID string) (*models.SavingsGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.evaluateCompletion(tx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// evaluateCompletion transitions an active goal to completed once its
// progress reaches the target. Paused and completed goals are left alone.
func (s *goalService) evaluateCompletion(tx *gorm.DB, goal *models.SavingsGoal) error {
	if goal.Status != models.GoalStatusActive {
		return nil
	}
	if goal.CurrentAmount < goal.TargetAmount {
		return nil
	}
	if err := tx.Model(goal).Update("status", models.GoalStatusCompleted).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	goal.Status = models.GoalStatusCompleted
	return nil
}
