package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fintrack/internal/config"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

func validAccountType(t models.AccountType) bool {
	switch t {
	case models.AccountTypeChecking, models.AccountTypeSavings,
		models.AccountTypeCredit, models.AccountTypeCash, models.AccountTypeInvestment:
		return true
	}
	return false
}

// CreateAccount creates a new account for a user. The opening balance is
// recorded as InitialBalance; from then on Balance only moves through the
// balance engine.
func (s *accountService) CreateAccount(userID string, input AccountInput) (*models.Account, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "account name is required")
	}
	if !validAccountType(input.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid account type")
	}
	if input.Currency == "" {
		input.Currency = config.Get().DefaultCurrency
	}

	account := &models.Account{
		UserID:         userID,
		Name:           input.Name,
		Type:           input.Type,
		Balance:        input.InitialBalance,
		InitialBalance: input.InitialBalance,
		Currency:       input.Currency,
		IsDefault:      input.IsDefault,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault {
			if err := clearDefaultAccount(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user. An
// account owned by another user reports the same error as a missing one.
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates the mutable fields of an account. Balance and
// InitialBalance are not among them.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountPatch) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.IsDefault != nil {
		updates["is_default"] = *fields.IsDefault
	}

	if len(updates) == 0 {
		return account, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if fields.IsDefault != nil && *fields.IsDefault {
			if err := clearDefaultAccount(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Model(account).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount soft-deletes an account. Deletion is blocked while the
// account has live transactions (as source or destination), active
// recurring rules, or active savings goals; the error names whichever
// constraint failed. Soft-deleted transactions do not block: their effects
// are already reversed, so the account necessarily sits at its initial
// balance.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var txnCount int64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND (account_id = ? OR to_account_id = ?)", userID, accountID, accountID).
			Count(&txnCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if txnCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("account has %d live transaction(s)", txnCount))
		}

		var ruleCount int64
		if err := tx.Model(&models.RecurringRule{}).
			Where("user_id = ? AND (account_id = ? OR to_account_id = ?) AND is_active = ?", userID, accountID, accountID, true).
			Count(&ruleCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if ruleCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("account has %d active recurring rule(s)", ruleCount))
		}

		var goalCount int64
		if err := tx.Model(&models.SavingsGoal{}).
			Where("user_id = ? AND account_id = ? AND status = ?", userID, accountID, models.GoalStatusActive).
			Count(&goalCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if goalCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("account has %d active savings goal(s)", goalCount))
		}

		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func clearDefaultAccount(tx *gorm.DB, userID string) error {
	if err := tx.Model(&models.Account{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
