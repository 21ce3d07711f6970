package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// CategoryTouch identifies a (category, date) pair whose derived totals a
// ledger mutation may have invalidated.
type CategoryTouch struct {
	CategoryID string
	Date       time.Time
}

// MutationHook runs inside the mutating database transaction, after the
// balance effect and before commit. All recompute-on-mutation coupling
// lives in this list instead of being scattered across handlers.
type MutationHook func(tx *gorm.DB, userID string, touches []CategoryTouch) error

// transactionService orchestrates the transaction lifecycle: create,
// update, and soft-delete, each as a single unit of work covering the
// row, the balance effect, and derived-total recomputation.
type transactionService struct {
	db            *gorm.DB
	accounts      AccountServicer
	afterMutation []MutationHook
}

// NewTransactionService creates a new TransactionServicer wired with the
// budget tracker's recompute hook.
func NewTransactionService(db *gorm.DB, accounts AccountServicer, budgets BudgetServicer) TransactionServicer {
	return &transactionService{
		db:            db,
		accounts:      accounts,
		afterMutation: []MutationHook{budgetRecomputeHook(budgets)},
	}
}

func budgetRecomputeHook(budgets BudgetServicer) MutationHook {
	return func(tx *gorm.DB, userID string, touches []CategoryTouch) error {
		for _, t := range touches {
			if err := budgets.RecomputeForCategory(tx, userID, t.CategoryID, t.Date); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *transactionService) runHooks(tx *gorm.DB, userID string, touches []CategoryTouch) error {
	for _, hook := range s.afterMutation {
		if err := hook(tx, userID, touches); err != nil {
			return err
		}
	}
	return nil
}

func touchesFor(txn *models.Transaction) []CategoryTouch {
	if txn.CategoryID == nil {
		return nil
	}
	return []CategoryTouch{{CategoryID: *txn.CategoryID, Date: txn.Date}}
}

// validateInput checks business rules for a prospective transaction:
// positive amount, known type, owned accounts, a distinct destination for
// transfers, and an owned category when one is given.
func (s *transactionService) validateInput(userID string, input *TransactionInput) error {
	if !input.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if !input.Type.Valid() {
		return apperrors.WithMessage(apperrors.ErrValidation, "invalid transaction type")
	}
	if input.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "account ID is required")
	}

	if _, err := s.accounts.GetAccountByID(userID, input.AccountID); err != nil {
		return err
	}

	if input.Type == models.TransactionTypeTransfer {
		if input.ToAccountID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "transfer requires a destination account")
		}
		if *input.ToAccountID == input.AccountID {
			return apperrors.WithMessage(apperrors.ErrValidation, "cannot transfer to the same account")
		}
		if _, err := s.accounts.GetAccountByID(userID, *input.ToAccountID); err != nil {
			return err
		}
	} else if input.ToAccountID != nil {
		return apperrors.WithMessage(apperrors.ErrValidation, "destination account is only valid for transfers")
	}

	if input.CategoryID != nil {
		var category models.Category
		err := s.db.Where("id = ? AND user_id = ?", *input.CategoryID, userID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return nil
}

// CreateTransaction validates and posts a new transaction: the row, its
// balance effect, and budget recomputation commit together.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	if err := s.validateInput(userID, &input); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:          userID,
		AccountID:       input.AccountID,
		ToAccountID:     input.ToAccountID,
		CategoryID:      input.CategoryID,
		Type:            input.Type,
		Amount:          input.Amount,
		Description:     input.Description,
		Date:            input.Date,
		Tags:            input.Tags,
		RecurringRuleID: input.RecurringRuleID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := applyEffect(tx, txn); err != nil {
			return err
		}
		return s.runHooks(tx, userID, touchesFor(txn))
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetUserTransactions retrieves a paginated, filtered list of live
// transactions for a user, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ? OR to_account_id = ?", *f.AccountID, *f.AccountID)
	}
	return q
}

// GetTransactionByID retrieves a live transaction by ID for a specific
// user. Soft-deleted transactions report NotFound: the lifecycle is
// terminal and a tombstone is never surfaced or mutated.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction mutates a live transaction. The old effect is reversed
// and the new one applied in full — never a computed diff — and budgets
// covering both the old and new (category, date) are recomputed, all
// within one database transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionPatch) (*models.Transaction, error) {
	original, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *original
	if fields.AccountID != nil {
		updated.AccountID = *fields.AccountID
	}
	if fields.ToAccountID.Set {
		updated.ToAccountID = fields.ToAccountID.Value
	}
	if fields.CategoryID.Set {
		updated.CategoryID = fields.CategoryID.Value
	}
	if fields.Type != nil {
		updated.Type = *fields.Type
	}
	if fields.Amount != nil {
		updated.Amount = *fields.Amount
	}
	if fields.Description != nil {
		updated.Description = *fields.Description
	}
	if fields.Date != nil {
		updated.Date = *fields.Date
	}
	if fields.Tags != nil {
		updated.Tags = *fields.Tags
	}
	// A transfer edited into income/expense sheds its destination leg.
	if updated.Type != models.TransactionTypeTransfer && fields.Type != nil {
		updated.ToAccountID = nil
	}

	input := TransactionInput{
		AccountID:   updated.AccountID,
		ToAccountID: updated.ToAccountID,
		CategoryID:  updated.CategoryID,
		Type:        updated.Type,
		Amount:      updated.Amount,
		Date:        updated.Date,
	}
	if err := s.validateInput(userID, &input); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := reverseEffect(tx, original); err != nil {
			return err
		}
		if err := tx.Save(&updated).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := applyEffect(tx, &updated); err != nil {
			return err
		}
		touches := append(touchesFor(original), touchesFor(&updated)...)
		return s.runHooks(tx, userID, touches)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction soft-deletes a live transaction, reversing its balance
// effect and recomputing affected budgets. The row is kept as a tombstone.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := reverseEffect(tx, transaction); err != nil {
			return err
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.runHooks(tx, userID, touchesFor(transaction))
	})
}
