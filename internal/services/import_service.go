package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/money"
)

// importService validates, normalizes, deduplicates, and bulk-applies
// externally sourced transaction rows. Every accepted row goes through the
// transaction lifecycle's create path, so its balance and budget effects
// are identical to manual entry. Rows are independent: one bad row never
// fails the batch, and outcomes are reported per row, 1-indexed.
type importService struct {
	db           *gorm.DB
	accounts     AccountServicer
	transactions TransactionServicer
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, accounts AccountServicer, transactions TransactionServicer) ImportServicer {
	return &importService{db: db, accounts: accounts, transactions: transactions}
}

// importDateFormats are the accepted row date layouts, tried in order.
var importDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

func parseImportDate(s string) (time.Time, error) {
	for _, layout := range importDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Import applies rows sequentially for one user. The whole batch is
// rejected only when rows is empty or the supplied default account does
// not resolve; everything else is a per-row outcome. Sequential
// processing means row N's duplicate check sees row N-1's committed
// insert. Cancellation between rows keeps committed rows and stops.
func (s *importService) Import(ctx context.Context, userID string, rows []ImportRow, defaultAccountID *string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "no rows to import")
	}

	var defaultAccount *models.Account
	if defaultAccountID != nil {
		account, err := s.accounts.GetAccountByID(userID, *defaultAccountID)
		if err != nil {
			return nil, err
		}
		defaultAccount = account
	}

	accountsByName, err := s.accountIndex(userID)
	if err != nil {
		return nil, err
	}
	categoriesByName, err := s.categoryIndex(userID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	for i, row := range rows {
		select {
		case <-ctx.Done():
			logger.Get().Warnw("import cancelled",
				"user_id", userID, "processed", i, "total", len(rows))
			return result, nil
		default:
		}

		s.importRow(userID, i+1, row, defaultAccount, accountsByName, categoriesByName, result)
	}

	logger.Get().Infow("import finished",
		"user_id", userID,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *importService) importRow(
	userID string,
	rowNum int,
	row ImportRow,
	defaultAccount *models.Account,
	accountsByName map[string]*models.Account,
	categoriesByName map[string]*models.Category,
	result *ImportResult,
) {
	skip := func(msg string) {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNum, msg))
	}

	if strings.TrimSpace(row.Date) == "" || strings.TrimSpace(row.Description) == "" ||
		strings.TrimSpace(row.Amount) == "" || strings.TrimSpace(row.Type) == "" {
		skip("missing required fields")
		return
	}

	date, err := parseImportDate(strings.TrimSpace(row.Date))
	if err != nil {
		skip("invalid date format")
		return
	}

	value, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil || !value.IsPositive() {
		skip("amount must be a positive number")
		return
	}

	txnType := models.TransactionType(strings.ToLower(strings.TrimSpace(row.Type)))
	if !txnType.Valid() {
		skip("invalid transaction type")
		return
	}

	var account *models.Account
	switch {
	case strings.TrimSpace(row.Account) != "":
		account = accountsByName[normalizeName(row.Account)]
		if account == nil {
			skip("account not found")
			return
		}
	case defaultAccount != nil:
		account = defaultAccount
	default:
		skip("no account specified and no default account provided")
		return
	}

	var toAccountID *string
	if strings.TrimSpace(row.ToAccount) != "" {
		toAccount := accountsByName[normalizeName(row.ToAccount)]
		if toAccount == nil {
			skip("account not found")
			return
		}
		toAccountID = &toAccount.ID
	}

	amount, err := money.FromDecimal(value, account.Currency)
	if err != nil {
		skip("amount must be a positive number")
		return
	}

	// An unresolvable category is the one warning case: the row still
	// imports, without a category, and an error entry is recorded.
	var categoryID *string
	if strings.TrimSpace(row.Category) != "" {
		if category := categoriesByName[normalizeName(row.Category)]; category != nil {
			categoryID = &category.ID
		} else {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: category %q not found, transaction imported without category", rowNum, row.Category))
		}
	}

	if err := s.checkDuplicate(userID, account.ID, row.Description, amount, date); err != nil {
		skip(err.Error())
		return
	}

	_, err = s.transactions.CreateTransaction(userID, TransactionInput{
		AccountID:   account.ID,
		ToAccountID: toAccountID,
		CategoryID:  categoryID,
		Type:        txnType,
		Amount:      amount,
		Description: row.Description,
		Date:        date,
		Tags:        row.Tags,
	})
	if err != nil {
		skip(err.Error())
		return
	}
	result.Imported++
}

// checkDuplicate fails with DUPLICATE_TRANSACTION when a live transaction
// with the same description, amount, account, and calendar day already
// exists. Exact match semantics, not fuzzy.
func (s *importService) checkDuplicate(userID, accountID, description string, amount money.Amount, date time.Time) error {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id = ? AND description = ? AND amount = ? AND date >= ? AND date < ?",
			userID, accountID, description, int64(amount), dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDuplicateTransaction, "potential duplicate transaction skipped")
	}
	return nil
}

func (s *importService) accountIndex(userID string) (map[string]*models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	index := make(map[string]*models.Account, len(accounts))
	for i := range accounts {
		index[normalizeName(accounts[i].Name)] = &accounts[i]
	}
	return index, nil
}

func (s *importService) categoryIndex(userID string) (map[string]*models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	index := make(map[string]*models.Category, len(categories))
	for i := range categories {
		index[normalizeName(categories[i].Name)] = &categories[i]
	}
	return index, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
