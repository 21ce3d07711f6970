package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
)

// summaryService computes read-only financial rollups. It issues SELECTs
// only and never mutates state; the external insight collaborator consumes
// its output instead of reading the store directly.
type summaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db}
}

// Summarize rolls up the user's live transactions over [from, to] with an
// optional account filter: income/expense/net totals, per-account
// balances, the per-category expense breakdown, and the status of active
// budgets whose period overlaps the range.
func (s *summaryService) Summarize(userID string, from, to time.Time, accountID *string) (*FinancialSummary, error) {
	txns := func() *gorm.DB {
		q := s.db.Model(&models.Transaction{}).
			Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to)
		if accountID != nil {
			q = q.Where("account_id = ?", *accountID)
		}
		return q
	}

	income, err := sumAmount(txns().Where("type = ?", models.TransactionTypeIncome))
	if err != nil {
		return nil, err
	}
	expense, err := sumAmount(txns().Where("type = ?", models.TransactionTypeExpense))
	if err != nil {
		return nil, err
	}

	summary := &FinancialSummary{
		From:         from,
		To:           to,
		TotalIncome:  income,
		TotalExpense: expense,
		Net:          income - expense,
	}

	if err := s.fillAccounts(summary, userID, accountID); err != nil {
		return nil, err
	}
	if err := s.fillExpenseBreakdown(summary, userID, from, to, accountID); err != nil {
		return nil, err
	}
	if err := s.fillBudgets(summary, userID, from, to); err != nil {
		return nil, err
	}

	return summary, nil
}

func sumAmount(q *gorm.DB) (money.Amount, error) {
	var total int64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return money.Amount(total), nil
}

func (s *summaryService) fillAccounts(summary *FinancialSummary, userID string, accountID *string) error {
	q := s.db.Where("user_id = ?", userID)
	if accountID != nil {
		q = q.Where("id = ?", *accountID)
	}

	var accounts []models.Account
	if err := q.Order("created_at").Find(&accounts).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary.Accounts = make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		summary.Accounts = append(summary.Accounts, AccountBalance{
			AccountID: a.ID,
			Name:      a.Name,
			Type:      a.Type,
			Balance:   a.Balance,
			Currency:  a.Currency,
		})
	}
	return nil
}

func (s *summaryService) fillExpenseBreakdown(summary *FinancialSummary, userID string, from, to time.Time, accountID *string) error {
	type categoryRow struct {
		CategoryID *string
		Total      int64
	}

	q := s.db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, from, to).
		Group("category_id")
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}

	var rows []categoryRow
	if err := q.Scan(&rows).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.CategoryID != nil {
			ids = append(ids, *row.CategoryID)
		}
	}
	names, err := s.categoryNames(userID, ids)
	if err != nil {
		return err
	}

	summary.Expenses = make([]CategoryBreakdown, 0, len(rows))
	for _, row := range rows {
		entry := CategoryBreakdown{
			Name:       "Uncategorized",
			Total:      money.Amount(row.Total),
			Percentage: money.Percent(money.Amount(row.Total), summary.TotalExpense),
		}
		if row.CategoryID != nil {
			entry.CategoryID = *row.CategoryID
			if name, ok := names[*row.CategoryID]; ok {
				entry.Name = name
			}
		}
		summary.Expenses = append(summary.Expenses, entry)
	}

	sort.Slice(summary.Expenses, func(i, j int) bool {
		return summary.Expenses[i].Total > summary.Expenses[j].Total
	})
	return nil
}

func (s *summaryService) categoryNames(userID string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ? AND id IN ?", userID, ids).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// fillBudgets collects the status of active budgets whose period overlaps
// the query range. Spent is the stored derived total, which the lifecycle
// keeps consistent, so this stays a pure read.
func (s *summaryService) fillBudgets(summary *FinancialSummary, userID string, from, to time.Time) error {
	var budgets []models.Budget
	err := s.db.Where("user_id = ? AND is_active = ? AND period_start <= ? AND period_end >= ?",
		userID, true, to, from).
		Order("period_start").Find(&budgets).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary.Budgets = make([]BudgetStatus, 0, len(budgets))
	for i := range budgets {
		summary.Budgets = append(summary.Budgets, statusOf(&budgets[i]))
	}
	return nil
}
