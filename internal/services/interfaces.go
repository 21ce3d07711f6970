package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
	"fintrack/internal/patch"
)

// AccountInput holds the fields for creating an account.
type AccountInput struct {
	Name           string
	Type           models.AccountType
	Currency       string
	InitialBalance money.Amount
	IsDefault      bool
}

// AccountPatch holds optional fields for a partial account update.
type AccountPatch struct {
	Name      *string
	IsDefault *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, input AccountInput) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountPatch) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// CategoryPatch holds optional fields for a partial category update.
// ParentID is nullable: an explicit null detaches the category from its
// parent, while an omitted field leaves it unchanged.
type CategoryPatch struct {
	Name     *string
	ParentID patch.Field[string]
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, fields CategoryPatch) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionInput holds the fields for posting a transaction.
type TransactionInput struct {
	AccountID       string
	ToAccountID     *string
	CategoryID      *string
	Type            models.TransactionType
	Amount          money.Amount
	Description     string
	Date            time.Time
	Tags            []string
	RecurringRuleID *string
}

// TransactionPatch holds optional fields for a partial transaction update.
// CategoryID and ToAccountID are nullable so a caller can clear them.
type TransactionPatch struct {
	AccountID   *string
	ToAccountID patch.Field[string]
	CategoryID  patch.Field[string]
	Type        *models.TransactionType
	Amount      *money.Amount
	Description *string
	Date        *time.Time
	Tags        *[]string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
}

// TransactionServicer defines the contract for the transaction lifecycle:
// create, update, and soft-delete, each committing the balance effect and
// derived-total recomputation as one unit.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BudgetInput holds the fields for creating a budget.
type BudgetInput struct {
	CategoryID  string
	Name        string
	Amount      money.Amount
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BudgetPatch holds optional fields for a partial budget update.
type BudgetPatch struct {
	Name        *string
	Amount      *money.Amount
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	IsActive    *bool
}

// BudgetStatus reports a budget's usage for a point in time.
type BudgetStatus struct {
	BudgetID    string            `json:"budget_id"`
	Name        string            `json:"name"`
	Allocated   money.Amount      `json:"allocated"`
	Spent       money.Amount      `json:"spent"`
	Remaining   money.Amount      `json:"remaining"`
	PercentUsed float64           `json:"percent_used"`
	Band        models.BudgetBand `json:"band"`
}

// BudgetServicer defines the contract for budget-related business logic.
// RecomputeForCategory is the tracker entry point the transaction
// lifecycle invokes inside its own database transaction.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetPatch) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	Recompute(userID, budgetID string) (*models.Budget, error)
	Status(userID, budgetID string) (*BudgetStatus, error)
	RecomputeForCategory(tx *gorm.DB, userID, categoryID string, dates ...time.Time) error
}

// GoalInput holds the fields for creating a savings goal.
type GoalInput struct {
	AccountID    string
	Name         string
	TargetAmount money.Amount
	TargetDate   *time.Time
}

// GoalPatch holds optional fields for a partial goal update.
type GoalPatch struct {
	Name         *string
	TargetAmount *money.Amount
	TargetDate   patch.Field[time.Time]
}

// GoalServicer defines the contract for savings-goal business logic.
// Contributions are explicit operations, independent of transaction
// posting.
type GoalServicer interface {
	CreateGoal(userID string, input GoalInput) (*models.SavingsGoal, error)
	GetUserGoals(userID string, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.SavingsGoal], error)
	GetGoalByID(userID, goalID string) (*models.SavingsGoal, error)
	UpdateGoal(userID, goalID string, fields GoalPatch) (*models.SavingsGoal, error)
	DeleteGoal(userID, goalID string) error
	ApplyContribution(userID, goalID string, delta money.Amount) (*models.SavingsGoal, error)
	UpdateStatus(userID, goalID string, status models.GoalStatus) (*models.SavingsGoal, error)
	Recompute(userID, goalID string) (*models.SavingsGoal, error)
}

// RecurringRuleInput holds the fields for creating a recurring rule.
type RecurringRuleInput struct {
	AccountID   string
	ToAccountID *string
	CategoryID  *string
	Type        models.TransactionType
	Amount      money.Amount
	Description string
	Frequency   models.RecurringFrequency
	StartAt     time.Time
}

// RecurringRulePatch holds optional fields for a partial rule update.
type RecurringRulePatch struct {
	Amount      *money.Amount
	Description *string
	Frequency   *models.RecurringFrequency
	NextRunAt   *time.Time
	IsActive    *bool
}

// RecurringServicer defines the contract for recurring-rule business logic.
type RecurringServicer interface {
	CreateRule(userID string, input RecurringRuleInput) (*models.RecurringRule, error)
	GetUserRules(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringRule], error)
	GetRuleByID(userID, ruleID string) (*models.RecurringRule, error)
	UpdateRule(userID, ruleID string, fields RecurringRulePatch) (*models.RecurringRule, error)
	DeleteRule(userID, ruleID string) error
	GenerateDue(ctx context.Context, userID string, now time.Time) (int, error)
}

// ImportRow is one externally sourced transaction row. Amounts arrive as
// decimal strings so no precision is lost between file and ledger.
type ImportRow struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	Type        string   `json:"type"`
	Account     string   `json:"account,omitempty"`
	ToAccount   string   `json:"to_account,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ImportResult reports per-row outcomes of a bulk import. Errors may
// outnumber Skipped by the number of category warnings, which import a
// row and still record an entry.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportServicer defines the contract for the bulk import pipeline.
type ImportServicer interface {
	Import(ctx context.Context, userID string, rows []ImportRow, defaultAccountID *string) (*ImportResult, error)
}

// AccountBalance is one account's current balance in a summary.
type AccountBalance struct {
	AccountID string             `json:"account_id"`
	Name      string             `json:"name"`
	Type      models.AccountType `json:"type"`
	Balance   money.Amount       `json:"balance"`
	Currency  string             `json:"currency"`
}

// CategoryBreakdown is one category's share of expenses in a summary.
type CategoryBreakdown struct {
	CategoryID string       `json:"category_id,omitempty"`
	Name       string       `json:"name"`
	Total      money.Amount `json:"total"`
	Percentage float64      `json:"percentage"`
}

// FinancialSummary is the read-only rollup consumed by the UI and by the
// external insight collaborator. It is the collaborator's sole input
// surface.
type FinancialSummary struct {
	From         time.Time           `json:"from"`
	To           time.Time           `json:"to"`
	TotalIncome  money.Amount        `json:"total_income"`
	TotalExpense money.Amount        `json:"total_expense"`
	Net          money.Amount        `json:"net"`
	Accounts     []AccountBalance    `json:"accounts"`
	Expenses     []CategoryBreakdown `json:"expenses"`
	Budgets      []BudgetStatus      `json:"budgets"`
}

// SummaryServicer defines the contract for financial summaries. It never
// mutates state.
type SummaryServicer interface {
	Summarize(userID string, from, to time.Time, accountID *string) (*FinancialSummary, error)
}
