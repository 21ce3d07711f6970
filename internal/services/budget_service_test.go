package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/testutil"
	"fintrack/internal/uuid"
)

func TestCreateBudget(t *testing.T) {
	t.Run("computes_spent_over_existing_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 100000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     2500,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		budget, err := budgetSvc.CreateBudget(userID, BudgetInput{
			CategoryID:  category.ID,
			Name:        "Groceries",
			Amount:      10000,
			PeriodStart: time.Now().AddDate(0, 0, -7),
			PeriodEnd:   time.Now().AddDate(0, 0, 7),
		})
		testutil.AssertNoError(t, err)

		if budget.Spent != 2500 {
			t.Errorf("expected spent 2500 at creation, got %d", budget.Spent)
		}
	})

	t.Run("inverted_period_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db)
		userID := uuid.New()
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

		_, err := budgetSvc.CreateBudget(userID, BudgetInput{
			CategoryID:  category.ID,
			Name:        "Backwards",
			Amount:      10000,
			PeriodStart: time.Now(),
			PeriodEnd:   time.Now().AddDate(0, 0, -1),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("unknown_category_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db)

		_, err := budgetSvc.CreateBudget(uuid.New(), BudgetInput{
			CategoryID:  uuid.New(),
			Name:        "Orphan",
			Amount:      10000,
			PeriodStart: time.Now(),
			PeriodEnd:   time.Now().AddDate(0, 1, 0),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestBudgetSpentTracking(t *testing.T) {
	t.Run("spent_follows_transaction_lifecycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 100000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     3000,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		reloaded, err := budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 3000 {
			t.Errorf("expected spent 3000 after create, got %d", reloaded.Spent)
		}

		newAmount := money.Amount(1000)
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Amount: &newAmount})
		testutil.AssertNoError(t, err)

		reloaded, err = budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 1000 {
			t.Errorf("expected spent 1000 after update, got %d", reloaded.Spent)
		}

		testutil.AssertNoError(t, txSvc.DeleteTransaction(userID, tx.ID))

		reloaded, err = budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 0 {
			t.Errorf("expected spent 0 after delete, got %d", reloaded.Spent)
		}
	})

	t.Run("income_does_not_count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeIncome)
		budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeIncome,
			Amount:     5000,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		reloaded, err := budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 0 {
			t.Errorf("expected spent 0 for income, got %d", reloaded.Spent)
		}
	})

	t.Run("transaction_outside_period_does_not_count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 100000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     3000,
			Date:       time.Now().AddDate(0, 0, -60),
		})
		testutil.AssertNoError(t, err)

		reloaded, err := budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 0 {
			t.Errorf("expected spent 0 for out-of-period transaction, got %d", reloaded.Spent)
		}
	})

	t.Run("inactive_budget_still_recomputes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 100000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		inactive := false
		_, err := budgetSvc.UpdateBudget(userID, budget.ID, BudgetPatch{IsActive: &inactive})
		testutil.AssertNoError(t, err)

		_, err = txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     4000,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		reloaded, err := budgetSvc.GetBudgetByID(userID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Spent != 4000 {
			t.Errorf("expected inactive budget spent 4000, got %d", reloaded.Spent)
		}
	})

	t.Run("recompute_is_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		budgetSvc := NewBudgetService(db)
		txSvc := NewTransactionService(db, acctSvc, budgetSvc)
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 100000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     2000,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		for i := 0; i < 3; i++ {
			reloaded, err := budgetSvc.Recompute(userID, budget.ID)
			testutil.AssertNoError(t, err)
			if reloaded.Spent != 2000 {
				t.Fatalf("recompute %d: expected spent 2000, got %d", i, reloaded.Spent)
			}
		}
	})
}

func TestBudgetStatus(t *testing.T) {
	bandCases := []struct {
		name  string
		spent money.Amount
		band  models.BudgetBand
	}{
		{"good_below_80", 7999, models.BudgetBandGood},
		{"warning_at_80", 8000, models.BudgetBandWarning},
		{"warning_below_100", 9999, models.BudgetBandWarning},
		{"over_at_100", 10000, models.BudgetBandOver},
		{"over_past_100", 15000, models.BudgetBandOver},
	}

	for _, tc := range bandCases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			acctSvc := NewAccountService(db)
			budgetSvc := NewBudgetService(db)
			txSvc := NewTransactionService(db, acctSvc, budgetSvc)
			userID := uuid.New()
			account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000000)
			category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
			budget := testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

			_, err := txSvc.CreateTransaction(userID, TransactionInput{
				AccountID:  account.ID,
				CategoryID: &category.ID,
				Type:       models.TransactionTypeExpense,
				Amount:     tc.spent,
				Date:       time.Now(),
			})
			testutil.AssertNoError(t, err)

			status, err := budgetSvc.Status(userID, budget.ID)
			testutil.AssertNoError(t, err)

			if status.Band != tc.band {
				t.Errorf("expected band %s for spent %d, got %s", tc.band, tc.spent, status.Band)
			}
			if status.Remaining != 10000-tc.spent {
				t.Errorf("expected remaining %d, got %d", 10000-tc.spent, status.Remaining)
			}
		})
	}

	t.Run("zero_allocation_percent_is_zero", func(t *testing.T) {
		b := &models.Budget{Amount: 0, Spent: 0}
		if got := money.Percent(b.Spent, b.Amount); got != 0 {
			t.Errorf("expected 0 percent on zero allocation, got %f", got)
		}
	})
}
