package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/patch"
	"fintrack/internal/testutil"
	"fintrack/internal/uuid"
)

func TestCreateCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		userID := uuid.New()

		category, err := svc.CreateCategory(userID, "Groceries", models.CategoryTypeExpense, nil)
		testutil.AssertNoError(t, err)

		if category.ID == "" {
			t.Fatal("expected non-empty category ID")
		}
	})

	t.Run("nested_under_same_type_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		userID := uuid.New()

		parent, err := svc.CreateCategory(userID, "Food", models.CategoryTypeExpense, nil)
		testutil.AssertNoError(t, err)

		child, err := svc.CreateCategory(userID, "Restaurants", models.CategoryTypeExpense, &parent.ID)
		testutil.AssertNoError(t, err)
		if child.ParentID == nil || *child.ParentID != parent.ID {
			t.Error("expected child linked to parent")
		}
	})

	t.Run("cross_type_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		userID := uuid.New()

		parent, err := svc.CreateCategory(userID, "Salary", models.CategoryTypeIncome, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(userID, "Groceries", models.CategoryTypeExpense, &parent.ID)
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("null_parent_detaches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		userID := uuid.New()

		parent, err := svc.CreateCategory(userID, "Food", models.CategoryTypeExpense, nil)
		testutil.AssertNoError(t, err)
		child, err := svc.CreateCategory(userID, "Snacks", models.CategoryTypeExpense, &parent.ID)
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateCategory(userID, child.ID, CategoryPatch{ParentID: patch.Null[string]()})
		testutil.AssertNoError(t, err)
		if updated.ParentID != nil {
			t.Error("expected parent cleared")
		}
	})

	t.Run("self_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		userID := uuid.New()

		category, err := svc.CreateCategory(userID, "Loop", models.CategoryTypeExpense, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateCategory(userID, category.ID, CategoryPatch{ParentID: patch.Of(category.ID)})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("live_transaction_blocks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     1000,
			Date:       time.Now(),
		})
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, catSvc.DeleteCategory(userID, category.ID), "CONSTRAINT_VIOLATION")
	})

	t.Run("budget_blocks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		userID := uuid.New()
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, userID, category.ID, 10000)

		testutil.AssertAppError(t, catSvc.DeleteCategory(userID, category.ID), "CONSTRAINT_VIOLATION")
	})

	t.Run("child_blocks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		userID := uuid.New()

		parent, err := catSvc.CreateCategory(userID, "Food", models.CategoryTypeExpense, nil)
		testutil.AssertNoError(t, err)
		_, err = catSvc.CreateCategory(userID, "Snacks", models.CategoryTypeExpense, &parent.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, catSvc.DeleteCategory(userID, parent.ID), "CONSTRAINT_VIOLATION")
	})

	t.Run("unreferenced_category_deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		userID := uuid.New()
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

		testutil.AssertNoError(t, catSvc.DeleteCategory(userID, category.ID))
		_, err := catSvc.GetCategoryByID(userID, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}
