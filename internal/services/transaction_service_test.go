package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
	"fintrack/internal/uuid"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("income_increases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:   account.ID,
			Type:        models.TransactionTypeIncome,
			Amount:      5000,
			Description: "Salary",
			Date:        time.Now(),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		if tx.Amount != 5000 {
			t.Errorf("expected amount 5000, got %d", tx.Amount)
		}

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 5000 {
			t.Errorf("expected balance 5000, got %d", updated.Balance)
		}
	})

	t.Run("expense_decreases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:   account.ID,
			Type:        models.TransactionTypeExpense,
			Amount:      3000,
			Description: "Lunch",
			Date:        time.Now(),
		})
		testutil.AssertNoError(t, err)

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 7000 {
			t.Errorf("expected balance 7000, got %d", updated.Balance)
		}
	})

	t.Run("transfer_conserves_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		source := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)
		dest := testutil.CreateTestAccountWithBalance(t, db, userID, 2000)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:   source.ID,
			ToAccountID: &dest.ID,
			Type:        models.TransactionTypeTransfer,
			Amount:      4000,
			Date:        time.Now(),
		})
		testutil.AssertNoError(t, err)

		updatedSource, err := acctSvc.GetAccountByID(userID, source.ID)
		testutil.AssertNoError(t, err)
		updatedDest, err := acctSvc.GetAccountByID(userID, dest.ID)
		testutil.AssertNoError(t, err)

		if updatedSource.Balance != 6000 {
			t.Errorf("expected source balance 6000, got %d", updatedSource.Balance)
		}
		if updatedDest.Balance != 6000 {
			t.Errorf("expected dest balance 6000, got %d", updatedDest.Balance)
		}
		if updatedSource.Balance+updatedDest.Balance != 12000 {
			t.Errorf("transfer must conserve total balance, got %d", updatedSource.Balance+updatedDest.Balance)
		}
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    0,
			Date:      time.Now(),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("transfer_to_same_account_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:   account.ID,
			ToAccountID: &account.ID,
			Type:        models.TransactionTypeTransfer,
			Amount:      1000,
			Date:        time.Now(),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("transfer_without_destination_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeTransfer,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("destination_on_expense_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)
		other := testutil.CreateTestAccount(t, db, userID)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:   account.ID,
			ToAccountID: &other.ID,
			Type:        models.TransactionTypeExpense,
			Amount:      1000,
			Date:        time.Now(),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("unowned_account_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		otherUser := uuid.New()
		account := testutil.CreateTestAccount(t, db, otherUser)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("unknown_category_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)
		missing := uuid.New()

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &missing,
			Type:       models.TransactionTypeExpense,
			Amount:     1000,
			Date:       time.Now(),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_change_rebalances_exactly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    3000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		newAmount := money.Amount(1000)
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Amount: &newAmount})
		testutil.AssertNoError(t, err)

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 9000 {
			t.Errorf("expected balance 9000 after update, got %d", updated.Balance)
		}
	})

	t.Run("type_flip_reverses_and_reapplies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    2000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		income := models.TransactionTypeIncome
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Type: &income})
		testutil.AssertNoError(t, err)

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 12000 {
			t.Errorf("expected balance 12000 after flip to income, got %d", updated.Balance)
		}
	})

	t.Run("account_move_shifts_effect", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		first := testutil.CreateTestAccountWithBalance(t, db, userID, 5000)
		second := testutil.CreateTestAccountWithBalance(t, db, userID, 5000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: first.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{AccountID: &second.ID})
		testutil.AssertNoError(t, err)

		updatedFirst, err := acctSvc.GetAccountByID(userID, first.ID)
		testutil.AssertNoError(t, err)
		updatedSecond, err := acctSvc.GetAccountByID(userID, second.ID)
		testutil.AssertNoError(t, err)

		if updatedFirst.Balance != 5000 {
			t.Errorf("expected first account restored to 5000, got %d", updatedFirst.Balance)
		}
		if updatedSecond.Balance != 4000 {
			t.Errorf("expected second account at 4000, got %d", updatedSecond.Balance)
		}
	})

	t.Run("invalid_update_leaves_balance_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    3000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		bad := money.Amount(0)
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Amount: &bad})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 7000 {
			t.Errorf("expected balance 7000 unchanged, got %d", updated.Balance)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("delete_restores_pre_create_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    2500,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		newAmount := money.Amount(4000)
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Amount: &newAmount})
		testutil.AssertNoError(t, err)

		err = txSvc.DeleteTransaction(userID, tx.ID)
		testutil.AssertNoError(t, err)

		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 10000 {
			t.Errorf("expected balance restored to 10000, got %d", updated.Balance)
		}
	})

	t.Run("deleted_transaction_reports_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		err = txSvc.DeleteTransaction(userID, tx.ID)
		testutil.AssertNoError(t, err)

		_, err = txSvc.GetTransactionByID(userID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("deleted_transaction_cannot_be_deleted_again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 5000)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, txSvc.DeleteTransaction(userID, tx.ID))
		testutil.AssertAppError(t, txSvc.DeleteTransaction(userID, tx.ID), "TRANSACTION_NOT_FOUND")

		// Double delete must not reverse the effect twice.
		updated, err := acctSvc.GetAccountByID(userID, account.ID)
		testutil.AssertNoError(t, err)
		if updated.Balance != 5000 {
			t.Errorf("expected balance 5000, got %d", updated.Balance)
		}
	})

	t.Run("deleted_transaction_cannot_be_updated", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccount(t, db, userID)

		tx, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, txSvc.DeleteTransaction(userID, tx.ID))

		amount := money.Amount(2000)
		_, err = txSvc.UpdateTransaction(userID, tx.ID, TransactionPatch{Amount: &amount})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("excludes_tombstones_and_filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, acctSvc, NewBudgetService(db))
		userID := uuid.New()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, 10000)

		kept, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    1000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)

		deleted, err := txSvc.CreateTransaction(userID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    2000,
			Date:      time.Now(),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, txSvc.DeleteTransaction(userID, deleted.ID))

		expense := models.TransactionTypeExpense
		page, err := txSvc.GetUserTransactions(userID, pagination.PageRequest{}, TransactionFilter{Type: &expense})
		testutil.AssertNoError(t, err)

		if len(page.Data) != 1 {
			t.Fatalf("expected 1 live transaction, got %d", len(page.Data))
		}
		if page.Data[0].ID != kept.ID {
			t.Errorf("expected transaction %s, got %s", kept.ID, page.Data[0].ID)
		}
	})
}
