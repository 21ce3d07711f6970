package services

import (
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
)

// The balance engine. A transaction's effect on account balances is always
// applied or reversed through these two functions, inside the caller's
// database transaction. Reversal is the exact algebraic inverse of
// application; an update reverses the old effect and applies the new one
// rather than writing a diff, so repeated cycles round-trip exactly.

func applyEffect(tx *gorm.DB, txn *models.Transaction) error {
	return adjustForTransaction(tx, txn, 1)
}

func reverseEffect(tx *gorm.DB, txn *models.Transaction) error {
	return adjustForTransaction(tx, txn, -1)
}

func adjustForTransaction(tx *gorm.DB, txn *models.Transaction, sign int64) error {
	amount := money.Amount(int64(txn.Amount) * sign)

	switch txn.Type {
	case models.TransactionTypeIncome:
		return adjustBalance(tx, txn.AccountID, amount)
	case models.TransactionTypeExpense:
		return adjustBalance(tx, txn.AccountID, amount.Neg())
	case models.TransactionTypeTransfer:
		if txn.ToAccountID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "transfer requires a destination account")
		}
		// Both legs run in the caller's transaction: they commit together
		// or not at all, and source+destination is conserved.
		if err := adjustBalance(tx, txn.AccountID, amount.Neg()); err != nil {
			return err
		}
		return adjustBalance(tx, *txn.ToAccountID, amount)
	}
	return apperrors.WithMessage(apperrors.ErrValidation, "invalid transaction type")
}

// adjustBalance applies a signed delta with a single atomic UPDATE keyed on
// the account row. There is no read-modify-write, so concurrent posts
// against the same account serialize in the database and cannot clobber
// each other with a stale balance.
func adjustBalance(tx *gorm.DB, accountID string, delta money.Amount) error {
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", int64(delta)))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
