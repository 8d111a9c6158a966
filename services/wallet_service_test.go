package services

import (
	"testing"

	"bounty-competition-system/models"
)

func TestWalletCreditAndDebit(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "wren", 0)

	txn, err := ts.Wallet.Credit(hunter.ID, 250, models.TransactionCategoryBountyPrize, "prize", "bounty-1")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if txn.BalanceBefore != 0 || txn.BalanceAfter != 250 {
		t.Errorf("credit snapshot = %v → %v, want 0 → 250", txn.BalanceBefore, txn.BalanceAfter)
	}

	txn, err = ts.Wallet.Debit(hunter.ID, 100, models.TransactionCategoryWithdrawal, "payout", "w-1")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if txn.BalanceBefore != 250 || txn.BalanceAfter != 150 {
		t.Errorf("debit snapshot = %v → %v, want 250 → 150", txn.BalanceBefore, txn.BalanceAfter)
	}

	if got := reloadHunter(t, ts.DB, hunter.ID).WalletBalance; got != 150 {
		t.Errorf("balance = %v, want 150", got)
	}
}

func TestWalletRejectsOverdraft(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "xani", 0)

	if _, err := ts.Wallet.Credit(hunter.ID, 50, models.TransactionCategoryBountyPrize, "prize", ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	_, err := ts.Wallet.Debit(hunter.ID, 80, models.TransactionCategoryWithdrawal, "payout", "")
	if models.KindOf(err) != models.ErrKindPrecondition {
		t.Fatalf("overdraft: got %v, want precondition error", err)
	}

	// The failed debit must leave no ledger row and no balance change.
	if got := reloadHunter(t, ts.DB, hunter.ID).WalletBalance; got != 50 {
		t.Errorf("balance after failed debit = %v, want 50", got)
	}
	var rows int64
	ts.DB.Model(&models.Transaction{}).Where("hunter_id = ?", hunter.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("ledger rows = %d, want 1", rows)
	}
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "yuri", 0)

	for _, amount := range []float64{0, -25} {
		if _, err := ts.Wallet.Credit(hunter.ID, amount, models.TransactionCategoryAdjustment, "", ""); models.KindOf(err) != models.ErrKindValidation {
			t.Errorf("Credit(%v): got %v, want validation error", amount, err)
		}
		if _, err := ts.Wallet.Debit(hunter.ID, amount, models.TransactionCategoryAdjustment, "", ""); models.KindOf(err) != models.ErrKindValidation {
			t.Errorf("Debit(%v): got %v, want validation error", amount, err)
		}
	}
}
