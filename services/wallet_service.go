package services

import (
	"log"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletService owns the internal wallet ledger. Balances move only
// together with an immutable Transaction row, in one transaction.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// Credit adds funds to a hunter's wallet.
func (s *WalletService) Credit(hunterID string, amount float64, category, description, reference string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.creditTx(tx, hunterID, amount, category, description, reference)
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Debit removes funds; the whole enclosing operation fails if the balance
// would go negative.
func (s *WalletService) Debit(hunterID string, amount float64, category, description, reference string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.debitTx(tx, hunterID, amount, category, description, reference)
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *WalletService) creditTx(tx *gorm.DB, hunterID string, amount float64, category, description, reference string) (*models.Transaction, error) {
	return s.applyTx(tx, hunterID, amount, models.TransactionCredit, category, description, reference)
}

func (s *WalletService) debitTx(tx *gorm.DB, hunterID string, amount float64, category, description, reference string) (*models.Transaction, error) {
	return s.applyTx(tx, hunterID, amount, models.TransactionDebit, category, description, reference)
}

func (s *WalletService) applyTx(tx *gorm.DB, hunterID string, amount float64, direction, category, description, reference string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ValidationError("amount must be positive")
	}

	var hunter models.Hunter
	if err := tx.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("hunter %s not found", hunterID)
		}
		return nil, err
	}

	before := hunter.WalletBalance
	after := before
	switch direction {
	case models.TransactionCredit:
		after = before + amount
	case models.TransactionDebit:
		if before < amount {
			return nil, models.PreconditionError("insufficient wallet balance")
		}
		after = before - amount
	default:
		return nil, models.ValidationError("unknown transaction direction %q", direction)
	}

	txn := models.Transaction{
		ID:            uuid.NewString(),
		HunterID:      hunterID,
		Amount:        amount,
		Direction:     direction,
		Category:      category,
		Description:   description,
		Reference:     reference,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Hunter{}).Where("id = ?", hunterID).
		UpdateColumn("wallet_balance", after).Error; err != nil {
		return nil, err
	}

	log.Printf("💰 Wallet %s: hunter=%s %.2f (%s) → balance %.2f",
		direction, hunterID, amount, category, after)
	return &txn, nil
}

// GetTransactions returns a hunter's wallet history, newest first.
func (s *WalletService) GetTransactions(hunterID string, limit int) ([]models.Transaction, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var txns []models.Transaction
	err := s.DB.Where("hunter_id = ?", hunterID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
