package models

import (
	"time"
)

// Transaction directions
const (
	TransactionCredit = "credit"
	TransactionDebit  = "debit"
)

// Transaction categories
const (
	TransactionCategoryBountyPrize = "bounty_prize"
	TransactionCategoryRefund      = "refund"
	TransactionCategoryAdjustment  = "adjustment"
	TransactionCategoryWithdrawal  = "withdrawal"
)

// Transaction is an immutable wallet ledger entry. BalanceBefore/After are
// computed at creation time and never revised.
type Transaction struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID string `gorm:"index;not null" json:"hunter_id"`

	Amount      float64 `gorm:"not null" json:"amount"` // always positive; Direction carries the sign
	Direction   string  `gorm:"type:varchar(8);not null" json:"direction"`
	Category    string  `gorm:"type:varchar(32);not null" json:"category"`
	Description string  `json:"description"`
	Reference   string  `gorm:"index" json:"reference"` // e.g. bounty id

	BalanceBefore float64 `json:"balance_before"`
	BalanceAfter  float64 `json:"balance_after"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
