package models

import (
	"time"
)

// Pass types — consumable power-ups. Awarded, never purchased.
const (
	PassTypeTimeExtension = "time_extension"
	PassTypeResetFoul     = "reset_foul" // "Clean Slate"
	PassTypeBooster       = "booster"
	PassTypeSeasonal      = "seasonal"
)

// Pass usage actions
const (
	PassActionAwarded  = "awarded"
	PassActionRedeemed = "redeemed"
)

// Pass award sources
const (
	PassSourceBountyWin       = "bounty_win"
	PassSourceConsecutiveWins = "consecutive_wins"
	PassSourceMonthlyGrant    = "monthly_grant"
	PassSourceAdminGrant      = "admin_grant"
)

// HunterPass is the single source of truth for a hunter's pass inventory,
// one row per (hunter, passType). Counts only change together with a
// PassUsage ledger entry, inside one transaction.
type HunterPass struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID string `gorm:"index:idx_hunter_pass,unique;not null" json:"hunter_id"`
	PassType string `gorm:"index:idx_hunter_pass,unique;type:varchar(32);not null" json:"pass_type"`
	Count    int    `json:"count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PassUsage is the immutable award/redemption ledger, carrying the computed
// effect of each redemption.
type PassUsage struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID string  `gorm:"index;not null" json:"hunter_id"`
	PassType string  `gorm:"type:varchar(32);not null" json:"pass_type"`
	Action   string  `gorm:"type:varchar(16);not null" json:"action"`
	BountyID *string `gorm:"index" json:"bounty_id,omitempty"`
	Source   string  `json:"source,omitempty"` // set for awards

	// Effect fields (redemptions only)
	EffectHours   int     `json:"effect_hours,omitempty"`
	BoostPercent  float64 `json:"boost_percent,omitempty"`
	ClearedFoulID *string `json:"cleared_foul_id,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
