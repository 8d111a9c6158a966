package models

import (
	"time"
)

// Tier names derived from total XP (never set directly)
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// Rank sub-bands within a tier
const (
	RankNovice     = "novice"
	RankSpecialist = "specialist"
	RankMaster     = "master"
)

// Hunter is the local record for a worker account. Identity fields
// (username, avatar) are mirrored from the profile service by the sync
// worker; progression/reputation/wallet fields are owned here.
type Hunter struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string  `gorm:"index" json:"username"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	AccountStatus  string  `gorm:"type:varchar(16);default:'active'" json:"account_status"`

	// Progression — XP is the single accumulator; Tier/Rank are derived on
	// every XP write, never assigned independently.
	XP   int64  `json:"xp" gorm:"default:0"`
	Tier string `gorm:"type:varchar(16);default:'bronze'" json:"tier"`
	Rank string `gorm:"type:varchar(16);default:'novice'" json:"rank"`

	// Reputation
	StrikeCount      int        `json:"strike_count" gorm:"default:0"`
	IsSuspended      bool       `json:"is_suspended" gorm:"default:false"`
	SuspensionEndsAt *time.Time `json:"suspension_ends_at,omitempty"`

	// Wallet — mutated only through the transaction ledger
	WalletBalance float64 `json:"wallet_balance" gorm:"default:0"`

	// Skill assessment (running mean of per-bounty performance entries)
	PerformanceScore   float64 `json:"performance_score" gorm:"default:0"`
	BountiesCalculated int     `json:"bounties_calculated" gorm:"default:0"`

	// Pass award bookkeeping: reset to zero on any non-win
	ConsecutiveWins int `json:"consecutive_wins" gorm:"default:0"`

	Timestamps
}

// SuspensionRecord is an immutable history entry appended when a hunter
// reaches the strike threshold.
type SuspensionRecord struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID         string    `gorm:"index;not null" json:"hunter_id"`
	TriggeringFoulID string    `gorm:"not null" json:"triggering_foul_id"`
	StartedAt        time.Time `json:"started_at"`
	EndsAt           time.Time `json:"ends_at"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}
