package models

import (
	"time"
)

// BountyResult is the immutable snapshot written exactly once when a
// bounty's result is posted. Once Bounty.ResultID points here, ranking
// reads must be served from this snapshot, never recomputed from live
// participation rows.
type BountyResult struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	BountyID string    `gorm:"uniqueIndex;not null" json:"bounty_id"`
	PostedAt time.Time `json:"posted_at"`
	PostedBy string    `json:"posted_by"` // lord or "scheduler"

	Rankings      []BountyRanking      `json:"rankings,omitempty" gorm:"foreignKey:ResultID"`
	NonSubmitters []BountyNonSubmitter `json:"non_submitters,omitempty" gorm:"foreignKey:ResultID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BountyRanking is one reviewed hunter's final placement. Rank is the
// 1-based position in the score-descending order; rank 1 is the winner.
type BountyRanking struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ResultID string `gorm:"index;not null" json:"result_id"`
	HunterID string `gorm:"index;not null" json:"hunter_id"`

	Rank             int     `json:"rank"`
	TotalScore       int     `json:"total_score"`
	XPEarned         int64   `json:"xp_earned"`
	PerformanceScore float64 `json:"performance_score"` // 0 when not computed (solo bounty)
	RewardEarned     float64 `json:"reward_earned"`
	BoosterApplied   bool    `json:"booster_applied"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BountyNonSubmitter records a registered hunter who never submitted and
// the no-submission foul applied to them at result time.
type BountyNonSubmitter struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	ResultID     string `gorm:"index;not null" json:"result_id"`
	HunterID     string `gorm:"index;not null" json:"hunter_id"`
	FoulRecordID string `json:"foul_record_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
