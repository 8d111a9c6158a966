package models

import (
	"time"
)

// PerformanceEntry is one per-bounty skill-assessment score for a hunter,
// 0–100. One row per (hunter, bounty); a recompute for the same bounty
// overwrites the row, never duplicates it. The hunter's running
// PerformanceScore is the arithmetic mean of all rows.
type PerformanceEntry struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID string `gorm:"index:idx_hunter_bounty_perf,unique;not null" json:"hunter_id"`
	BountyID string `gorm:"index:idx_hunter_bounty_perf,unique;not null" json:"bounty_id"`

	Score float64 `json:"score"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
