package models

import (
	"time"
)

// Notification kinds
const (
	NotificationKindBountyStatus = "bounty_status"
	NotificationKindResult       = "result"
	NotificationKindFoul         = "foul"
	NotificationKindSuspension   = "suspension"
	NotificationKindPass         = "pass"
	NotificationKindWallet       = "wallet"
)

// Notification is written best-effort; delivery is not part of the core's
// correctness. The SSE stream reads new rows per hunter.
type Notification struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID string `gorm:"index;not null" json:"hunter_id"`

	Title     string  `gorm:"not null" json:"title"`
	Message   string  `gorm:"type:text" json:"message"`
	Kind      string  `gorm:"type:varchar(32);not null" json:"kind"`
	RelatedID *string `json:"related_id,omitempty"`
	Viewed    bool    `json:"viewed" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
