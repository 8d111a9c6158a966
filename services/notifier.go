package services

import (
	"log"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier is fire-and-forget: implementations must never fail the caller's
// transition. Delivery is best-effort.
type Notifier interface {
	Notify(hunterID, title, message, kind string, relatedID *string)
}

// DBNotifier persists notifications for the SSE stream to pick up.
type DBNotifier struct {
	DB *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{DB: db}
}

func (n *DBNotifier) Notify(hunterID, title, message, kind string, relatedID *string) {
	notif := models.Notification{
		ID:        uuid.NewString(),
		HunterID:  hunterID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		RelatedID: relatedID,
	}
	if err := n.DB.Create(&notif).Error; err != nil {
		log.Printf("⚠️ Failed to write notification for hunter %s: %v", hunterID, err)
	}
}

// NopNotifier discards all notifications (tests, tooling).
type NopNotifier struct{}

func (NopNotifier) Notify(hunterID, title, message, kind string, relatedID *string) {}
