package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bounty-competition-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NotificationService serves a hunter's notification feed, including the
// push-style SSE stream of bounty-state changes, results, fouls, and pass
// events. One server-side stream per connection replaces the old
// per-watcher database polling.
type NotificationService struct {
	DB          *gorm.DB
	Progression *ProgressionService
}

func NewNotificationService(db *gorm.DB, progression *ProgressionService) *NotificationService {
	return &NotificationService{DB: db, Progression: progression}
}

// HandleGetNotifications: GET /s/hunters/me/notifications
func (s *NotificationService) HandleGetNotifications(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}

	var notifs []models.Notification
	if err := s.DB.Where("hunter_id = ?", hunter.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(notifs)
}

// HandleMarkViewed: POST /s/hunters/me/notifications/viewed
func (s *NotificationService) HandleMarkViewed(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.DB.Model(&models.Notification{}).
		Where("hunter_id = ? AND viewed = ?", hunter.ID, false).
		Update("viewed", true).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "notifications marked viewed"})
}

// StreamNotificationsSSE streams real-time notifications for the
// authenticated hunter: GET /s/hunters/me/notifications/stream
func (s *NotificationService) StreamNotificationsSSE(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	hunterID := hunter.ID

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxCreatedAt time.Time

		// Initialize cursor
		var latest models.Notification
		if err := s.DB.
			Where("hunter_id = ?", hunterID).
			Order("created_at DESC").
			First(&latest).Error; err == nil {
			lastMaxCreatedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for hunter %s: %v", hunterID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var fresh []models.Notification
				err := s.DB.
					Where("hunter_id = ? AND created_at > ?", hunterID, lastMaxCreatedAt).
					Order("created_at ASC").
					Find(&fresh).Error
				if err != nil {
					log.Printf("SSE query error for hunter %s: %v", hunterID, err)
					continue
				}
				if len(fresh) == 0 {
					continue
				}

				lastMaxCreatedAt = fresh[len(fresh)-1].CreatedAt

				for _, n := range fresh {
					payload, _ := json.Marshal(n)
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
