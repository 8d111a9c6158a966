// workers/hunter_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredProfile matches the JSON response from the profile sync service.
type MirroredProfile struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the sync service response.
type GetProfileChangesResponse struct {
	Users []MirroredProfile `json:"users"`
}

// HunterSyncWorker mirrors identity fields (username, display name, avatar,
// account status) from the profile service into the local hunters table.
// Progression, strike, wallet and pass fields are owned locally and are
// never touched by the sync.
type HunterSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
	titleCaser   cases.Caser
}

func NewHunterSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string) *HunterSyncWorker {
	return &HunterSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		titleCaser: cases.Title(language.English, cases.NoLower),
	}
}

func (w *HunterSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Hunter Sync Worker (profile-service → hunters)…")
	go w.run(ctx)
}

func (w *HunterSyncWorker) run(ctx context.Context) {
	// Initial sync (backfill if needed) - sync from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial hunter sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Hunter sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Hunter Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt from the local hunters table.
func (w *HunterSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM hunters WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// displayName builds a presentable name from the mirrored profile parts,
// falling back to a title-cased username.
func (w *HunterSyncWorker) displayName(p MirroredProfile) string {
	var parts []string
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*p.LastName))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return w.titleCaser.String(p.Username)
}

// syncBatch fetches profile changes from the sync service and upserts the
// identity columns of the local hunters table.
func (w *HunterSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	log.Printf("[SYNC] 📡 Fetching profile changes since=%s (local=%v)", sinceStr, since)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base sync service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}

	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Printf("[SYNC] ❌ Request to %s failed: %v", finalURL, err)
		return fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[SYNC] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		errMsg := string(body)
		log.Printf("[SYNC] ❌ Sync service returned %d for %s: %s", resp.StatusCode, finalURL, errMsg)
		return fmt.Errorf("sync service non-200 response: %d — %s", resp.StatusCode, errMsg)
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.Printf("[SYNC] ❌ Failed to decode JSON response from %s: %v", finalURL, err)
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}

	if len(response.Users) == 0 {
		log.Printf("[SYNC] ✅ No profile changes received since %s", sinceStr)
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d profile(s) from sync service…", len(response.Users))

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		status := remote.AccountStatus
		if status == "" {
			status = "active"
		}

		hunter := models.Hunter{
			ID:             uuid.NewString(),
			ExternalUserID: remote.ExternalID,
			Username:       remote.Username,
			DisplayName:    w.displayName(remote),
			AvatarURL:      remote.ProfilePictureURL,
			AccountStatus:  status,
		}

		// Only identity columns are assignable on conflict — progression
		// and reputation columns must never be overwritten by the mirror.
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "avatar_url", "account_status", "updated_at",
			}),
		}).Create(&hunter).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert hunter (external_id=%q, username=%q): %v",
				remote.ExternalID, remote.Username, err)
		} else {
			upsertCount++
		}
	}

	var latestUpdate time.Time
	var latestUserID string
	for _, u := range response.Users {
		if u.UpdatedAt.After(latestUpdate) {
			latestUpdate = u.UpdatedAt
			latestUserID = u.ExternalID
		}
	}

	if latestUpdate.IsZero() {
		log.Printf("[SYNC] ✅ Synced %d profile(s) (0 updates detected in timestamps)", len(response.Users))
	} else {
		log.Printf("[SYNC] ✅ Synced %d profiles (%d upserted, %d errors). Latest: external_id=%s, updated_at=%v",
			len(response.Users), upsertCount, errorCount, latestUserID, latestUpdate.Format(time.RFC3339))
	}

	return nil
}
