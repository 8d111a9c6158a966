package services

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bounty-competition-system/models"
	"bounty-competition-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type BountyService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Fouls       *FoulService
	Notifier    Notifier
}

func NewBountyService(db *gorm.DB, progression *ProgressionService, fouls *FoulService, notifier Notifier) *BountyService {
	return &BountyService{DB: db, Progression: progression, Fouls: fouls, Notifier: notifier}
}

// BountyInput carries the lord-editable fields.
type BountyInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Category     string    `json:"category"`
	RewardPrize  float64   `json:"reward_prize"`
	MaxHunters   int       `json:"max_hunters"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ResultTime   time.Time `json:"result_time"`
	MainPhotoURL string    `json:"main_photo_url"`
}

// CreateDraft creates a bounty in draft; drafts may be freely edited or
// deleted by their creator.
func (s *BountyService) CreateDraft(lordID string, input BountyInput) (*models.Bounty, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, models.ValidationError("title is required")
	}
	if input.RewardPrize < 0 {
		return nil, models.ValidationError("reward_prize must be >= 0")
	}

	bounty := models.Bounty{
		ID:           uuid.NewString(),
		LordID:       lordID,
		Title:        input.Title,
		Slug:         slug.Make(input.Title),
		Description:  input.Description,
		Requirements: input.Requirements,
		Category:     input.Category,
		RewardPrize:  input.RewardPrize,
		MaxHunters:   input.MaxHunters,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		ResultTime:   input.ResultTime,
		MainPhotoURL: input.MainPhotoURL,
		Status:       models.BountyStatusDraft,
	}
	if err := s.DB.Create(&bounty).Error; err != nil {
		return nil, err
	}
	return &bounty, nil
}

func (s *BountyService) ownedBounty(tx *gorm.DB, lordID, bountyID string) (*models.Bounty, error) {
	var bounty models.Bounty
	if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("bounty %s not found", bountyID)
		}
		return nil, err
	}
	if bounty.LordID != lordID {
		return nil, models.NotFoundError("bounty %s not found", bountyID)
	}
	return &bounty, nil
}

// UpdateDraft applies structural edits; any status other than draft
// forbids them.
func (s *BountyService) UpdateDraft(lordID, bountyID string, input BountyInput) (*models.Bounty, error) {
	var updated *models.Bounty
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bounty, err := s.ownedBounty(tx, lordID, bountyID)
		if err != nil {
			return err
		}
		if bounty.Status != models.BountyStatusDraft {
			return models.PreconditionError("only draft bounties can be edited")
		}

		bounty.Title = input.Title
		bounty.Slug = slug.Make(input.Title)
		bounty.Description = input.Description
		bounty.Requirements = input.Requirements
		bounty.Category = input.Category
		bounty.RewardPrize = input.RewardPrize
		bounty.MaxHunters = input.MaxHunters
		bounty.StartTime = input.StartTime
		bounty.EndTime = input.EndTime
		bounty.ResultTime = input.ResultTime
		if input.MainPhotoURL != "" {
			bounty.MainPhotoURL = input.MainPhotoURL
		}

		if err := tx.Save(bounty).Error; err != nil {
			return err
		}
		updated = bounty
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDraft removes a draft; published bounties cannot be deleted, only
// cancelled.
func (s *BountyService) DeleteDraft(lordID, bountyID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		bounty, err := s.ownedBounty(tx, lordID, bountyID)
		if err != nil {
			return err
		}
		if bounty.Status != models.BountyStatusDraft {
			return models.PreconditionError("only draft bounties can be deleted")
		}
		return tx.Delete(bounty).Error
	})
}

// Publish validates the fixed required-field set and moves the bounty to
// active (start time already passed) or yts (scheduled activation).
// Missing fields are reported by name.
func (s *BountyService) Publish(lordID, bountyID string) (*models.Bounty, error) {
	now := time.Now()
	var published *models.Bounty
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bounty, err := s.ownedBounty(tx, lordID, bountyID)
		if err != nil {
			return err
		}
		if bounty.Status != models.BountyStatusDraft {
			return models.PreconditionError("bounty is already published")
		}

		var missing []string
		if strings.TrimSpace(bounty.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(bounty.Description) == "" {
			missing = append(missing, "description")
		}
		if bounty.MaxHunters <= 0 {
			missing = append(missing, "max_hunters")
		}
		if bounty.StartTime.IsZero() {
			missing = append(missing, "start_time")
		}
		if bounty.EndTime.IsZero() {
			missing = append(missing, "end_time")
		}
		if bounty.ResultTime.IsZero() {
			missing = append(missing, "result_time")
		}
		if len(missing) > 0 {
			return models.ValidationError("missing required fields: %s", strings.Join(missing, ", "))
		}
		if !bounty.StartTime.Before(bounty.EndTime) || !bounty.EndTime.Before(bounty.ResultTime) {
			return models.ValidationError("times must satisfy start_time < end_time < result_time")
		}

		if now.Before(bounty.StartTime) {
			bounty.Status = models.BountyStatusYTS
		} else {
			bounty.Status = models.BountyStatusActive
		}

		if err := tx.Save(bounty).Error; err != nil {
			return err
		}
		published = bounty
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("📣 Bounty published: %s (%s) → %s", published.Title, published.ID, published.Status)
	return published, nil
}

// Cancel terminates a bounty before its result is posted.
func (s *BountyService) Cancel(lordID, bountyID string) (*models.Bounty, error) {
	var cancelled *models.Bounty
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bounty, err := s.ownedBounty(tx, lordID, bountyID)
		if err != nil {
			return err
		}
		switch bounty.Status {
		case models.BountyStatusCompleted:
			return models.PreconditionError("result already posted")
		case models.BountyStatusCancelled:
			return models.PreconditionError("bounty is already cancelled")
		}
		bounty.Status = models.BountyStatusCancelled
		if err := tx.Save(bounty).Error; err != nil {
			return err
		}
		cancelled = bounty
		return nil
	})
	if err != nil {
		return nil, err
	}

	var hunterIDs []string
	s.DB.Model(&models.BountyParticipation{}).
		Where("bounty_id = ? AND status <> ?", bountyID, models.ParticipationWithdrawn).
		Pluck("hunter_id", &hunterIDs)
	for _, id := range hunterIDs {
		s.Notifier.Notify(id, "Bounty cancelled",
			fmt.Sprintf("The bounty %q was cancelled by its lord.", cancelled.Title),
			models.NotificationKindBountyStatus, &cancelled.ID)
	}
	return cancelled, nil
}

// Join adds a hunter to an active bounty's roster.
func (s *BountyService) Join(hunterID, bountyID string) (*models.BountyParticipation, error) {
	now := time.Now()
	var participation *models.BountyParticipation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}
		if bounty.Status != models.BountyStatusActive {
			return models.PreconditionError("bounty is not open for joining (status: %s)", bounty.Status)
		}

		var hunter models.Hunter
		if err := tx.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("hunter %s not found", hunterID)
			}
			return err
		}
		if hunter.IsSuspended && hunter.SuspensionEndsAt != nil && hunter.SuspensionEndsAt.After(now) {
			return models.PreconditionError("hunter is suspended until %s",
				hunter.SuspensionEndsAt.Format(time.RFC3339))
		}

		var existing int64
		if err := tx.Model(&models.BountyParticipation{}).
			Where("bounty_id = ? AND hunter_id = ?", bountyID, hunterID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.PreconditionError("hunter already joined this bounty")
		}

		if bounty.MaxHunters > 0 {
			var roster int64
			if err := tx.Model(&models.BountyParticipation{}).
				Where("bounty_id = ? AND status <> ?", bountyID, models.ParticipationWithdrawn).
				Count(&roster).Error; err != nil {
				return err
			}
			if roster >= int64(bounty.MaxHunters) {
				return models.PreconditionError("bounty roster is full")
			}
		}

		p := models.BountyParticipation{
			ID:       uuid.NewString(),
			BountyID: bountyID,
			HunterID: hunterID,
			JoinedAt: now,
			Status:   models.ParticipationActive,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		participation = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participation, nil
}

// Withdraw removes a hunter from a roster before they submit. Withdrawing
// before the bounty goes live records the zero-penalty "quits before live"
// foul; abandoning a live bounty records the medium-severity one.
func (s *BountyService) Withdraw(hunterID, bountyID string) error {
	var foulCode string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}

		var participation models.BountyParticipation
		if err := tx.Where("bounty_id = ? AND hunter_id = ?", bountyID, hunterID).
			First(&participation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("hunter is not on this bounty's roster")
			}
			return err
		}
		if participation.Status != models.ParticipationActive {
			return models.PreconditionError("participation is %s", participation.Status)
		}

		var submitted int64
		if err := tx.Model(&models.Submission{}).
			Where("participation_id = ?", participation.ID).
			Count(&submitted).Error; err != nil {
			return err
		}
		if submitted > 0 {
			return models.PreconditionError("cannot withdraw after submitting")
		}

		participation.Status = models.ParticipationWithdrawn
		if err := tx.Save(&participation).Error; err != nil {
			return err
		}

		switch bounty.Status {
		case models.BountyStatusYTS:
			foulCode = models.FoulCodeQuitsBeforeLive
		case models.BountyStatusActive:
			foulCode = models.FoulCodeAbandonsBounty
		}
		if foulCode != "" {
			if _, err := s.Fouls.applyFoulTx(tx, hunterID, foulCode, &bountyID, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// Submit records a hunter's work. Submissions are immutable once created;
// the personal deadline (time-extension pass) is honored.
func (s *BountyService) Submit(hunterID, bountyID, description string, files []models.SubmissionFile) (*models.Submission, error) {
	now := time.Now()
	var submission *models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}
		if bounty.Status != models.BountyStatusActive && bounty.Status != models.BountyStatusClosed {
			return models.PreconditionError("bounty is not accepting submissions (status: %s)", bounty.Status)
		}

		var participation models.BountyParticipation
		if err := tx.Where("bounty_id = ? AND hunter_id = ?", bountyID, hunterID).
			First(&participation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("hunter is not on this bounty's roster")
			}
			return err
		}
		if participation.Status != models.ParticipationActive {
			return models.PreconditionError("participation is %s", participation.Status)
		}
		if now.After(participation.EffectiveDeadline(bounty.EndTime)) {
			return models.PreconditionError("submission deadline has passed")
		}

		var existing int64
		if err := tx.Model(&models.Submission{}).
			Where("participation_id = ?", participation.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.PreconditionError("work already submitted; submissions are immutable")
		}

		sub := models.Submission{
			ID:              uuid.NewString(),
			ParticipationID: participation.ID,
			Description:     description,
			SubmittedAt:     now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		for i := range files {
			files[i].ID = uuid.NewString()
			files[i].SubmissionID = sub.ID
			files[i].SortOrder = i
			if err := tx.Create(&files[i]).Error; err != nil {
				return err
			}
		}

		participation.Status = models.ParticipationCompleted
		if err := tx.Save(&participation).Error; err != nil {
			return err
		}

		sub.Files = files
		submission = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// ActivateDueBounties advances yts bounties whose start time has passed.
// Bulk and idempotent: only bounties whose time condition already holds.
func (s *BountyService) ActivateDueBounties() error {
	now := time.Now()
	var bounties []models.Bounty
	if err := s.DB.Where("status = ? AND start_time <= ?", models.BountyStatusYTS, now).
		Find(&bounties).Error; err != nil {
		return err
	}
	for _, b := range bounties {
		if err := s.DB.Model(&models.Bounty{}).
			Where("id = ? AND status = ?", b.ID, models.BountyStatusYTS).
			Update("status", models.BountyStatusActive).Error; err != nil {
			log.Printf("[Sweep] Failed to activate bounty %s: %v", b.ID, err)
			continue
		}
		log.Printf("✅ Auto-activated bounty: %s", b.Title)
	}
	return nil
}

// CloseExpiredBounties closes active bounties past their end time, waiting
// out any participant's personal extended deadline.
func (s *BountyService) CloseExpiredBounties() error {
	now := time.Now()
	var bounties []models.Bounty
	if err := s.DB.Where("status = ? AND end_time <= ?", models.BountyStatusActive, now).
		Find(&bounties).Error; err != nil {
		return err
	}

	for _, b := range bounties {
		var pending int64
		if err := s.DB.Model(&models.BountyParticipation{}).
			Where("bounty_id = ? AND extended_end_time > ?", b.ID, now).
			Count(&pending).Error; err != nil {
			log.Printf("[Sweep] Extension check failed for bounty %s: %v", b.ID, err)
			continue
		}
		if pending > 0 {
			continue // someone's personal deadline is still open
		}
		if err := s.DB.Model(&models.Bounty{}).
			Where("id = ? AND status = ?", b.ID, models.BountyStatusActive).
			Update("status", models.BountyStatusClosed).Error; err != nil {
			log.Printf("[Sweep] Failed to close bounty %s: %v", b.ID, err)
			continue
		}
		log.Printf("✅ Auto-closed bounty: %s", b.Title)
	}
	return nil
}

// --- Fiber handlers ---

func (s *BountyService) parseInput(c *fiber.Ctx) (BountyInput, error) {
	var input BountyInput

	input.Title = c.FormValue("title")
	input.Description = c.FormValue("description")
	input.Requirements = c.FormValue("requirements")
	input.Category = c.FormValue("category")

	if v := c.FormValue("reward_prize"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return input, models.ValidationError("reward_prize must be a non-negative number")
		}
		input.RewardPrize = f
	}
	if v := c.FormValue("max_hunters"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return input, models.ValidationError("max_hunters must be a non-negative integer")
		}
		input.MaxHunters = n
	}

	parseTime := func(name string) (time.Time, error) {
		v := c.FormValue(name)
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, models.ValidationError("invalid %s (use RFC3339)", name)
		}
		return t, nil
	}
	var err error
	if input.StartTime, err = parseTime("start_time"); err != nil {
		return input, err
	}
	if input.EndTime, err = parseTime("end_time"); err != nil {
		return input, err
	}
	if input.ResultTime, err = parseTime("result_time"); err != nil {
		return input, err
	}

	// Optional main photo → R2
	if photo, ferr := c.FormFile("main_photo"); ferr == nil && photo.Size > 0 {
		ext := filepath.Ext(photo.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "bounties/main/" + uuid.NewString() + ext
		url, uerr := utils.UploadFileToR2(photo, key)
		if uerr != nil {
			return input, fmt.Errorf("uploading main photo: %w", uerr)
		}
		input.MainPhotoURL = url
	}

	return input, nil
}

// HandleCreateBounty: POST /s/bounties
func (s *BountyService) HandleCreateBounty(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	input, err := s.parseInput(c)
	if err != nil {
		return respondError(c, err)
	}
	bounty, err := s.CreateDraft(lordID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bounty)
}

// HandleUpdateBounty: PUT /s/bounties/:id
func (s *BountyService) HandleUpdateBounty(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	input, err := s.parseInput(c)
	if err != nil {
		return respondError(c, err)
	}
	bounty, err := s.UpdateDraft(lordID, c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bounty)
}

// HandleDeleteBounty: DELETE /s/bounties/:id
func (s *BountyService) HandleDeleteBounty(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	if err := s.DeleteDraft(lordID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "bounty deleted"})
}

// HandlePublishBounty: POST /s/bounties/:id/publish
func (s *BountyService) HandlePublishBounty(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	bounty, err := s.Publish(lordID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bounty)
}

// HandleCancelBounty: POST /s/bounties/:id/cancel
func (s *BountyService) HandleCancelBounty(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	bounty, err := s.Cancel(lordID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bounty)
}

// HandleJoinBounty: POST /s/bounties/:id/join
func (s *BountyService) HandleJoinBounty(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.EnsureHunter(externalID)
	if err != nil {
		return respondError(c, err)
	}
	participation, err := s.Join(hunter.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(participation)
}

// HandleWithdrawBounty: POST /s/bounties/:id/withdraw
func (s *BountyService) HandleWithdrawBounty(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Withdraw(hunter.ID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "withdrawn"})
}

// HandleSubmitWork: POST /s/bounties/:id/submit (multipart, up to 10 files)
func (s *BountyService) HandleSubmitWork(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}

	bountyID := c.Params("id")
	description := c.FormValue("description")

	var files []models.SubmissionFile
	for i := 0; i < 10; i++ {
		field := fmt.Sprintf("files[%d]", i)
		fh, ferr := c.FormFile(field)
		if ferr != nil || fh.Size == 0 {
			continue
		}
		url, uerr := utils.UploadSubmissionFile(fh, bountyID)
		if uerr != nil {
			log.Printf("❌ Submission file upload failed: %v", uerr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("failed to upload file %d", i+1)})
		}
		files = append(files, models.SubmissionFile{URL: url, FileName: fh.Filename})
	}

	submission, err := s.Submit(hunter.ID, bountyID, description, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}

// HandleGetPublishedBounties: GET /bounties/published
func (s *BountyService) HandleGetPublishedBounties(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var bounties []models.Bounty
	q := s.DB.Where("status IN ?", []string{
		models.BountyStatusYTS, models.BountyStatusActive,
		models.BountyStatusClosed, models.BountyStatusCompleted,
	})
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if err := q.Order("start_time DESC").Limit(limit).Find(&bounties).Error; err != nil {
		return respondError(c, err)
	}

	minis := make([]models.MiniBounty, len(bounties))
	for i, b := range bounties {
		minis[i] = models.MiniBounty{
			ID:           b.ID,
			Title:        b.Title,
			Slug:         b.Slug,
			Status:       b.Status,
			Category:     b.Category,
			RewardPrize:  b.RewardPrize,
			MaxHunters:   b.MaxHunters,
			MainPhotoURL: b.MainPhotoURL,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			ResultTime:   b.ResultTime,
			CreatedAt:    b.CreatedAt,
		}
	}
	return c.JSON(minis)
}

// HandleGetBounty: GET /s/bounties/:id
func (s *BountyService) HandleGetBounty(c *fiber.Ctx) error {
	var bounty models.Bounty
	if err := s.DB.Preload("Participations").Where("id = ?", c.Params("id")).
		First(&bounty).Error; err != nil {
		return respondError(c, err)
	}

	s.DB.Model(&models.BountyParticipation{}).
		Where("bounty_id = ? AND status <> ?", bounty.ID, models.ParticipationWithdrawn).
		Count(&bounty.ParticipantsCount)
	if bounty.MaxHunters > 0 {
		bounty.AvailableSlots = int64(bounty.MaxHunters) - bounty.ParticipantsCount
		if bounty.AvailableSlots < 0 {
			bounty.AvailableSlots = 0
		}
	}
	return c.JSON(bounty)
}

// HandleGetMyBounties: GET /s/bounties/mine (lord view)
func (s *BountyService) HandleGetMyBounties(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	var bounties []models.Bounty
	if err := s.DB.Where("lord_id = ?", lordID).
		Order("created_at DESC").Find(&bounties).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(bounties)
}
