package services

import (
	"strings"
	"time"

	"bounty-competition-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// ReviewScores is the five-criterion input, each in [0,5].
type ReviewScores struct {
	AdherenceToBrief      int `json:"adherence_to_brief"`
	ConceptualThinking    int `json:"conceptual_thinking"`
	TechnicalExecution    int `json:"technical_execution"`
	OriginalityCreativity int `json:"originality_creativity"`
	Documentation         int `json:"documentation"`
}

func (rs ReviewScores) validate() error {
	var bad []string
	check := func(name string, v int) {
		if v < models.ReviewScoreMin || v > models.ReviewScoreMax {
			bad = append(bad, name)
		}
	}
	check("adherence_to_brief", rs.AdherenceToBrief)
	check("conceptual_thinking", rs.ConceptualThinking)
	check("technical_execution", rs.TechnicalExecution)
	check("originality_creativity", rs.OriginalityCreativity)
	check("documentation", rs.Documentation)
	if len(bad) > 0 {
		return models.ValidationError("scores out of range [0,5]: %s", strings.Join(bad, ", "))
	}
	return nil
}

func (rs ReviewScores) total() int {
	return rs.AdherenceToBrief + rs.ConceptualThinking + rs.TechnicalExecution +
		rs.OriginalityCreativity + rs.Documentation
}

// ReviewSubmission records (or re-records) the lord's draft review of one
// hunter's submission. Only the bounty's lord may review, only while
// now < resultTime, and only once a submission exists. The review stays in
// draft until the result is posted.
func (s *ReviewService) ReviewSubmission(lordID, bountyID, hunterID string, scores ReviewScores) (*models.Review, error) {
	now := time.Now()

	if err := scores.validate(); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}
		if bounty.LordID != lordID {
			return models.PreconditionError("only the bounty's lord may review submissions")
		}
		if !now.Before(bounty.ResultTime) {
			return models.PreconditionError("review window closed at result time")
		}
		if bounty.ResultID != nil {
			return models.PreconditionError("result already posted")
		}

		var participation models.BountyParticipation
		if err := tx.Where("bounty_id = ? AND hunter_id = ?", bountyID, hunterID).
			First(&participation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("hunter is not on this bounty's roster")
			}
			return err
		}

		var submission models.Submission
		if err := tx.Where("participation_id = ?", participation.ID).
			First(&submission).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.PreconditionError("hunter has not submitted work yet")
			}
			return err
		}
		if submission.SubmittedAt.IsZero() {
			// A submission without submittedAt may never carry a review.
			return models.PreconditionError("hunter has not submitted work yet")
		}

		var existing models.Review
		err := tx.Where("submission_id = ?", submission.ID).First(&existing).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			existing = models.Review{
				ID:           uuid.NewString(),
				SubmissionID: submission.ID,
				ReviewStatus: models.ReviewStatusDraft,
			}
		case err != nil:
			return err
		default:
			if existing.ReviewStatus == models.ReviewStatusPublished {
				return models.PreconditionError("published reviews are immutable")
			}
		}

		existing.AdherenceToBrief = scores.AdherenceToBrief
		existing.ConceptualThinking = scores.ConceptualThinking
		existing.TechnicalExecution = scores.TechnicalExecution
		existing.OriginalityCreativity = scores.OriginalityCreativity
		existing.Documentation = scores.Documentation
		existing.TotalScore = scores.total()
		existing.ReviewedBy = lordID
		existing.ReviewedAt = now

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		review = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// GetPublishedReview returns a hunter's own review, only after publication.
// Draft reviews are never exposed to hunters.
func (s *ReviewService) GetPublishedReview(hunterID, bountyID string) (*models.Review, error) {
	var participation models.BountyParticipation
	if err := s.DB.Where("bounty_id = ? AND hunter_id = ?", bountyID, hunterID).
		First(&participation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("no participation for this bounty")
		}
		return nil, err
	}

	var submission models.Submission
	if err := s.DB.Where("participation_id = ?", participation.ID).First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("no submission for this bounty")
		}
		return nil, err
	}

	var review models.Review
	if err := s.DB.Where("submission_id = ? AND review_status = ?",
		submission.ID, models.ReviewStatusPublished).First(&review).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("no published review for this bounty")
		}
		return nil, err
	}
	return &review, nil
}

// --- Fiber handlers ---

// HandleReviewSubmission: POST /s/bounties/:id/submissions/:hunter_id/review
func (s *ReviewService) HandleReviewSubmission(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	bountyID := c.Params("id")
	hunterID := c.Params("hunter_id")

	var scores ReviewScores
	if err := c.BodyParser(&scores); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	review, err := s.ReviewSubmission(lordID, bountyID, hunterID, scores)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

// HandleGetMyReview: GET /s/bounties/:id/my-review (hunter view, published only)
func (s *ReviewService) HandleGetMyReview(c *fiber.Ctx, progression *ProgressionService) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	review, err := s.GetPublishedReview(hunter.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}
