package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"bounty-competition-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResultService orchestrates result posting: the one long batch that
// applies non-submitter fouls, publishes reviews, ranks, awards XP,
// computes performance scores, grants win passes, credits the prize, and
// writes the immutable snapshot — as one logical unit per bounty.
type ResultService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Performance *PerformanceService
	Fouls       *FoulService
	Passes      *PassService
	Wallet      *WalletService
	Notifier    Notifier
}

func NewResultService(db *gorm.DB, progression *ProgressionService, performance *PerformanceService,
	fouls *FoulService, passes *PassService, wallet *WalletService, notifier Notifier) *ResultService {
	return &ResultService{
		DB:          db,
		Progression: progression,
		Performance: performance,
		Fouls:       fouls,
		Passes:      passes,
		Wallet:      wallet,
		Notifier:    notifier,
	}
}

type rankedOutcome struct {
	HunterID         string
	Rank             int
	TotalScore       int
	XPEarned         int64
	PerformanceScore float64
	RewardEarned     float64
	BoosterApplied   bool
}

// PostResult closes the competition for a bounty. It is idempotent on
// Bounty.ResultID: a second attempt is rejected as a conflict and never
// produces a second snapshot or double-applies any XP/wallet/pass change.
func (s *ResultService) PostResult(bountyID, postedBy string) (*models.BountyResult, error) {
	now := time.Now()

	var result *models.BountyResult
	var outcomes []rankedOutcome
	var suspendedNotices []string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}
		if bounty.ResultID != nil {
			return models.ConflictError("result already posted for bounty %s", bountyID)
		}
		if bounty.Status != models.BountyStatusActive && bounty.Status != models.BountyStatusClosed {
			return models.PreconditionError("bounty is %s; result can only follow active or closed", bounty.Status)
		}
		if now.Before(bounty.ResultTime) {
			return models.PreconditionError("result time not reached")
		}

		var participations []models.BountyParticipation
		if err := tx.Preload("Submission").Preload("Submission.Review").
			Where("bounty_id = ? AND status <> ?", bountyID, models.ParticipationWithdrawn).
			Find(&participations).Error; err != nil {
			return err
		}

		// Partition: reviewed vs non-submitters. A submitted-but-unreviewed
		// participation is neither ranked nor fouled.
		var entries []RankedEntry
		reviewByHunter := make(map[string]*models.Review)
		participationByHunter := make(map[string]*models.BountyParticipation)
		var nonSubmitters []models.BountyParticipation
		for i := range participations {
			p := &participations[i]
			if p.Submission == nil || p.Submission.SubmittedAt.IsZero() {
				nonSubmitters = append(nonSubmitters, *p)
				continue
			}
			review := p.Submission.Review
			if review == nil || review.TotalScore < 0 {
				continue
			}
			entries = append(entries, RankedEntry{
				ParticipationID: p.ID,
				HunterID:        p.HunterID,
				TotalScore:      review.TotalScore,
				SubmittedAt:     p.Submission.SubmittedAt,
				JoinedAt:        p.JoinedAt,
			})
			reviewByHunter[p.HunterID] = review
			participationByHunter[p.HunterID] = p
		}
		if len(entries) == 0 {
			return models.PreconditionError("result requires at least one reviewed submission")
		}

		resultID := uuid.NewString()

		// 1. Non-submitter fouls — check-then-act so a retried batch never
		// double-penalizes.
		var nonSubmitterRows []models.BountyNonSubmitter
		for _, p := range nonSubmitters {
			var existing models.FoulRecord
			err := tx.Where("hunter_id = ? AND foul_code = ? AND bounty_id = ?",
				p.HunterID, models.FoulCodeNoSubmission, bountyID).First(&existing).Error
			var foulID string
			switch {
			case err == gorm.ErrRecordNotFound:
				record, aerr := s.Fouls.applyFoulTx(tx, p.HunterID, models.FoulCodeNoSubmission, &bounty.ID, now)
				if aerr != nil {
					return aerr
				}
				foulID = record.ID
			case err != nil:
				return err
			default:
				foulID = existing.ID
			}
			if err := s.Passes.recordNonWinTx(tx, p.HunterID); err != nil {
				return err
			}
			nonSubmitterRows = append(nonSubmitterRows, models.BountyNonSubmitter{
				ID:           uuid.NewString(),
				ResultID:     resultID,
				HunterID:     p.HunterID,
				FoulRecordID: foulID,
			})
		}

		// 2. Publish reviews.
		for _, review := range reviewByHunter {
			if review.ReviewStatus != models.ReviewStatusPublished {
				review.ReviewStatus = models.ReviewStatusPublished
				if err := tx.Save(review).Error; err != nil {
					return err
				}
			}
		}

		// 3. Rank.
		ranked := RankReviewed(entries)

		// Competitor-difficulty weights from the co-participants' tiers.
		weightByHunter := make(map[string]float64, len(ranked))
		var weightSum float64
		for _, entry := range ranked {
			var hunter models.Hunter
			if err := tx.Where("id = ?", entry.HunterID).First(&hunter).Error; err != nil {
				return fmt.Errorf("loading hunter %s: %w", entry.HunterID, err)
			}
			w := TierWeight(hunter.Tier)
			weightByHunter[entry.HunterID] = w
			weightSum += w
		}

		// 4. Per-hunter awards.
		totalParticipants := len(ranked)
		for _, entry := range ranked {
			review := reviewByHunter[entry.HunterID]
			participation := participationByHunter[entry.HunterID]

			xpDelta := ReviewXPDelta(review)
			boosterApplied := false
			if participation.BoosterActive && xpDelta > 0 {
				xpDelta = int64(math.Round(float64(xpDelta) * (1 + BoosterBoostPercent/100.0)))
				boosterApplied = true
			}

			if _, err := s.Progression.awardXPTx(tx, entry.HunterID, xpDelta,
				fmt.Sprintf("bounty_%s_rank_%d", bountyID, entry.Rank)); err != nil {
				return err
			}

			perfScore := 0.0
			if totalParticipants > 1 {
				perfScore = PerformanceScore(xpDelta, entry.Rank, totalParticipants,
					weightByHunter[entry.HunterID], weightSum)
				if err := s.Performance.recordScoreTx(tx, entry.HunterID, bountyID, perfScore); err != nil {
					return err
				}
			}

			reward := 0.0
			if entry.Rank == 1 {
				if err := s.Passes.recordWinAwardsTx(tx, entry.HunterID, bountyID); err != nil {
					return err
				}
				if bounty.RewardPrize > 0 {
					if _, err := s.Wallet.creditTx(tx, entry.HunterID, bounty.RewardPrize,
						models.TransactionCategoryBountyPrize,
						fmt.Sprintf("Prize for winning %q", bounty.Title),
						bounty.ID); err != nil {
						return err
					}
					reward = bounty.RewardPrize
				}
			} else {
				if err := s.Passes.recordNonWinTx(tx, entry.HunterID); err != nil {
					return err
				}
			}

			outcomes = append(outcomes, rankedOutcome{
				HunterID:         entry.HunterID,
				Rank:             entry.Rank,
				TotalScore:       entry.TotalScore,
				XPEarned:         xpDelta,
				PerformanceScore: perfScore,
				RewardEarned:     reward,
				BoosterApplied:   boosterApplied,
			})
		}

		// 5. Snapshot.
		res := models.BountyResult{
			ID:       resultID,
			BountyID: bountyID,
			PostedAt: now,
			PostedBy: postedBy,
		}
		if err := tx.Create(&res).Error; err != nil {
			return err
		}
		for _, o := range outcomes {
			row := models.BountyRanking{
				ID:               uuid.NewString(),
				ResultID:         resultID,
				HunterID:         o.HunterID,
				Rank:             o.Rank,
				TotalScore:       o.TotalScore,
				XPEarned:         o.XPEarned,
				PerformanceScore: o.PerformanceScore,
				RewardEarned:     o.RewardEarned,
				BoosterApplied:   o.BoosterApplied,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for i := range nonSubmitterRows {
			if err := tx.Create(&nonSubmitterRows[i]).Error; err != nil {
				return err
			}
		}

		// 6. Terminal transition: ResultID is set once and never cleared.
		bounty.Status = models.BountyStatusCompleted
		bounty.ResultID = &resultID
		if err := tx.Save(&bounty).Error; err != nil {
			return err
		}

		for _, row := range nonSubmitterRows {
			suspendedNotices = append(suspendedNotices, row.HunterID)
		}
		result = &res
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications after commit, best-effort.
	for _, o := range outcomes {
		title := "Bounty result posted"
		msg := fmt.Sprintf("You placed #%d and earned %d XP.", o.Rank, o.XPEarned)
		if o.Rank == 1 {
			title = "You won the bounty! 🏆"
		}
		s.Notifier.Notify(o.HunterID, title, msg, models.NotificationKindResult, &result.ID)
	}
	for _, hunterID := range suspendedNotices {
		s.Notifier.Notify(hunterID, "No-submission foul",
			"You registered for a bounty but did not submit work before the result was posted.",
			models.NotificationKindFoul, &result.ID)
	}

	log.Printf("🏁 Result posted for bounty %s: %d ranked, %d non-submitters",
		bountyID, len(outcomes), len(suspendedNotices))
	return result, nil
}

// GetResult serves the immutable snapshot; ranking data is never
// recomputed from live participation rows.
func (s *ResultService) GetResult(bountyID string) (*models.BountyResult, error) {
	var bounty models.Bounty
	if err := s.DB.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("bounty %s not found", bountyID)
		}
		return nil, err
	}
	if bounty.ResultID == nil {
		return nil, models.NotFoundError("no result posted for bounty %s", bountyID)
	}

	var result models.BountyResult
	if err := s.DB.Preload("Rankings").Preload("NonSubmitters").
		Where("id = ?", *bounty.ResultID).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// PostDueResults is the scheduled sweep: posts results for closed bounties
// whose result time has passed. Bounties without a reviewed submission are
// skipped (their lords must review first).
func (s *ResultService) PostDueResults() error {
	now := time.Now()
	var bounties []models.Bounty
	if err := s.DB.Where("status = ? AND result_time <= ? AND result_id IS NULL",
		models.BountyStatusClosed, now).Find(&bounties).Error; err != nil {
		return err
	}

	for _, b := range bounties {
		if _, err := s.PostResult(b.ID, "scheduler"); err != nil {
			if models.KindOf(err) == models.ErrKindPrecondition || models.KindOf(err) == models.ErrKindConflict {
				continue
			}
			log.Printf("[Sweep] Failed to post result for bounty %s: %v", b.ID, err)
		}
	}
	return nil
}

// --- Fiber handlers ---

// HandlePostResult: POST /s/bounties/:id/result (lord action)
func (s *ResultService) HandlePostResult(c *fiber.Ctx) error {
	lordID := c.Locals("user_id").(string)
	bountyID := c.Params("id")

	var bounty models.Bounty
	if err := s.DB.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
		return respondError(c, models.NotFoundError("bounty %s not found", bountyID))
	}
	if bounty.LordID != lordID {
		return respondError(c, models.NotFoundError("bounty %s not found", bountyID))
	}

	result, err := s.PostResult(bountyID, lordID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleGetResult: GET /s/bounties/:id/result
func (s *ResultService) HandleGetResult(c *fiber.Ctx) error {
	result, err := s.GetResult(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
