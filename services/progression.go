package services

import (
	"fmt"
	"log"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Each review criterion is worth 100 XP per point; 3 is the reward
// threshold. A criterion scored at 0–2 costs (3 − score) × 100.
const (
	xpPerCriterionPoint  = 100
	criterionRewardFloor = 3
)

// Tier/rank XP breakpoints. These are hardcoded wire-contract constants,
// not derived from tier widths.
type levelBand struct {
	MinXP int64
	Tier  string
	Rank  string
}

var levelBands = []levelBand{
	{62000, models.TierGold, models.RankMaster},
	{52000, models.TierGold, models.RankSpecialist},
	{42000, models.TierGold, models.RankNovice},
	{34000, models.TierSilver, models.RankMaster},
	{26000, models.TierSilver, models.RankSpecialist},
	{18000, models.TierSilver, models.RankNovice},
	{12000, models.TierBronze, models.RankMaster},
	{6000, models.TierBronze, models.RankSpecialist},
	{0, models.TierBronze, models.RankNovice},
}

// LevelForXP derives tier and rank purely from total XP. Negative XP maps
// to the bottom of the ladder.
func LevelForXP(xp int64) (tier, rank string) {
	for _, band := range levelBands {
		if xp >= band.MinXP {
			return band.Tier, band.Rank
		}
	}
	return models.TierBronze, models.RankNovice
}

// ReviewXPDelta computes the XP change a published review grants: per
// criterion, score ≥ 3 earns score×100 and score ≤ 2 costs (3−score)×100.
func ReviewXPDelta(r *models.Review) int64 {
	var delta int64
	for _, score := range r.CriterionScores() {
		if score >= criterionRewardFloor {
			delta += int64(score * xpPerCriterionPoint)
		} else {
			delta -= int64((criterionRewardFloor - score) * xpPerCriterionPoint)
		}
	}
	return delta
}

type ProgressionService struct {
	DB          *gorm.DB
	Leaderboard *LeaderboardService
}

func NewProgressionService(db *gorm.DB, leaderboard *LeaderboardService) *ProgressionService {
	return &ProgressionService{DB: db, Leaderboard: leaderboard}
}

// EnsureHunter ensures a Hunter row exists for an external identity
// (idempotent).
func (s *ProgressionService) EnsureHunter(externalUserID string) (*models.Hunter, error) {
	var hunter models.Hunter
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&hunter).Error
	if err == gorm.ErrRecordNotFound {
		hunter = models.Hunter{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Tier:           models.TierBronze,
			Rank:           models.RankNovice,
		}
		if err := s.DB.Create(&hunter).Error; err != nil {
			return nil, err
		}
		return &hunter, nil
	}
	if err != nil {
		return nil, err
	}
	return &hunter, nil
}

// HunterByExternalID resolves the gateway identity to the local record.
func (s *ProgressionService) HunterByExternalID(externalUserID string) (*models.Hunter, error) {
	var hunter models.Hunter
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&hunter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("hunter %s not found", externalUserID)
		}
		return nil, err
	}
	return &hunter, nil
}

// AwardXP applies an XP delta (positive or negative) and synchronously
// re-derives tier/rank before the mutation commits. Every subsystem that
// touches XP (reviews, fouls, quizzes, admin adjustments) goes through
// this accumulator.
func (s *ProgressionService) AwardXP(hunterID string, delta int64, reason string) (*models.Hunter, error) {
	var updated *models.Hunter
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		h, err := s.awardXPTx(tx, hunterID, delta, reason)
		if err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Leaderboard.SetXP(updated.ID, updated.XP) // best effort
	return updated, nil
}

// awardXPTx is the transactional core, reusable inside larger batches
// (result posting, foul application).
func (s *ProgressionService) awardXPTx(tx *gorm.DB, hunterID string, delta int64, reason string) (*models.Hunter, error) {
	var hunter models.Hunter
	if err := tx.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("hunter %s not found", hunterID)
		}
		return nil, fmt.Errorf("loading hunter %s: %w", hunterID, err)
	}

	hunter.XP += delta
	hunter.Tier, hunter.Rank = LevelForXP(hunter.XP)

	if err := tx.Save(&hunter).Error; err != nil {
		return nil, err
	}

	log.Printf("🎮 XP %+d: hunter=%s → XP=%d, %s/%s (reason: %s)",
		delta, hunter.ID, hunter.XP, hunter.Tier, hunter.Rank, reason)

	updated := hunter
	return &updated, nil
}
