package services

import (
	"math"
	"time"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerformanceXPBase normalizes XP earned in one bounty for the XP modifier.
const PerformanceXPBase = 2500

// Tier difficulty weights for the competitor-difficulty modifier.
var tierDifficultyWeights = map[string]float64{
	models.TierGold:   1.0,
	models.TierSilver: 0.66,
	models.TierBronze: 0.33,
}

// TierWeight returns the difficulty weight of a tier (0 for unknown).
func TierWeight(tier string) float64 {
	return tierDifficultyWeights[tier]
}

// PerformanceScore computes the 0–100 per-bounty skill assessment:
//
//	XPM = min(xpEarned/2500, 1), floored at 0
//	RM  = (N − rank + 1) / N
//	CDM = 1 − selfWeight/weightSum (0 when weightSum is 0)
//	score = (0.34·XPM + 0.33·RM + 0.33·CDM) × 100, 2 decimals
//
// Callers must not invoke this for solo bounties (N == 1 yields no entry).
func PerformanceScore(xpEarned int64, rank, totalParticipants int, selfWeight, weightSum float64) float64 {
	if totalParticipants <= 0 {
		return 0
	}

	xpm := float64(xpEarned) / PerformanceXPBase
	if xpm < 0 {
		xpm = 0
	}
	if xpm > 1 {
		xpm = 1
	}

	rm := float64(totalParticipants-rank+1) / float64(totalParticipants)

	cdm := 0.0
	if weightSum > 0 {
		cdm = 1 - selfWeight/weightSum
	}

	score := (0.34*xpm + 0.33*rm + 0.33*cdm) * 100
	return math.Round(score*100) / 100
}

type PerformanceService struct {
	DB *gorm.DB
}

func NewPerformanceService(db *gorm.DB) *PerformanceService {
	return &PerformanceService{DB: db}
}

// recordScoreTx upserts the per-bounty entry and refreshes the hunter's
// running mean. One entry per (hunter, bounty): a recompute for the same
// bounty overwrites, never duplicates.
func (s *PerformanceService) recordScoreTx(tx *gorm.DB, hunterID, bountyID string, score float64) error {
	var entry models.PerformanceEntry
	err := tx.Where("hunter_id = ? AND bounty_id = ?", hunterID, bountyID).First(&entry).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		entry = models.PerformanceEntry{
			ID:       uuid.NewString(),
			HunterID: hunterID,
			BountyID: bountyID,
			Score:    score,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		entry.Score = score
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
	}

	return s.refreshRunningScoreTx(tx, hunterID)
}

// refreshRunningScoreTx recomputes the arithmetic mean of all entries.
func (s *PerformanceService) refreshRunningScoreTx(tx *gorm.DB, hunterID string) error {
	var entries []models.PerformanceEntry
	if err := tx.Where("hunter_id = ?", hunterID).Find(&entries).Error; err != nil {
		return err
	}

	var sum float64
	for _, e := range entries {
		sum += e.Score
	}
	mean := 0.0
	if len(entries) > 0 {
		mean = math.Round(sum/float64(len(entries))*100) / 100
	}

	return tx.Model(&models.Hunter{}).
		Where("id = ?", hunterID).
		Updates(map[string]interface{}{
			"performance_score":   mean,
			"bounties_calculated": len(entries),
			"updated_at":          time.Now(),
		}).Error
}

// GetHunterPerformance returns the running score plus per-bounty history.
func (s *PerformanceService) GetHunterPerformance(hunterID string) (float64, []models.PerformanceEntry, error) {
	var hunter models.Hunter
	if err := s.DB.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil, models.NotFoundError("hunter %s not found", hunterID)
		}
		return 0, nil, err
	}

	var entries []models.PerformanceEntry
	if err := s.DB.Where("hunter_id = ?", hunterID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return 0, nil, err
	}
	return hunter.PerformanceScore, entries, nil
}
