package services

import (
	"fmt"
	"log"
	"time"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Foul penalty and suspension policy — wire contract.
const (
	FoulPenaltyBase           = 2500 // severity percentages apply to this base
	StrikeSuspensionThreshold = 3
	SuspensionDays            = 14
)

// PenaltyForSeverity maps severity to the fixed XP penalty:
// 5% / 15% / 25% of the 2500 base ⇒ 125 / 375 / 625.
func PenaltyForSeverity(severity string) int64 {
	switch severity {
	case models.FoulSeverityLow:
		return FoulPenaltyBase * 5 / 100
	case models.FoulSeverityMedium:
		return FoulPenaltyBase * 15 / 100
	case models.FoulSeverityHigh:
		return FoulPenaltyBase * 25 / 100
	default:
		return 0
	}
}

type FoulService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Notifier    Notifier
}

func NewFoulService(db *gorm.DB, progression *ProgressionService, notifier Notifier) *FoulService {
	return &FoulService{DB: db, Progression: progression, Notifier: notifier}
}

// SeedFoulTypes inserts any missing catalog entries (idempotent).
func (s *FoulService) SeedFoulTypes() error {
	for _, ft := range models.DefaultFoulTypes {
		var count int64
		if err := s.DB.Model(&models.FoulType{}).Where("code = ?", ft.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		ft.ID = uuid.NewString()
		if err := s.DB.Create(&ft).Error; err != nil {
			return fmt.Errorf("seeding foul type %s: %w", ft.Code, err)
		}
	}
	return nil
}

// ApplyFoul penalizes a hunter for a catalog foul, with occurrence/strike
// bookkeeping and the suspension threshold.
func (s *FoulService) ApplyFoul(hunterID, foulCode string, bountyID *string) (*models.FoulRecord, error) {
	var record *models.FoulRecord
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.applyFoulTx(tx, hunterID, foulCode, bountyID, time.Now())
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(hunterID, "Foul applied",
		fmt.Sprintf("A %q foul was recorded against your account (−%d XP).", foulCode, record.XPPenalty),
		models.NotificationKindFoul, &record.ID)
	return record, nil
}

// applyFoulTx is the transactional core, reused by result posting.
//
// Rules: the XP penalty is severity-derived (zero-penalty fouls excepted);
// tracked fouls strike from the 2nd occurrence per (hunter, type); a strike
// landing while the hunter is not suspended and the count is at or past the
// threshold starts a fresh 14-day suspension from `now`; a strike landing
// during an active suspension neither resets nor extends the clock.
func (s *FoulService) applyFoulTx(tx *gorm.DB, hunterID, foulCode string, bountyID *string, now time.Time) (*models.FoulRecord, error) {
	var foulType models.FoulType
	if err := tx.Where("code = ?", foulCode).First(&foulType).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("foul type %s not found", foulCode)
		}
		return nil, err
	}

	var hunter models.Hunter
	if err := tx.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("hunter %s not found", hunterID)
		}
		return nil, err
	}

	var priorOccurrences int64
	if err := tx.Model(&models.FoulRecord{}).
		Where("hunter_id = ? AND foul_code = ? AND removed = ?", hunterID, foulCode, false).
		Count(&priorOccurrences).Error; err != nil {
		return nil, err
	}
	occurrence := int(priorOccurrences) + 1

	penalty := PenaltyForSeverity(foulType.Severity)
	if foulType.ZeroPenalty {
		penalty = 0
	}

	// The 1st occurrence never strikes, even for tracked fouls.
	isStrike := foulType.TracksOccurrences && occurrence >= 2

	record := models.FoulRecord{
		ID:               uuid.NewString(),
		HunterID:         hunterID,
		FoulTypeID:       foulType.ID,
		FoulCode:         foulCode,
		BountyID:         bountyID,
		XPPenalty:        penalty,
		OccurrenceNumber: occurrence,
		IsStrike:         isStrike,
		AppliedAt:        now,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}

	if penalty > 0 {
		if _, err := s.Progression.awardXPTx(tx, hunterID, -penalty, "foul_"+foulCode); err != nil {
			return nil, err
		}
	}

	if isStrike {
		hunter.StrikeCount++
		currentlySuspended := hunter.IsSuspended && hunter.SuspensionEndsAt != nil && hunter.SuspensionEndsAt.After(now)
		if hunter.StrikeCount >= StrikeSuspensionThreshold && !currentlySuspended {
			endsAt := now.AddDate(0, 0, SuspensionDays)
			hunter.IsSuspended = true
			hunter.SuspensionEndsAt = &endsAt
			suspension := models.SuspensionRecord{
				ID:               uuid.NewString(),
				HunterID:         hunterID,
				TriggeringFoulID: record.ID,
				StartedAt:        now,
				EndsAt:           endsAt,
			}
			if err := tx.Create(&suspension).Error; err != nil {
				return nil, err
			}
			log.Printf("⛔ Hunter %s suspended until %s (%d strikes)",
				hunterID, endsAt.Format(time.RFC3339), hunter.StrikeCount)
		}
		if err := tx.Model(&models.Hunter{}).Where("id = ?", hunterID).
			Updates(map[string]interface{}{
				"strike_count":       hunter.StrikeCount,
				"is_suspended":       hunter.IsSuspended,
				"suspension_ends_at": hunter.SuspensionEndsAt,
			}).Error; err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// clearFoulTx clears one strike-bearing foul via a clean-slate pass and
// restores one strike. Non-strike fouls cannot be cleared this way.
func (s *FoulService) clearFoulTx(tx *gorm.DB, hunterID, foulRecordID string) (*models.FoulRecord, error) {
	var record models.FoulRecord
	if err := tx.Where("id = ?", foulRecordID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NotFoundError("foul record %s not found", foulRecordID)
		}
		return nil, err
	}
	if record.HunterID != hunterID {
		return nil, models.NotFoundError("foul record %s not found", foulRecordID)
	}
	if record.Removed {
		return nil, models.PreconditionError("foul record was removed by an admin")
	}
	if !record.IsStrike {
		return nil, models.PreconditionError("only strike-bearing fouls can be cleared with a pass")
	}
	if record.IsCleared {
		return nil, models.PreconditionError("foul record is already cleared")
	}

	record.IsCleared = true
	if err := tx.Save(&record).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Hunter{}).
		Where("id = ? AND strike_count > 0", hunterID).
		UpdateColumn("strike_count", gorm.Expr("strike_count - 1")).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// RemoveFoul is an explicit admin action: voids the record, refunds the XP
// penalty, and restores a strike if one was counted.
func (s *FoulService) RemoveFoul(foulRecordID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var record models.FoulRecord
		if err := tx.Where("id = ?", foulRecordID).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("foul record %s not found", foulRecordID)
			}
			return err
		}
		if record.Removed {
			return models.PreconditionError("foul record is already removed")
		}

		record.Removed = true
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		if record.XPPenalty > 0 {
			if _, err := s.Progression.awardXPTx(tx, record.HunterID, record.XPPenalty, "foul_removed"); err != nil {
				return err
			}
		}
		if record.IsStrike && !record.IsCleared {
			if err := tx.Model(&models.Hunter{}).
				Where("id = ? AND strike_count > 0", record.HunterID).
				UpdateColumn("strike_count", gorm.Expr("strike_count - 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReducePenalty is an explicit admin action: refunds part of the penalty.
func (s *FoulService) ReducePenalty(foulRecordID string, newPenalty int64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var record models.FoulRecord
		if err := tx.Where("id = ?", foulRecordID).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("foul record %s not found", foulRecordID)
			}
			return err
		}
		if record.Removed {
			return models.PreconditionError("foul record is removed")
		}
		if newPenalty < 0 || newPenalty >= record.XPPenalty {
			return models.ValidationError("new penalty must be in [0, %d)", record.XPPenalty)
		}

		refund := record.XPPenalty - newPenalty
		record.XPPenalty = newPenalty
		record.ReducedPenalty = true
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		_, err := s.Progression.awardXPTx(tx, record.HunterID, refund, "foul_penalty_reduced")
		return err
	})
}

// LiftExpiredSuspensions clears the suspended flag for hunters whose
// suspension window has passed. Safe to run repeatedly; strikes are not
// reset.
func (s *FoulService) LiftExpiredSuspensions() error {
	now := time.Now()
	res := s.DB.Model(&models.Hunter{}).
		Where("is_suspended = ? AND suspension_ends_at <= ?", true, now).
		Updates(map[string]interface{}{
			"is_suspended":       false,
			"suspension_ends_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Lifted %d expired suspensions", res.RowsAffected)
	}
	return nil
}

// GetHunterFouls returns the hunter's non-removed foul history.
func (s *FoulService) GetHunterFouls(hunterID string) ([]models.FoulRecord, error) {
	var records []models.FoulRecord
	err := s.DB.Where("hunter_id = ? AND removed = ?", hunterID, false).
		Order("applied_at DESC").
		Find(&records).Error
	return records, err
}
