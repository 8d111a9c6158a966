package services

import (
	"fmt"
	"time"

	"bounty-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pass policy constants.
const (
	TimeExtensionHours        = 12
	BoosterBoostPercent       = 25 // booster multiplies positive review XP by 1.25
	ConsecutiveWinsForBooster = 2
)

type PassService struct {
	DB       *gorm.DB
	Fouls    *FoulService
	Notifier Notifier

	// invoked between the inventory change and the usage-ledger append;
	// lets tests force a mid-redemption failure
	beforeUsageWrite func() error
}

func NewPassService(db *gorm.DB, fouls *FoulService, notifier Notifier) *PassService {
	return &PassService{DB: db, Fouls: fouls, Notifier: notifier}
}

// GetInventory returns current counts per pass type for a hunter.
func (s *PassService) GetInventory(hunterID string) ([]models.HunterPass, error) {
	var passes []models.HunterPass
	err := s.DB.Where("hunter_id = ?", hunterID).Order("pass_type ASC").Find(&passes).Error
	return passes, err
}

// GetUsageHistory returns the hunter's award/redemption ledger.
func (s *PassService) GetUsageHistory(hunterID string) ([]models.PassUsage, error) {
	var usages []models.PassUsage
	err := s.DB.Where("hunter_id = ?", hunterID).Order("created_at DESC").Find(&usages).Error
	return usages, err
}

func (s *PassService) inventoryTx(tx *gorm.DB, hunterID, passType string) (*models.HunterPass, error) {
	var pass models.HunterPass
	err := tx.Where("hunter_id = ? AND pass_type = ?", hunterID, passType).First(&pass).Error
	if err == gorm.ErrRecordNotFound {
		pass = models.HunterPass{
			ID:       uuid.NewString(),
			HunterID: hunterID,
			PassType: passType,
		}
		if err := tx.Create(&pass).Error; err != nil {
			return nil, err
		}
		return &pass, nil
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// awardPassTx increments inventory and appends the award ledger row in the
// caller's transaction.
func (s *PassService) awardPassTx(tx *gorm.DB, hunterID, passType, source string, bountyID *string) error {
	pass, err := s.inventoryTx(tx, hunterID, passType)
	if err != nil {
		return err
	}
	pass.Count++
	if err := tx.Save(pass).Error; err != nil {
		return err
	}
	usage := models.PassUsage{
		ID:       uuid.NewString(),
		HunterID: hunterID,
		PassType: passType,
		Action:   models.PassActionAwarded,
		BountyID: bountyID,
		Source:   source,
	}
	return tx.Create(&usage).Error
}

// AwardPass grants a pass outside the win path (admin/seasonal grants).
func (s *PassService) AwardPass(hunterID, passType, source string) error {
	switch passType {
	case models.PassTypeTimeExtension, models.PassTypeResetFoul, models.PassTypeBooster, models.PassTypeSeasonal:
	default:
		return models.ValidationError("unknown pass type %q", passType)
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.awardPassTx(tx, hunterID, passType, source, nil)
	})
	if err != nil {
		return err
	}
	s.Notifier.Notify(hunterID, "Pass awarded",
		fmt.Sprintf("You received a %s pass.", passType),
		models.NotificationKindPass, nil)
	return nil
}

// consumeTx decrements one unit, failing on empty inventory. The usage row
// is written by the caller so the whole redemption stays one transaction.
func (s *PassService) consumeTx(tx *gorm.DB, hunterID, passType string) error {
	pass, err := s.inventoryTx(tx, hunterID, passType)
	if err != nil {
		return err
	}
	if pass.Count < 1 {
		return models.PreconditionError("no %s pass available", passType)
	}
	pass.Count--
	if err := tx.Save(pass).Error; err != nil {
		return err
	}
	if s.beforeUsageWrite != nil {
		if err := s.beforeUsageWrite(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PassService) redeemedForBountyTx(tx *gorm.DB, hunterID, passType, bountyID string) (bool, error) {
	var count int64
	err := tx.Model(&models.PassUsage{}).
		Where("hunter_id = ? AND pass_type = ? AND bounty_id = ? AND action = ?",
			hunterID, passType, bountyID, models.PassActionRedeemed).
		Count(&count).Error
	return count > 0, err
}

// RedeemTimeExtension extends the hunter's personal deadline on an active
// bounty by a fixed window measured from max(now, bounty end). The bounty's
// shared end time is never touched. Once per (hunter, bounty).
func (s *PassService) RedeemTimeExtension(hunterID, bountyID string) (*models.PassUsage, error) {
	now := time.Now()
	var usage *models.PassUsage
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Where("id = ?", bountyID).First(&bounty).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NotFoundError("bounty %s not found", bountyID)
			}
			return err
		}
		if bounty.Status != models.BountyStatusActive {
			return models.PreconditionError("time extension requires an active bounty")
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

		already, err := s.redeemedForBountyTx(tx, hunterID, models.PassTypeTimeExtension, bountyID)
		if err != nil {
			return err
		}
		if already {
			return models.PreconditionError("time extension already redeemed for this bounty")
		}

		if err := s.consumeTx(tx, hunterID, models.PassTypeTimeExtension); err != nil {
			return err
		}

		base := bounty.EndTime
		if now.After(base) {
			base = now
		}
		extended := base.Add(TimeExtensionHours * time.Hour)
		participation.ExtendedEndTime = &extended
		if err := tx.Save(&participation).Error; err != nil {
			return err
		}

		u := models.PassUsage{
			ID:          uuid.NewString(),
			HunterID:    hunterID,
			PassType:    models.PassTypeTimeExtension,
			Action:      models.PassActionRedeemed,
			BountyID:    &bountyID,
			EffectHours: TimeExtensionHours,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		usage = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RedeemCleanSlate spends one reset-foul pass to clear one strike-bearing
// foul and restore one strike.
func (s *PassService) RedeemCleanSlate(hunterID, foulRecordID string) (*models.PassUsage, error) {
	var usage *models.PassUsage
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.consumeTx(tx, hunterID, models.PassTypeResetFoul); err != nil {
			return err
		}
		record, err := s.Fouls.clearFoulTx(tx, hunterID, foulRecordID)
		if err != nil {
			return err
		}
		u := models.PassUsage{
			ID:            uuid.NewString(),
			HunterID:      hunterID,
			PassType:      models.PassTypeResetFoul,
			Action:        models.PassActionRedeemed,
			BountyID:      record.BountyID,
			ClearedFoulID: &record.ID,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		usage = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RedeemBooster flags the hunter's participation before they submit. The
// boost (1.25× positive review XP) is applied by result posting.
func (s *PassService) RedeemBooster(hunterID, bountyID string) (*models.PassUsage, error) {
	var usage *models.PassUsage
	err := s.DB.Transaction(func(tx *gorm.DB) error {
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
		if participation.BoosterActive {
			return models.PreconditionError("booster already active for this bounty")
		}

		var submissionCount int64
		if err := tx.Model(&models.Submission{}).
			Where("participation_id = ?", participation.ID).
			Count(&submissionCount).Error; err != nil {
			return err
		}
		if submissionCount > 0 {
			return models.PreconditionError("booster must be redeemed before submitting")
		}

		if err := s.consumeTx(tx, hunterID, models.PassTypeBooster); err != nil {
			return err
		}

		participation.BoosterActive = true
		if err := tx.Save(&participation).Error; err != nil {
			return err
		}

		u := models.PassUsage{
			ID:           uuid.NewString(),
			HunterID:     hunterID,
			PassType:     models.PassTypeBooster,
			Action:       models.PassActionRedeemed,
			BountyID:     &bountyID,
			BoostPercent: BoosterBoostPercent,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		usage = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RedeemSeasonal is reserved: seasonal passes are granted now but their
// redemption is defined by a future season.
func (s *PassService) RedeemSeasonal(hunterID string) error {
	return models.PreconditionError("seasonal passes are reserved for a future season")
}

// recordWinAwardsTx applies win-based pass awards in the result-posting
// transaction: every win grants a reset-foul pass; two consecutive wins
// grant a booster and reset the counter.
func (s *PassService) recordWinAwardsTx(tx *gorm.DB, hunterID, bountyID string) error {
	if err := s.awardPassTx(tx, hunterID, models.PassTypeResetFoul, models.PassSourceBountyWin, &bountyID); err != nil {
		return err
	}

	var hunter models.Hunter
	if err := tx.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		return err
	}
	hunter.ConsecutiveWins++
	if hunter.ConsecutiveWins >= ConsecutiveWinsForBooster {
		if err := s.awardPassTx(tx, hunterID, models.PassTypeBooster, models.PassSourceConsecutiveWins, &bountyID); err != nil {
			return err
		}
		hunter.ConsecutiveWins = 0
	}
	return tx.Model(&models.Hunter{}).Where("id = ?", hunterID).
		UpdateColumn("consecutive_wins", hunter.ConsecutiveWins).Error
}

// recordNonWinTx resets the consecutive-wins counter.
func (s *PassService) recordNonWinTx(tx *gorm.DB, hunterID string) error {
	return tx.Model(&models.Hunter{}).Where("id = ?", hunterID).
		UpdateColumn("consecutive_wins", 0).Error
}

// GrantMonthlySeasonalPasses gives every active, non-suspended hunter one
// seasonal pass. Run by the monthly scheduled job; re-running within the
// same day is guarded by the ledger.
func (s *PassService) GrantMonthlySeasonalPasses() error {
	var hunters []models.Hunter
	if err := s.DB.Where("account_status = ? AND is_suspended = ?", "active", false).
		Find(&hunters).Error; err != nil {
		return err
	}

	monthStart := time.Now().UTC().Truncate(24 * time.Hour)
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	granted := 0
	for _, h := range hunters {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.PassUsage{}).
				Where("hunter_id = ? AND pass_type = ? AND source = ? AND created_at >= ?",
					h.ID, models.PassTypeSeasonal, models.PassSourceMonthlyGrant, monthStart).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil // already granted this month
			}
			granted++
			return s.awardPassTx(tx, h.ID, models.PassTypeSeasonal, models.PassSourceMonthlyGrant, nil)
		})
		if err != nil {
			return fmt.Errorf("monthly grant for hunter %s: %w", h.ID, err)
		}
	}
	if granted > 0 {
		fmt.Printf("🎟️ Monthly seasonal passes granted: %d\n", granted)
	}
	return nil
}
