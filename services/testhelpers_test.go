package services

import (
	"testing"
	"time"

	"bounty-competition-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Hunter{},
		&models.SuspensionRecord{},
		&models.Bounty{},
		&models.BountyParticipation{},
		&models.Submission{},
		&models.SubmissionFile{},
		&models.Review{},
		&models.BountyResult{},
		&models.BountyRanking{},
		&models.BountyNonSubmitter{},
		&models.FoulType{},
		&models.FoulRecord{},
		&models.HunterPass{},
		&models.PassUsage{},
		&models.Transaction{},
		&models.Notification{},
		&models.PerformanceEntry{},
	); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return db
}

// testServices bundles the wired service graph most tests need.
type testServices struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Fouls       *FoulService
	Passes      *PassService
	Wallet      *WalletService
	Performance *PerformanceService
	Bounties    *BountyService
	Reviews     *ReviewService
	Results     *ResultService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db := newTestDB(t)

	progression := NewProgressionService(db, nil)
	fouls := NewFoulService(db, progression, NopNotifier{})
	passes := NewPassService(db, fouls, NopNotifier{})
	wallet := NewWalletService(db)
	performance := NewPerformanceService(db)
	bounties := NewBountyService(db, progression, fouls, NopNotifier{})
	reviews := NewReviewService(db)
	results := NewResultService(db, progression, performance, fouls, passes, wallet, NopNotifier{})

	if err := fouls.SeedFoulTypes(); err != nil {
		t.Fatalf("seeding foul types: %v", err)
	}

	return &testServices{
		DB:          db,
		Progression: progression,
		Fouls:       fouls,
		Passes:      passes,
		Wallet:      wallet,
		Performance: performance,
		Bounties:    bounties,
		Reviews:     reviews,
		Results:     results,
	}
}

func createTestHunter(t *testing.T, db *gorm.DB, username string, xp int64) *models.Hunter {
	t.Helper()
	tier, rank := LevelForXP(xp)
	hunter := models.Hunter{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		Username:       username,
		DisplayName:    username,
		AccountStatus:  "active",
		XP:             xp,
		Tier:           tier,
		Rank:           rank,
	}
	if err := db.Create(&hunter).Error; err != nil {
		t.Fatalf("creating test hunter %s: %v", username, err)
	}
	return &hunter
}

// createActiveBounty publishes a bounty whose window is currently open.
func createActiveBounty(t *testing.T, db *gorm.DB, lordID string, prize float64, maxHunters int) *models.Bounty {
	t.Helper()
	now := time.Now()
	bounty := models.Bounty{
		ID:          uuid.NewString(),
		LordID:      lordID,
		Title:       "Design a landing page",
		Slug:        "design-a-landing-page",
		Description: "Full brief in attachments",
		RewardPrize: prize,
		MaxHunters:  maxHunters,
		Status:      models.BountyStatusActive,
		StartTime:   now.Add(-1 * time.Hour),
		EndTime:     now.Add(24 * time.Hour),
		ResultTime:  now.Add(48 * time.Hour),
	}
	if err := db.Create(&bounty).Error; err != nil {
		t.Fatalf("creating test bounty: %v", err)
	}
	return &bounty
}

// joinAndSubmit walks a hunter through join + submit and returns the
// participation.
func joinAndSubmit(t *testing.T, ts *testServices, hunterID, bountyID string) *models.BountyParticipation {
	t.Helper()
	p, err := ts.Bounties.Join(hunterID, bountyID)
	if err != nil {
		t.Fatalf("joining bounty: %v", err)
	}
	if _, err := ts.Bounties.Submit(hunterID, bountyID, "work attached", nil); err != nil {
		t.Fatalf("submitting work: %v", err)
	}
	return p
}

// forceResultTime rewinds the bounty's result time so PostResult's time gate
// passes immediately.
func forceResultTime(t *testing.T, db *gorm.DB, bountyID string, at time.Time) {
	t.Helper()
	if err := db.Model(&models.Bounty{}).Where("id = ?", bountyID).
		Update("result_time", at).Error; err != nil {
		t.Fatalf("rewinding result time: %v", err)
	}
}

func reloadHunter(t *testing.T, db *gorm.DB, hunterID string) *models.Hunter {
	t.Helper()
	var hunter models.Hunter
	if err := db.Where("id = ?", hunterID).First(&hunter).Error; err != nil {
		t.Fatalf("reloading hunter %s: %v", hunterID, err)
	}
	return &hunter
}
