package services

import (
	"testing"
	"time"

	"bounty-competition-system/models"
)

func TestPenaltyForSeverity(t *testing.T) {
	cases := []struct {
		severity string
		want     int64
	}{
		{models.FoulSeverityLow, 125},
		{models.FoulSeverityMedium, 375},
		{models.FoulSeverityHigh, 625},
		{"bogus", 0},
	}
	for _, tc := range cases {
		if got := PenaltyForSeverity(tc.severity); got != tc.want {
			t.Errorf("PenaltyForSeverity(%s) = %d, want %d", tc.severity, got, tc.want)
		}
	}
}

func TestSeedFoulTypesIdempotent(t *testing.T) {
	ts := newTestServices(t) // already seeded once
	if err := ts.Fouls.SeedFoulTypes(); err != nil {
		t.Fatalf("re-seeding: %v", err)
	}
	var count int64
	ts.DB.Model(&models.FoulType{}).Count(&count)
	if count != int64(len(models.DefaultFoulTypes)) {
		t.Errorf("foul types = %d, want %d", count, len(models.DefaultFoulTypes))
	}
}

func TestApplyFoulDeductsPenalty(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "dena", 1000)

	record, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeNoSubmission, nil)
	if err != nil {
		t.Fatalf("ApplyFoul: %v", err)
	}
	if record.XPPenalty != 625 {
		t.Errorf("high-severity penalty = %d, want 625", record.XPPenalty)
	}
	if record.OccurrenceNumber != 1 || record.IsStrike {
		t.Errorf("first occurrence must not strike: occurrence=%d strike=%v",
			record.OccurrenceNumber, record.IsStrike)
	}

	h := reloadHunter(t, ts.DB, hunter.ID)
	if h.XP != 375 {
		t.Errorf("XP after penalty = %d, want 375", h.XP)
	}
}

func TestApplyFoulZeroPenaltyStillTracked(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "edda", 1000)

	record, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeQuitsBeforeLive, nil)
	if err != nil {
		t.Fatalf("ApplyFoul: %v", err)
	}
	if record.XPPenalty != 0 {
		t.Errorf("quits-before-live penalty = %d, want 0", record.XPPenalty)
	}
	if reloadHunter(t, ts.DB, hunter.ID).XP != 1000 {
		t.Error("zero-penalty foul changed XP")
	}

	// Zero penalty does not mean untracked: the 2nd occurrence strikes.
	second, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeQuitsBeforeLive, nil)
	if err != nil {
		t.Fatalf("ApplyFoul (2nd): %v", err)
	}
	if !second.IsStrike || second.OccurrenceNumber != 2 {
		t.Errorf("2nd tracked occurrence: occurrence=%d strike=%v, want 2/true",
			second.OccurrenceNumber, second.IsStrike)
	}
}

func TestUntrackedFoulNeverStrikes(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "finn", 5000)

	for i := 0; i < 4; i++ {
		record, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeConduct, nil)
		if err != nil {
			t.Fatalf("ApplyFoul #%d: %v", i+1, err)
		}
		if record.IsStrike {
			t.Fatalf("occurrence %d of an untracked foul counted a strike", record.OccurrenceNumber)
		}
	}
	if reloadHunter(t, ts.DB, hunter.ID).StrikeCount != 0 {
		t.Error("untracked fouls accumulated strikes")
	}
}

func TestThreeStrikesSuspendForFourteenDays(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "gita", 50000)

	// Three tracked foul types, two occurrences each → 3 strikes.
	codes := []string{
		models.FoulCodeNoSubmission,
		models.FoulCodeAbandonsBounty,
		models.FoulCodePlagiarism,
	}
	start := time.Now()
	for _, code := range codes {
		for i := 0; i < 2; i++ {
			if _, err := ts.Fouls.ApplyFoul(hunter.ID, code, nil); err != nil {
				t.Fatalf("ApplyFoul %s: %v", code, err)
			}
		}
	}

	h := reloadHunter(t, ts.DB, hunter.ID)
	if h.StrikeCount != 3 {
		t.Fatalf("strike count = %d, want 3", h.StrikeCount)
	}
	if !h.IsSuspended || h.SuspensionEndsAt == nil {
		t.Fatal("hunter not suspended at 3 strikes")
	}
	gotDays := h.SuspensionEndsAt.Sub(start).Hours() / 24
	if gotDays < 13.9 || gotDays > 14.1 {
		t.Errorf("suspension length ≈ %.2f days, want 14", gotDays)
	}

	var suspensions int64
	ts.DB.Model(&models.SuspensionRecord{}).Where("hunter_id = ?", hunter.ID).Count(&suspensions)
	if suspensions != 1 {
		t.Errorf("suspension records = %d, want 1", suspensions)
	}
}

func TestStrikeDuringSuspensionDoesNotExtend(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "hale", 50000)

	codes := []string{
		models.FoulCodeNoSubmission,
		models.FoulCodeAbandonsBounty,
		models.FoulCodePlagiarism,
	}
	for _, code := range codes {
		for i := 0; i < 2; i++ {
			if _, err := ts.Fouls.ApplyFoul(hunter.ID, code, nil); err != nil {
				t.Fatalf("ApplyFoul %s: %v", code, err)
			}
		}
	}
	firstEnd := *reloadHunter(t, ts.DB, hunter.ID).SuspensionEndsAt

	// A 4th strike while already suspended must not move the clock.
	if _, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeNoSubmission, nil); err != nil {
		t.Fatalf("ApplyFoul during suspension: %v", err)
	}

	h := reloadHunter(t, ts.DB, hunter.ID)
	if h.StrikeCount != 4 {
		t.Errorf("strike count = %d, want 4 (strikes still accrue)", h.StrikeCount)
	}
	if !h.SuspensionEndsAt.Equal(firstEnd) {
		t.Errorf("suspension end moved from %v to %v", firstEnd, h.SuspensionEndsAt)
	}
	var suspensions int64
	ts.DB.Model(&models.SuspensionRecord{}).Where("hunter_id = ?", hunter.ID).Count(&suspensions)
	if suspensions != 1 {
		t.Errorf("suspension records = %d, want 1", suspensions)
	}
}

func TestLiftExpiredSuspensions(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "iris", 0)

	past := time.Now().Add(-time.Hour)
	ts.DB.Model(&models.Hunter{}).Where("id = ?", hunter.ID).Updates(map[string]interface{}{
		"is_suspended":       true,
		"suspension_ends_at": past,
		"strike_count":       3,
	})

	if err := ts.Fouls.LiftExpiredSuspensions(); err != nil {
		t.Fatalf("LiftExpiredSuspensions: %v", err)
	}

	h := reloadHunter(t, ts.DB, hunter.ID)
	if h.IsSuspended || h.SuspensionEndsAt != nil {
		t.Error("expired suspension not lifted")
	}
	if h.StrikeCount != 3 {
		t.Errorf("strikes reset on lift: %d, want 3", h.StrikeCount)
	}
}

func TestRemoveFoulRefundsPenaltyAndStrike(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "jona", 2000)

	if _, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeAbandonsBounty, nil); err != nil {
		t.Fatalf("ApplyFoul: %v", err)
	}
	second, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeAbandonsBounty, nil)
	if err != nil {
		t.Fatalf("ApplyFoul (2nd): %v", err)
	}
	if !second.IsStrike {
		t.Fatal("2nd occurrence should strike")
	}

	h := reloadHunter(t, ts.DB, hunter.ID)
	if h.XP != 1250 || h.StrikeCount != 1 {
		t.Fatalf("pre-removal state XP=%d strikes=%d, want 1250/1", h.XP, h.StrikeCount)
	}

	if err := ts.Fouls.RemoveFoul(second.ID); err != nil {
		t.Fatalf("RemoveFoul: %v", err)
	}
	h = reloadHunter(t, ts.DB, hunter.ID)
	if h.XP != 1625 {
		t.Errorf("XP after refund = %d, want 1625", h.XP)
	}
	if h.StrikeCount != 0 {
		t.Errorf("strike not restored: %d, want 0", h.StrikeCount)
	}

	// Removed fouls cannot be removed twice.
	if err := ts.Fouls.RemoveFoul(second.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("double removal: got %v, want precondition error", err)
	}
}

func TestReducePenalty(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "kali", 2000)

	record, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeNoSubmission, nil)
	if err != nil {
		t.Fatalf("ApplyFoul: %v", err)
	}

	if err := ts.Fouls.ReducePenalty(record.ID, 125); err != nil {
		t.Fatalf("ReducePenalty: %v", err)
	}
	if got := reloadHunter(t, ts.DB, hunter.ID).XP; got != 1875 {
		t.Errorf("XP after partial refund = %d, want 1875 (1375 + 500)", got)
	}

	// The new penalty must be strictly below the current one.
	if err := ts.Fouls.ReducePenalty(record.ID, 500); models.KindOf(err) != models.ErrKindValidation {
		t.Errorf("raising the penalty: got %v, want validation error", err)
	}
}
