package services

import (
	"errors"
	"testing"
	"time"

	"bounty-competition-system/models"
)

func passCount(t *testing.T, ts *testServices, hunterID, passType string) int {
	t.Helper()
	var pass models.HunterPass
	err := ts.DB.Where("hunter_id = ? AND pass_type = ?", hunterID, passType).First(&pass).Error
	if err != nil {
		return 0
	}
	return pass.Count
}

func TestAwardPassIncrementsInventoryAndLedger(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "lena", 0)

	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeBooster, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("AwardPass: %v", err)
	}
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeBooster, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("AwardPass (2nd): %v", err)
	}
	if got := passCount(t, ts, hunter.ID, models.PassTypeBooster); got != 2 {
		t.Errorf("booster count = %d, want 2", got)
	}

	usages, err := ts.Passes.GetUsageHistory(hunter.ID)
	if err != nil {
		t.Fatalf("GetUsageHistory: %v", err)
	}
	if len(usages) != 2 {
		t.Errorf("ledger rows = %d, want 2", len(usages))
	}

	if err := ts.Passes.AwardPass(hunter.ID, "mystery", models.PassSourceAdminGrant); models.KindOf(err) != models.ErrKindValidation {
		t.Errorf("awarding unknown pass type: got %v, want validation error", err)
	}
}

func TestRedeemWithEmptyInventoryFails(t *testing.T) {
	ts := newTestServices(t)
	lord := createTestHunter(t, ts.DB, "lord-m", 0)
	hunter := createTestHunter(t, ts.DB, "mira", 0)
	bounty := createActiveBounty(t, ts.DB, lord.ExternalUserID, 100, 10)
	if _, err := ts.Bounties.Join(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("joining: %v", err)
	}

	_, err := ts.Passes.RedeemTimeExtension(hunter.ID, bounty.ID)
	if models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("empty-inventory redemption: got %v, want precondition error", err)
	}
}

func TestRedeemTimeExtension(t *testing.T) {
	ts := newTestServices(t)
	lord := createTestHunter(t, ts.DB, "lord-n", 0)
	hunter := createTestHunter(t, ts.DB, "nilo", 0)
	bounty := createActiveBounty(t, ts.DB, lord.ExternalUserID, 100, 10)
	if _, err := ts.Bounties.Join(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("joining: %v", err)
	}
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeTimeExtension, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}

	usage, err := ts.Passes.RedeemTimeExtension(hunter.ID, bounty.ID)
	if err != nil {
		t.Fatalf("RedeemTimeExtension: %v", err)
	}
	if usage.EffectHours != TimeExtensionHours {
		t.Errorf("effect hours = %d, want %d", usage.EffectHours, TimeExtensionHours)
	}

	var p models.BountyParticipation
	if err := ts.DB.Where("bounty_id = ? AND hunter_id = ?", bounty.ID, hunter.ID).First(&p).Error; err != nil {
		t.Fatalf("loading participation: %v", err)
	}
	if p.ExtendedEndTime == nil {
		t.Fatal("personal deadline not set")
	}
	want := bounty.EndTime.Add(TimeExtensionHours * time.Hour)
	if diff := p.ExtendedEndTime.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("extended deadline = %v, want %v", p.ExtendedEndTime, want)
	}

	// The bounty's shared end time must be untouched.
	var b models.Bounty
	ts.DB.Where("id = ?", bounty.ID).First(&b)
	if !b.EndTime.Equal(bounty.EndTime) {
		t.Error("shared bounty end time was mutated by a personal extension")
	}

	// Once per (hunter, bounty), even with passes left over.
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeTimeExtension, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting second pass: %v", err)
	}
	if _, err := ts.Passes.RedeemTimeExtension(hunter.ID, bounty.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("second extension on same bounty: got %v, want precondition error", err)
	}
}

func TestRedemptionIsAtomic(t *testing.T) {
	ts := newTestServices(t)
	lord := createTestHunter(t, ts.DB, "lord-o", 0)
	hunter := createTestHunter(t, ts.DB, "otis", 0)
	bounty := createActiveBounty(t, ts.DB, lord.ExternalUserID, 100, 10)
	if _, err := ts.Bounties.Join(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("joining: %v", err)
	}
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeTimeExtension, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}

	boom := errors.New("storage failure mid-redemption")
	ts.Passes.beforeUsageWrite = func() error { return boom }
	if _, err := ts.Passes.RedeemTimeExtension(hunter.ID, bounty.ID); !errors.Is(err, boom) {
		t.Fatalf("forced failure not surfaced: %v", err)
	}
	ts.Passes.beforeUsageWrite = nil

	// The decrement must have rolled back with the failed transaction.
	if got := passCount(t, ts, hunter.ID, models.PassTypeTimeExtension); got != 1 {
		t.Errorf("inventory after rollback = %d, want 1", got)
	}
	var redeemed int64
	ts.DB.Model(&models.PassUsage{}).
		Where("hunter_id = ? AND action = ?", hunter.ID, models.PassActionRedeemed).
		Count(&redeemed)
	if redeemed != 0 {
		t.Errorf("redemption ledger rows after rollback = %d, want 0", redeemed)
	}

	// Retry succeeds with the preserved inventory.
	if _, err := ts.Passes.RedeemTimeExtension(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}

func TestRedeemCleanSlate(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "pia", 5000)

	first, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeAbandonsBounty, nil)
	if err != nil {
		t.Fatalf("ApplyFoul: %v", err)
	}
	strike, err := ts.Fouls.ApplyFoul(hunter.ID, models.FoulCodeAbandonsBounty, nil)
	if err != nil {
		t.Fatalf("ApplyFoul (2nd): %v", err)
	}
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeResetFoul, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}

	// Non-strike fouls cannot be cleared.
	if _, err := ts.Passes.RedeemCleanSlate(hunter.ID, first.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Fatalf("clearing non-strike foul: got %v, want precondition error", err)
	}
	// The failed attempt must not have consumed the pass.
	if got := passCount(t, ts, hunter.ID, models.PassTypeResetFoul); got != 1 {
		t.Fatalf("inventory after failed clear = %d, want 1", got)
	}

	usage, err := ts.Passes.RedeemCleanSlate(hunter.ID, strike.ID)
	if err != nil {
		t.Fatalf("RedeemCleanSlate: %v", err)
	}
	if usage.ClearedFoulID == nil || *usage.ClearedFoulID != strike.ID {
		t.Error("usage row does not reference the cleared foul")
	}
	if got := reloadHunter(t, ts.DB, hunter.ID).StrikeCount; got != 0 {
		t.Errorf("strike count after clear = %d, want 0", got)
	}

	// The same foul cannot be cleared twice.
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeResetFoul, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}
	if _, err := ts.Passes.RedeemCleanSlate(hunter.ID, strike.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("double clear: got %v, want precondition error", err)
	}
}

func TestRedeemBoosterBeforeSubmissionOnly(t *testing.T) {
	ts := newTestServices(t)
	lord := createTestHunter(t, ts.DB, "lord-q", 0)
	hunter := createTestHunter(t, ts.DB, "quil", 0)
	bounty := createActiveBounty(t, ts.DB, lord.ExternalUserID, 100, 10)
	if _, err := ts.Bounties.Join(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("joining: %v", err)
	}
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeBooster, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}

	if _, err := ts.Passes.RedeemBooster(hunter.ID, bounty.ID); err != nil {
		t.Fatalf("RedeemBooster: %v", err)
	}
	var p models.BountyParticipation
	ts.DB.Where("bounty_id = ? AND hunter_id = ?", bounty.ID, hunter.ID).First(&p)
	if !p.BoosterActive {
		t.Fatal("booster flag not set")
	}

	// A second booster on the same participation is rejected.
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeBooster, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}
	if _, err := ts.Passes.RedeemBooster(hunter.ID, bounty.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("double booster: got %v, want precondition error", err)
	}
}

func TestRedeemBoosterAfterSubmissionFails(t *testing.T) {
	ts := newTestServices(t)
	lord := createTestHunter(t, ts.DB, "lord-r", 0)
	hunter := createTestHunter(t, ts.DB, "rook", 0)
	bounty := createActiveBounty(t, ts.DB, lord.ExternalUserID, 100, 10)
	joinAndSubmit(t, ts, hunter.ID, bounty.ID)
	if err := ts.Passes.AwardPass(hunter.ID, models.PassTypeBooster, models.PassSourceAdminGrant); err != nil {
		t.Fatalf("granting pass: %v", err)
	}

	_, err := ts.Passes.RedeemBooster(hunter.ID, bounty.ID)
	if models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("booster after submit: got %v, want precondition error", err)
	}
}

func TestRedeemSeasonalReserved(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "sena", 0)
	if err := ts.Passes.RedeemSeasonal(hunter.ID); models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("seasonal redemption: got %v, want precondition error", err)
	}
}

func TestWinAwardsAndConsecutiveWins(t *testing.T) {
	ts := newTestServices(t)
	hunter := createTestHunter(t, ts.DB, "tove", 0)

	// 1st win: one reset-foul pass, counter at 1.
	if err := ts.Passes.recordWinAwardsTx(ts.DB, hunter.ID, "b1"); err != nil {
		t.Fatalf("recordWinAwardsTx: %v", err)
	}
	if got := passCount(t, ts, hunter.ID, models.PassTypeResetFoul); got != 1 {
		t.Errorf("reset-foul passes after 1st win = %d, want 1", got)
	}
	if got := passCount(t, ts, hunter.ID, models.PassTypeBooster); got != 0 {
		t.Errorf("booster after 1st win = %d, want 0", got)
	}
	if got := reloadHunter(t, ts.DB, hunter.ID).ConsecutiveWins; got != 1 {
		t.Fatalf("consecutive wins = %d, want 1", got)
	}

	// 2nd consecutive win: booster granted, counter reset.
	if err := ts.Passes.recordWinAwardsTx(ts.DB, hunter.ID, "b2"); err != nil {
		t.Fatalf("recordWinAwardsTx (2nd): %v", err)
	}
	if got := passCount(t, ts, hunter.ID, models.PassTypeBooster); got != 1 {
		t.Errorf("booster after 2nd consecutive win = %d, want 1", got)
	}
	if got := reloadHunter(t, ts.DB, hunter.ID).ConsecutiveWins; got != 0 {
		t.Errorf("counter after booster grant = %d, want 0", got)
	}

	// A loss breaks the streak.
	if err := ts.Passes.recordWinAwardsTx(ts.DB, hunter.ID, "b3"); err != nil {
		t.Fatalf("recordWinAwardsTx (3rd): %v", err)
	}
	if err := ts.Passes.recordNonWinTx(ts.DB, hunter.ID); err != nil {
		t.Fatalf("recordNonWinTx: %v", err)
	}
	if got := reloadHunter(t, ts.DB, hunter.ID).ConsecutiveWins; got != 0 {
		t.Errorf("counter after loss = %d, want 0", got)
	}
}

func TestGrantMonthlySeasonalPassesOncePerMonth(t *testing.T) {
	ts := newTestServices(t)
	active := createTestHunter(t, ts.DB, "uma", 0)
	suspended := createTestHunter(t, ts.DB, "vero", 0)
	ends := time.Now().Add(72 * time.Hour)
	ts.DB.Model(&models.Hunter{}).Where("id = ?", suspended.ID).Updates(map[string]interface{}{
		"is_suspended":       true,
		"suspension_ends_at": ends,
	})

	if err := ts.Passes.GrantMonthlySeasonalPasses(); err != nil {
		t.Fatalf("GrantMonthlySeasonalPasses: %v", err)
	}
	if err := ts.Passes.GrantMonthlySeasonalPasses(); err != nil {
		t.Fatalf("GrantMonthlySeasonalPasses (repeat): %v", err)
	}

	if got := passCount(t, ts, active.ID, models.PassTypeSeasonal); got != 1 {
		t.Errorf("active hunter seasonal passes = %d, want 1 (repeat run must be a no-op)", got)
	}
	if got := passCount(t, ts, suspended.ID, models.PassTypeSeasonal); got != 0 {
		t.Errorf("suspended hunter seasonal passes = %d, want 0", got)
	}
}
