package services

import (
	"context"
	"testing"

	"bounty-competition-system/models"
)

func TestLeaderboardTopFallsBackToDB(t *testing.T) {
	ts := newTestServices(t)
	createTestHunter(t, ts.DB, "bronze-one", 1000)
	createTestHunter(t, ts.DB, "gold-one", 45000)
	createTestHunter(t, ts.DB, "silver-one", 20000)

	// With the cache disabled the board is served straight from the DB.
	var lb *LeaderboardService
	entries, err := lb.Top(context.Background(), ts.DB, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	wantOrder := []string{"gold-one", "silver-one", "bronze-one"}
	for i, want := range wantOrder {
		if entries[i].Username != want {
			t.Errorf("position %d = %s, want %s", i+1, entries[i].Username, want)
		}
		if entries[i].Position != int64(i+1) {
			t.Errorf("position field = %d, want %d", entries[i].Position, i+1)
		}
	}
}

func TestLeaderboardAroundHunterRequiresCache(t *testing.T) {
	ts := newTestServices(t)
	var lb *LeaderboardService
	_, err := lb.AroundHunter(context.Background(), ts.DB, "some-id", 2)
	if models.KindOf(err) != models.ErrKindPrecondition {
		t.Errorf("AroundHunter without cache: got %v, want precondition error", err)
	}
}

func TestNilLeaderboardWritesAreNoOps(t *testing.T) {
	var lb *LeaderboardService
	lb.SetXP("hunter", 100) // must not panic
	if err := lb.Rebuild(context.Background()); err != nil {
		t.Errorf("Rebuild on disabled cache: %v", err)
	}
}
