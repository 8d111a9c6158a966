package services

import (
	"testing"
	"time"
)

func TestRankReviewedOrdersByScore(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []RankedEntry{
		{HunterID: "low", TotalScore: 10, SubmittedAt: base, JoinedAt: base},
		{HunterID: "high", TotalScore: 24, SubmittedAt: base, JoinedAt: base},
		{HunterID: "mid", TotalScore: 15, SubmittedAt: base, JoinedAt: base},
	}

	ranked := RankReviewed(entries)

	wantOrder := []string{"high", "mid", "low"}
	for i, want := range wantOrder {
		if ranked[i].HunterID != want {
			t.Fatalf("position %d = %s, want %s", i, ranked[i].HunterID, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("rank for %s = %d, want %d", want, ranked[i].Rank, i+1)
		}
	}
}

func TestRankReviewedTieBreaks(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("earlier submission wins the tie", func(t *testing.T) {
		entries := []RankedEntry{
			{HunterID: "late", TotalScore: 20, SubmittedAt: base.Add(2 * time.Hour), JoinedAt: base},
			{HunterID: "early", TotalScore: 20, SubmittedAt: base, JoinedAt: base},
			{HunterID: "third", TotalScore: 15, SubmittedAt: base, JoinedAt: base},
		}
		ranked := RankReviewed(entries)
		if ranked[0].HunterID != "early" || ranked[1].HunterID != "late" {
			t.Errorf("tie order = %s, %s; want early, late", ranked[0].HunterID, ranked[1].HunterID)
		}
	})

	t.Run("join time breaks identical submissions", func(t *testing.T) {
		entries := []RankedEntry{
			{HunterID: "joined-late", TotalScore: 20, SubmittedAt: base, JoinedAt: base.Add(time.Minute)},
			{HunterID: "joined-first", TotalScore: 20, SubmittedAt: base, JoinedAt: base.Add(-time.Hour)},
		}
		ranked := RankReviewed(entries)
		if ranked[0].HunterID != "joined-first" {
			t.Errorf("winner = %s, want joined-first", ranked[0].HunterID)
		}
	})

	t.Run("deterministic regardless of input order", func(t *testing.T) {
		a := []RankedEntry{
			{HunterID: "x", TotalScore: 20, SubmittedAt: base, JoinedAt: base},
			{HunterID: "y", TotalScore: 20, SubmittedAt: base.Add(time.Second), JoinedAt: base},
		}
		b := []RankedEntry{a[1], a[0]}

		ra, rb := RankReviewed(a), RankReviewed(b)
		for i := range ra {
			if ra[i].HunterID != rb[i].HunterID {
				t.Fatalf("order differs by input order at %d: %s vs %s", i, ra[i].HunterID, rb[i].HunterID)
			}
		}
	})
}

func TestRankReviewedDoesNotMutateInput(t *testing.T) {
	base := time.Now()
	entries := []RankedEntry{
		{HunterID: "a", TotalScore: 5, SubmittedAt: base, JoinedAt: base},
		{HunterID: "b", TotalScore: 9, SubmittedAt: base, JoinedAt: base},
	}
	RankReviewed(entries)
	if entries[0].HunterID != "a" || entries[0].Rank != 0 {
		t.Errorf("input slice was mutated: %+v", entries[0])
	}
}
