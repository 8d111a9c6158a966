package services

import (
	"sort"
	"time"
)

// RankedEntry is one reviewed participant going into the ranking sort.
type RankedEntry struct {
	ParticipationID string
	HunterID        string
	TotalScore      int
	SubmittedAt     time.Time
	JoinedAt        time.Time
	Rank            int // assigned by RankReviewed
}

// RankReviewed orders reviewed participants by total score descending and
// assigns 1-based ranks. Ties break on earlier submission, then on earlier
// join time, so the ordering is deterministic regardless of input order.
// Rank 1 is the winner; the last position is last place.
func RankReviewed(entries []RankedEntry) []RankedEntry {
	ranked := make([]RankedEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
