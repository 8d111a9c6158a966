package workers

import (
	"context"
	"log"
	"time"

	"bounty-competition-system/services"
)

// PollLeaderboard periodically rebuilds the Redis XP leaderboard from the
// hunters table. Incremental SetXP writes keep the board fresh between
// rebuilds; the full rebuild heals any drift (missed writes, Redis restarts).
func PollLeaderboard(ctx context.Context, leaderboard *services.LeaderboardService, pollInterval time.Duration) {
	if leaderboard == nil {
		log.Println("➡️ Leaderboard refresh disabled (no Redis configured).")
		return
	}

	log.Println("Starting leaderboard refresh polling (Redis-backed)...")

	// Initial rebuild on startup so the board is populated before traffic
	if err := leaderboard.Rebuild(ctx); err != nil {
		log.Printf("⚠️ Initial leaderboard rebuild failed: %v", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard refresh polling stopped.")
			return
		case <-ticker.C:
			start := time.Now()
			if err := leaderboard.Rebuild(ctx); err != nil {
				log.Printf("❌ Leaderboard rebuild failed: %v", err)
				continue
			}
			log.Printf("✅ Leaderboard rebuilt in %s.", time.Since(start).Round(time.Millisecond))
		}
	}
}
