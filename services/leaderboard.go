package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"bounty-competition-system/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const leaderboardKey = "leaderboard:xp:season"

// LeaderboardEntry is one row of the season XP leaderboard.
type LeaderboardEntry struct {
	HunterID string `json:"hunter_id"`
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Position int64  `json:"position"` // 1-based
}

// LeaderboardService keeps a Redis ZSET of hunter XP as a read cache. It is
// optional: a nil service (REDIS_ADDR unset) degrades every call to the DB
// path or a no-op.
type LeaderboardService struct {
	client *redis.Client
	DB     *gorm.DB
}

// NewLeaderboardService connects from env; returns nil when REDIS_ADDR is
// unset so callers can stay nil-tolerant.
func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("⚠️  REDIS_ADDR not set — XP leaderboard cache disabled, serving from DB")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unreachable (%v) — XP leaderboard cache disabled", err)
		return nil
	}
	return &LeaderboardService{client: client, DB: db}
}

// SetXP pushes a hunter's new XP total into the cache. Best-effort.
func (s *LeaderboardService) SetXP(hunterID string, xp int64) {
	if s == nil || s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(xp),
		Member: hunterID,
	}).Err(); err != nil {
		log.Printf("⚠️  Leaderboard ZADD failed for hunter %s: %v", hunterID, err)
	}
}

// Top returns the highest-XP hunters. Falls back to the DB when the cache
// is disabled or empty.
func (s *LeaderboardService) Top(ctx context.Context, db *gorm.DB, n int) ([]LeaderboardEntry, error) {
	if n < 1 || n > 100 {
		n = 25
	}

	if s != nil && s.client != nil {
		zs, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
		if err == nil && len(zs) > 0 {
			entries := make([]LeaderboardEntry, 0, len(zs))
			ids := make([]string, 0, len(zs))
			for _, z := range zs {
				ids = append(ids, z.Member.(string))
			}
			names := hunterNames(db, ids)
			for i, z := range zs {
				id := z.Member.(string)
				entries = append(entries, LeaderboardEntry{
					HunterID: id,
					Username: names[id],
					XP:       int64(z.Score),
					Position: int64(i + 1),
				})
			}
			return entries, nil
		}
		if err != nil {
			log.Printf("⚠️  Leaderboard read failed, falling back to DB: %v", err)
		}
	}

	var hunters []models.Hunter
	if err := db.Order("xp DESC").Limit(n).Find(&hunters).Error; err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(hunters))
	for i, h := range hunters {
		entries[i] = LeaderboardEntry{HunterID: h.ID, Username: h.Username, XP: h.XP, Position: int64(i + 1)}
	}
	return entries, nil
}

// AroundHunter returns the hunter's position ±radius from the cache.
func (s *LeaderboardService) AroundHunter(ctx context.Context, db *gorm.DB, hunterID string, radius int64) ([]LeaderboardEntry, error) {
	if s == nil || s.client == nil {
		return nil, models.PreconditionError("leaderboard cache is disabled")
	}
	rank, err := s.client.ZRevRank(ctx, leaderboardKey, hunterID).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError("hunter %s is not on the leaderboard", hunterID)
	}
	if err != nil {
		return nil, err
	}

	lower := rank - radius
	if lower < 0 {
		lower = 0
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, lower, rank+radius).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(zs))
	for _, z := range zs {
		ids = append(ids, z.Member.(string))
	}
	names := hunterNames(db, ids)

	entries := make([]LeaderboardEntry, len(zs))
	for i, z := range zs {
		id := z.Member.(string)
		entries[i] = LeaderboardEntry{
			HunterID: id,
			Username: names[id],
			XP:       int64(z.Score),
			Position: lower + int64(i) + 1,
		}
	}
	return entries, nil
}

// Rebuild reloads the whole ZSET from the hunters table; run by the
// reconciliation worker, safe to repeat.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	var hunters []models.Hunter
	if err := s.DB.Select("id", "xp").Find(&hunters).Error; err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, h := range hunters {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(h.XP), Member: h.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	log.Printf("🔁 Leaderboard cache rebuilt (%s hunters)", strconv.Itoa(len(hunters)))
	return nil
}

func hunterNames(db *gorm.DB, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	var hunters []models.Hunter
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&hunters).Error; err != nil {
		log.Printf("⚠️  Leaderboard name lookup failed: %v", err)
		return names
	}
	for _, h := range hunters {
		names[h.ID] = h.Username
	}
	return names
}
