package services

import (
	"strconv"
	"strings"

	"bounty-competition-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HunterService serves hunter-facing read endpoints: profile/progression,
// fouls, passes, wallet, leaderboard.
type HunterService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Fouls       *FoulService
	Passes      *PassService
	Wallet      *WalletService
	Performance *PerformanceService
	Leaderboard *LeaderboardService
}

func NewHunterService(db *gorm.DB, progression *ProgressionService, fouls *FoulService,
	passes *PassService, wallet *WalletService, performance *PerformanceService,
	leaderboard *LeaderboardService) *HunterService {
	return &HunterService{
		DB:          db,
		Progression: progression,
		Fouls:       fouls,
		Passes:      passes,
		Wallet:      wallet,
		Performance: performance,
		Leaderboard: leaderboard,
	}
}

// HandleGetProfile: GET /s/hunters/me
func (s *HunterService) HandleGetProfile(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.EnsureHunter(externalID)
	if err != nil {
		return respondError(c, err)
	}

	var wins int64
	s.DB.Model(&models.BountyRanking{}).
		Where("hunter_id = ? AND rank = 1", hunter.ID).
		Count(&wins)

	return c.JSON(fiber.Map{
		"hunter":       hunter,
		"bounties_won": wins,
	})
}

// HandleGetFouls: GET /s/hunters/me/fouls
func (s *HunterService) HandleGetFouls(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	records, err := s.Fouls.GetHunterFouls(hunter.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// HandleGetPasses: GET /s/hunters/me/passes
func (s *HunterService) HandleGetPasses(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	inventory, err := s.Passes.GetInventory(hunter.ID)
	if err != nil {
		return respondError(c, err)
	}
	history, err := s.Passes.GetUsageHistory(hunter.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"inventory":        inventory,
		"usage_history":    history,
		"consecutive_wins": hunter.ConsecutiveWins,
	})
}

// HandleRedeemPass: POST /s/hunters/me/passes/:type/redeem
func (s *HunterService) HandleRedeemPass(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		BountyID     string `json:"bounty_id"`
		FoulRecordID string `json:"foul_record_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	passType := strings.ToLower(c.Params("type"))
	switch passType {
	case models.PassTypeTimeExtension:
		if req.BountyID == "" {
			return respondError(c, models.ValidationError("bounty_id is required"))
		}
		usage, err := s.Passes.RedeemTimeExtension(hunter.ID, req.BountyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(usage)
	case models.PassTypeResetFoul:
		if req.FoulRecordID == "" {
			return respondError(c, models.ValidationError("foul_record_id is required"))
		}
		usage, err := s.Passes.RedeemCleanSlate(hunter.ID, req.FoulRecordID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(usage)
	case models.PassTypeBooster:
		if req.BountyID == "" {
			return respondError(c, models.ValidationError("bounty_id is required"))
		}
		usage, err := s.Passes.RedeemBooster(hunter.ID, req.BountyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(usage)
	case models.PassTypeSeasonal:
		return respondError(c, s.Passes.RedeemSeasonal(hunter.ID))
	default:
		return respondError(c, models.ValidationError("unknown pass type %q", passType))
	}
}

// HandleGetWallet: GET /s/hunters/me/wallet
func (s *HunterService) HandleGetWallet(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	txns, err := s.Wallet.GetTransactions(hunter.ID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"balance":      hunter.WalletBalance,
		"transactions": txns,
	})
}

// HandleGetPerformance: GET /s/hunters/me/performance
func (s *HunterService) HandleGetPerformance(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	score, entries, err := s.Performance.GetHunterPerformance(hunter.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"score":               score,
		"bounty_scores":       entries,
		"bounties_calculated": len(entries),
	})
}

// HandleGetLeaderboard: GET /s/leaderboard
func (s *HunterService) HandleGetLeaderboard(c *fiber.Ctx) error {
	n, _ := strconv.Atoi(c.Query("limit", "25"))
	entries, err := s.Leaderboard.Top(c.Context(), s.DB, n)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// HandleGetLeaderboardAroundMe: GET /s/leaderboard/me
func (s *HunterService) HandleGetLeaderboardAroundMe(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	hunter, err := s.Progression.HunterByExternalID(externalID)
	if err != nil {
		return respondError(c, err)
	}
	entries, err := s.Leaderboard.AroundHunter(c.Context(), s.DB, hunter.ID, 5)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// HandleSearchHunters: GET /hunters/search (roster pickers)
func (s *HunterService) HandleSearchHunters(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var hunters []models.Hunter
	db := s.DB.Model(&models.Hunter{}).Limit(limit)
	if query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", term, term)
	}
	if err := db.Find(&hunters).Error; err != nil {
		return respondError(c, err)
	}

	type HunterSummary struct {
		ID             string `json:"id"`
		ExternalUserID string `json:"external_user_id"`
		Username       string `json:"username"`
		Tier           string `json:"tier"`
		Rank           string `json:"rank"`
	}
	res := make([]HunterSummary, len(hunters))
	for i, h := range hunters {
		res[i] = HunterSummary{
			ID:             h.ID,
			ExternalUserID: h.ExternalUserID,
			Username:       h.Username,
			Tier:           h.Tier,
			Rank:           h.Rank,
		}
	}
	return c.JSON(res)
}
