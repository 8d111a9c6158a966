// handlers/hunter.go
package handlers

import (
	"bounty-competition-system/middleware"
	"bounty-competition-system/models"
	"bounty-competition-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupHunterRoutes(app *fiber.App, hunterService *services.HunterService,
	notificationService *services.NotificationService,
	foulService *services.FoulService, passService *services.PassService,
	progressionService *services.ProgressionService) {
	// 🔓 Public routes
	app.Get("/hunters/search", hunterService.HandleSearchHunters)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Hunter profile and history
	secured.Get("/hunters/me", hunterService.HandleGetProfile)
	secured.Get("/hunters/me/fouls", hunterService.HandleGetFouls)
	secured.Get("/hunters/me/wallet", hunterService.HandleGetWallet)
	secured.Get("/hunters/me/performance", hunterService.HandleGetPerformance)

	// Pass inventory and redemption
	secured.Get("/hunters/me/passes", hunterService.HandleGetPasses)
	secured.Post("/hunters/me/passes/:type/redeem", hunterService.HandleRedeemPass)

	// Leaderboard
	secured.Get("/leaderboard", hunterService.HandleGetLeaderboard)
	secured.Get("/leaderboard/me", hunterService.HandleGetLeaderboardAroundMe)

	// Notifications (poll, mark, SSE stream)
	secured.Get("/hunters/me/notifications", notificationService.HandleGetNotifications)
	secured.Post("/hunters/me/notifications/viewed", notificationService.HandleMarkViewed)
	secured.Get("/hunters/me/notifications/stream", notificationService.StreamNotificationsSSE)

	// 🔒 Admin-only routes
	admin := secured.Group("/admin", middleware.RequireRole("admin"))

	admin.Delete("/fouls/:id", func(c *fiber.Ctx) error {
		if err := foulService.RemoveFoul(c.Params("id")); err != nil {
			if models.IsNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "foul record not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "foul removal failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "foul removed and penalty refunded"})
	})

	admin.Patch("/fouls/:id/penalty", func(c *fiber.Ctx) error {
		type Req struct {
			Penalty int64 `json:"penalty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := foulService.ReducePenalty(c.Params("id"), req.Penalty); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "penalty reduction failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "penalty reduced", "penalty": req.Penalty})
	})

	admin.Post("/passes/grant", func(c *fiber.Ctx) error {
		type Req struct {
			HunterID string `json:"hunter_id"`
			PassType string `json:"pass_type"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := passService.AwardPass(req.HunterID, req.PassType, models.PassSourceAdminGrant); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "pass grant failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":   "pass granted successfully",
			"hunter_id": req.HunterID,
			"pass_type": req.PassType,
		})
	})

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			HunterID string `json:"hunter_id"`
			XP       int64  `json:"xp"`
			Reason   string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		hunter, err := progressionService.AwardXP(req.HunterID, req.XP, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP award failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":   "XP granted successfully",
			"hunter_id": req.HunterID,
			"xp":        hunter.XP,
			"tier":      hunter.Tier,
			"rank":      hunter.Rank,
		})
	})
}
