package handlers

import (
	"bounty-competition-system/middleware"
	"bounty-competition-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService, reviewService *services.ReviewService,
	resultService *services.ResultService, progressionService *services.ProgressionService) {
	// 🔓 Public routes (only published bounties)
	app.Get("/bounties/published", bountyService.HandleGetPublishedBounties)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Bounty CRUD (lord side)
	secured.Post("/bounties", bountyService.HandleCreateBounty)
	secured.Get("/bounties/mine", bountyService.HandleGetMyBounties)
	secured.Get("/bounties/:id", bountyService.HandleGetBounty)
	secured.Put("/bounties/:id", bountyService.HandleUpdateBounty)
	secured.Delete("/bounties/:id", bountyService.HandleDeleteBounty)

	// Lifecycle transitions
	secured.Post("/bounties/:id/publish", bountyService.HandlePublishBounty)
	secured.Post("/bounties/:id/cancel", bountyService.HandleCancelBounty)

	// Hunter participation
	secured.Post("/bounties/:id/join", bountyService.HandleJoinBounty)
	secured.Post("/bounties/:id/withdraw", bountyService.HandleWithdrawBounty)
	secured.Post("/bounties/:id/submit", bountyService.HandleSubmitWork)

	// Review flow
	secured.Post("/bounties/:id/submissions/:hunter_id/review", reviewService.HandleReviewSubmission)
	secured.Get("/bounties/:id/my-review", func(c *fiber.Ctx) error {
		return reviewService.HandleGetMyReview(c, progressionService)
	})

	// Results
	secured.Post("/bounties/:id/result", resultService.HandlePostResult)
	secured.Get("/bounties/:id/result", resultService.HandleGetResult)
}
