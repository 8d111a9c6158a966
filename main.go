package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounty-competition-system/handlers"
	"bounty-competition-system/middleware"
	"bounty-competition-system/models"
	"bounty-competition-system/services"
	"bounty-competition-system/utils"
	"bounty-competition-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // 512MB — submission archives can be large
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Hunter{},
		&models.SuspensionRecord{},
		&models.Bounty{},
		&models.BountyParticipation{},
		&models.Submission{},
		&models.SubmissionFile{},
		&models.Review{},
		&models.BountyResult{},
		&models.BountyRanking{},
		&models.BountyNonSubmitter{},
		&models.FoulType{},
		&models.FoulRecord{},
		&models.HunterPass{},
		&models.PassUsage{},
		&models.Transaction{},
		&models.Notification{},
		&models.PerformanceEntry{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	leaderboardService := services.NewLeaderboardService(db)
	progressionService := services.NewProgressionService(db, leaderboardService)
	notifier := services.NewDBNotifier(db)
	foulService := services.NewFoulService(db, progressionService, notifier)
	passService := services.NewPassService(db, foulService, notifier)
	walletService := services.NewWalletService(db)
	performanceService := services.NewPerformanceService(db)
	bountyService := services.NewBountyService(db, progressionService, foulService, notifier)
	reviewService := services.NewReviewService(db)
	resultService := services.NewResultService(db, progressionService, performanceService,
		foulService, passService, walletService, notifier)
	hunterService := services.NewHunterService(db, progressionService, foulService,
		passService, walletService, performanceService, leaderboardService)
	notificationService := services.NewNotificationService(db, progressionService)

	// Seed the foul catalog before any foul can be recorded
	if err := foulService.SeedFoulTypes(); err != nil {
		log.Fatal("failed to seed foul types:", err)
	}

	// --- CONFIGURE Sync Service Details for Hunters ---
	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("BOUNTY_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("BOUNTY_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewHunterSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Hunter Sync Worker...")
		syncWorker.Start(ctx)
	}()

	go workers.PollLeaderboard(ctx, leaderboardService, 5*time.Minute)

	services.StartBountyScheduler(bountyService, resultService, foulService, passService)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupBountyRoutes(app, bountyService, reviewService, resultService, progressionService)
	handlers.SetupHunterRoutes(app, hunterService, notificationService, foulService, passService, progressionService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Hunter Sync Worker running")
	log.Println("✅ Leaderboard refresh running (every 5m)")
	log.Println("✅ Bounty scheduler running (activation, closure, results, suspensions)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
