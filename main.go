package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"image-giveaway/assets"
	"image-giveaway/config"
	"image-giveaway/database"
	"image-giveaway/handlers"
	"image-giveaway/middleware"
	"image-giveaway/services"
	"image-giveaway/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize asset store: ", err)
	}

	hub := services.NewEventHub()
	gameService := services.NewGameService(db, store, hub)

	sched, err := gameService.StartScheduler(ctx, services.ScheduleConfig{
		RevealInterval: cfg.RevealInterval,
		ResendInterval: cfg.ResendInterval,
	})
	if err != nil {
		log.Fatal(err)
	}
	go workers.PollPendingCredits(ctx, gameService.Ledger, cfg.CreditRetryInterval)

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOriginsHeader(),
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupGameRoutes(app, handlers.NewGameHandler(gameService, hub), cfg.AdminUserID)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Printf("✅ Reveal cycle every %s, resend drain every %s", cfg.RevealInterval, cfg.ResendInterval)
	log.Printf("✅ Pending credit retry every %s", cfg.CreditRetryInterval)
	log.Printf("✅ Assets served from %s backend", cfg.AssetBackend)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOriginsHeader())

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newAssetStore(ctx context.Context, cfg *config.Config) (assets.Store, error) {
	if cfg.AssetBackend == config.AssetBackendR2 {
		return assets.NewR2Store(ctx, assets.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			OriginalsPrefix: cfg.OriginalsPrefix,
			TeasersPrefix:   cfg.TeasersPrefix,
		})
	}
	return assets.NewFileStore(cfg.AssetDir, cfg.OriginalsPrefix, cfg.TeasersPrefix)
}
