package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Gautam-813/gauravphotoviewer/internal/config"
	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/handlers"
	"github.com/Gautam-813/gauravphotoviewer/internal/logging"
	"github.com/Gautam-813/gauravphotoviewer/internal/services"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Telegram Image Gallery...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s)", cfg.Port, cfg.StorePath)
	if cfg.TelegramBotToken == "" {
		log.Println("⚠️  TELEGRAM_BOT_TOKEN not set - ingestion and backfill disabled, serving existing gallery only")
	}
	if cfg.TelegramChatID == 0 {
		log.Println("⚠️  TELEGRAM_CHAT_ID not set - backfill disabled")
	}

	// Load the persisted gallery; a missing or corrupt file degrades to an
	// empty collection, never a startup failure.
	store := gallery.New(cfg.StorePath, logging.WithComponent("gallery"))
	loaded := store.Load()
	log.Printf("🖼️  Gallery loaded with %d images", loaded)

	// Telegram client; construction is offline, so a bad token surfaces on
	// first use instead of crashing the server.
	bot := telegram.NewClient(cfg.TelegramBotToken, telegram.Options{
		APIHost:   cfg.TelegramAPIEndpoint,
		RateLimit: cfg.TelegramRateLimit,
		Logger:    logging.WithComponent("telegram"),
	})

	// Initialize services
	metrics := services.InitMetrics()
	ingestService := services.NewIngestService(bot, store, metrics, logging.WithComponent("ingest"))
	backfillService := services.NewBackfillService(bot, ingestService, store,
		cfg.TelegramChatID, cfg.BackfillPageSize, cfg.BackfillMaxPhotos,
		metrics, logging.WithComponent("backfill"))
	log.Println("✅ Services initialized")

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(ingestService, logging.WithComponent("webhook"))
	galleryHandler := handlers.NewGalleryHandler(store, logging.WithComponent("gallery"))
	backfillHandler := handlers.NewBackfillHandler(backfillService, bot, cfg.PublicBaseURL, logging.WithComponent("backfill"))
	healthHandler := handlers.NewHealthHandler(store)

	app := fiber.New(fiber.Config{
		AppName: "Telegram Image Gallery",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("gauravphotoviewer")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Routes
	app.Get("/", galleryHandler.HandlePage)
	app.Get("/api/images", galleryHandler.HandleImages)
	app.Get("/api/test-data", galleryHandler.HandleTestData)
	app.Post(services.WebhookPath, webhookHandler.HandleTelegramWebhook)
	app.Post("/api/backfill", backfillHandler.HandleRun)
	app.Get("/setup-webhook", backfillHandler.HandleSetupWebhook)
	app.Get("/health", healthHandler.Handle)

	// One-time backfill when starting with an empty gallery
	if cfg.BackfillOnStart && loaded == 0 {
		go func() {
			// Give the server a moment to come up so the restored webhook
			// has something to deliver to.
			time.Sleep(2 * time.Second)
			log.Println("🔄 Running startup backfill (empty gallery)...")
			result, err := backfillService.Run(context.Background(), cfg.PublicBaseURL)
			if err != nil {
				log.Printf("❌ Startup backfill failed: %v", err)
				return
			}
			log.Printf("✅ Startup backfill complete: found=%d added=%d webhook_restored=%v",
				result.Found, result.Added, result.WebhookRestored)
		}()
	}

	// Periodic backfill job
	if cfg.BackfillInterval > 0 {
		scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
		if err != nil {
			log.Fatalf("❌ Failed to create scheduler: %v", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.BackfillInterval),
			gocron.NewTask(func() {
				result, err := backfillService.Run(context.Background(), cfg.PublicBaseURL)
				if errors.Is(err, services.ErrBackfillBusy) {
					log.Println("⏭️  Scheduled backfill skipped: a run is already in progress")
					return
				}
				if err != nil {
					log.Printf("❌ Scheduled backfill failed: %v", err)
					return
				}
				log.Printf("✅ Scheduled backfill complete: found=%d added=%d", result.Found, result.Added)
			}),
			gocron.WithName("backfill"),
		)
		if err != nil {
			log.Fatalf("❌ Failed to schedule backfill job: %v", err)
		}
		scheduler.Start()
		log.Printf("⏰ Periodic backfill scheduled every %v", cfg.BackfillInterval)
	}

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
