package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/config"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/db"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/handlers"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/realtime"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/moderation"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/payments"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store/gormstore"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store/memstore"
)

func openStore(cfg config.Config) store.Store {
	if cfg.StoreDriver == config.StoreMemory {
		log.Println("Using in-memory store (data is lost on restart)")
		return memstore.New()
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}
	return gormstore.New(gdb)
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	st := openStore(cfg)

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis not reachable, notifications stay local:", err)
		rdb = nil
	}

	hub := realtime.NewHub()
	go hub.Run()

	verifier := verification.NewReader(st)
	scanner := moderation.Default()
	life := lifecycle.New(st, verifier, lifecycle.Config{
		TermsRevision:   cfg.TermsRevision,
		MessagingWindow: cfg.MessagingWindow,
		Notifier:        realtime.NewNotifier(hub, rdb),
	})
	engine := policy.NewEngine(verifier, life, scanner, policy.Config{
		TermsRevision: cfg.TermsRevision,
	})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Signature",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", cfg.UploadDir)

	handlers.Register(app, handlers.Deps{
		Store:     st,
		Engine:    engine,
		Lifecycle: life,
		Verifier:  verifier,
		Scanner:   scanner,
		Webhooks:  payments.NewWebhookService(cfg.WebhookSecret),
		Hub:       hub,

		JWTSecret:     cfg.JWTSecret,
		JWTExpiresMin: cfg.JWTExpiresMin,
		PlatformFee:   cfg.PlatformFeeCents,
		UploadDir:     cfg.UploadDir,
		PublicBaseURL: cfg.PublicBaseURL,

		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
