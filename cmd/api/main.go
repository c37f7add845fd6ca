package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"cvbuilder/internal/api"
	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/auth"
	"cvbuilder/internal/classroom"
	"cvbuilder/internal/config"
	"cvbuilder/internal/database"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/mailer"
	"cvbuilder/internal/payment"
	"cvbuilder/internal/pdf"
	"cvbuilder/internal/savedcv"
	"cvbuilder/internal/storage"
	"cvbuilder/internal/textgen"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	passes, err := auth.NewAccessPassService([]byte(cfg.Access.SigningSecret), cfg.Access.PassTTL, cfg.Access.TeacherSessionTTL)
	if err != nil {
		log.Fatalf("init access pass service: %v", err)
	}

	generator, err := textgen.NewGeminiGenerator(context.Background(), cfg.TextGen)
	if err != nil {
		log.Fatalf("init text generator: %v", err)
	}
	defer generator.Close()

	stripeService, err := payment.NewStripeService(cfg.Stripe)
	if err != nil {
		log.Fatalf("init stripe: %v", err)
	}

	var receipts mailer.Sender
	if cfg.Email.Enabled() {
		receipts = mailer.NewSMTPSender(cfg.Email)
	} else {
		logger.Warn("smtp not configured, receipts will be skipped")
	}

	renderer := pdf.NewRodRenderer(cfg.PDF, logger)
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Error("close browser failed", slog.Any("error", err))
		}
	}()

	savedStore := savedcv.NewStore(redisClient, db, savedcv.DefaultSessionTTL, logger)
	classes := classroom.NewService(db, cfg.Classroom, logger)
	gate := entitlement.Gate{PriceMinor: cfg.Stripe.PriceMinor}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Handlers{
		Session:  middleware.SessionMiddleware(passes, redisClient, cfg.API.CookieDomain),
		CV:       api.NewCVHandler(generator, savedStore, classes, gate),
		Export:   api.NewExportHandler(renderer, savedStore, gate, asynqClient, redisClient, storageClient, cfg.MinIO.LinkTTL),
		Payments: api.NewPaymentHandler(stripeService, stripeService, passes, redisClient, db, receipts, cfg.API.CookieDomain, cfg.API.PublicBaseURL),
		Sessions: api.NewSessionHandler(redisClient, passes, savedStore, storageClient, cfg.API.CookieDomain, cfg.Access.PINMaxAttempts, cfg.Access.PINWindow),
		Classes:  api.NewClassHandler(classes),
		Ws:       api.NewWsHandler(redisClient, logger, cfg.API.Origins()),
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
