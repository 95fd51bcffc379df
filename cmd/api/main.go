package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/config"
	"github.com/noah-isme/bring-api/internal/database"
	"github.com/noah-isme/bring-api/internal/handler"
	"github.com/noah-isme/bring-api/internal/middleware"
	"github.com/noah-isme/bring-api/internal/observability"
	"github.com/noah-isme/bring-api/internal/repository"
	"github.com/noah-isme/bring-api/internal/router"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/pkg/ai"
	cloud "github.com/noah-isme/bring-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, feed cache and redis fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	generator, err := newGenerator(cfg.AI)
	if err != nil {
		log.Fatalf("failed to create ai generator: %v", err)
	}

	gateway, err := ai.NewGateway(ai.GatewayConfig{
		Generator:  generator,
		GatedNames: cfg.AI.GatedNames,
		Timeout:    cfg.AI.Timeout,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai gateway: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	dreamRepo := repository.NewDreamRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	aiCommentRepo := repository.NewAICommentRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxMB, logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, validate, logger)
	userService := service.NewUserService(userRepo, followRepo, uploadService, validate, logger)
	graphService := service.NewSocialGraphService(followRepo, userRepo, notificationService, logger)
	dreamService := service.NewDreamService(dreamRepo, userRepo, redisClient, cfg.FeedCacheTTL, validate, logger)
	commentService := service.NewCommentService(commentRepo, dreamRepo, userRepo, notificationService, validate, logger)
	aiCommentService := service.NewAICommentService(aiCommentRepo, dreamRepo, userRepo, gateway, cfg.AI.MaxPerDream, logger)
	chatService := service.NewChatService(chatRepo, userRepo, notificationService, uploadService, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	notificationService.Start(rootCtx)
	chatService.Start(rootCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger),
		UserHandler:           handler.NewUserHandler(userService, dreamService, logger),
		FollowHandler:         handler.NewFollowHandler(graphService, userService, logger),
		DreamHandler:          handler.NewDreamHandler(dreamService, commentService, logger),
		InterpretationHandler: handler.NewInterpretationHandler(aiCommentService, middleware.RateLimit("interpretations", 5, time.Minute), logger),
		ChatHandler:           handler.NewChatHandler(chatService, logger),
		NotificationHandler:   handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		AdminHandler:          handler.NewAdminHandler(graphService, dreamService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("ai_provider", generator.Name()).Msg("bring api started")
	waitForShutdown(app, cancelRoot)
}

func newGenerator(cfg config.AIConfig) (ai.Generator, error) {
	if cfg.Provider == "openai" {
		return ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			MaxTokens:   800,
			Temperature: 0.8,
		})
	}
	return ai.NewGeminiGenerator(ai.GeminiConfig{
		Endpoint: cfg.GeminiURL,
		APIKey:   cfg.GeminiAPIKey,
		Timeout:  cfg.Timeout,
	})
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
