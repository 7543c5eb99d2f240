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

	"github.com/noah-isme/friendzone-web/internal/chat"
	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/database"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/handler"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/internal/router"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/session"
)

const fanOutChannel = "friendzone"

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	api, err := friendzone.New(friendzone.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
		Headers: middleware.OutboundHeaders,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create friendzone client")
	}

	dataProvider, err := provider.New(&cfg, api, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create data provider")
	}

	sessions, err := session.New(&cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session store")
	}

	transports, err := chat.NewFactory(&cfg, redisClient, natsConn, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create chat transport")
	}

	backend, err := service.NewAssistantBackend(&cfg, api, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create assistant backend")
	}
	var assistant service.AssistantService
	if backend != nil {
		assistant = service.NewAssistantService(backend, logger)
	}

	notifications := service.NewNotificationService(redisClient, fanOutChannel, natsConn, logger)
	notifications.Start(ctx)

	renderer, err := render.New(time.Now)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	views := service.NewViewRegistry(service.ViewFactory{
		Provider:      dataProvider,
		Validator:     validate,
		Transports:    transports,
		Assistant:     assistant,
		Notifications: notifications,
		LeaveDelay:    cfg.LeaveRedirectDelay,
		Now:           time.Now,
		Logger:        logger,
	}, logger)
	defer views.Close()
	views.StartSweeper(ctx, cfg.SessionTTL)

	healthChecks := map[string]handler.Pinger{}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if natsConn != nil {
		healthChecks["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		CommunityListHandler:   handler.NewCommunityListHandler(views, renderer, notifications, logger).WithRenderBudget(cfg.PageRenderBudget),
		CommunityDetailHandler: handler.NewCommunityDetailHandler(views, renderer, notifications, validate, logger),
		ChatHandler:            handler.NewChatHandler(views, renderer, logger),
		NotificationHandler:    handler.NewNotificationHandler(notifications, logger, 15*time.Second),
		SessionHandler:         handler.NewSessionHandler(sessions, views, validate, logger),
		HealthChecks:           healthChecks,
		SessionMiddleware: middleware.Session(middleware.SessionConfig{
			Store:  sessions,
			TTL:    cfg.SessionTTL,
			Secure: cfg.AppEnv == "production",
			Logger: logger,
		}),
		BearerMiddleware: middleware.BearerToken(time.Now),
		WriteLimiter:     middleware.RateLimit("writes", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("provider", cfg.ProviderMode).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
