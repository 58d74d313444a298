package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cardlink/config"
	"cardlink/internal/auth"
	"cardlink/internal/handler"
	"cardlink/internal/hub"
	"cardlink/internal/payment"
	"cardlink/internal/repository"
	"cardlink/internal/store"
	"cardlink/traits/database"
	"cardlink/traits/logger"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	zapLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()

	// Validate configuration
	if err := cfg.ValidateConfig(); err != nil {
		zapLogger.Error("invalid configuration", zap.Error(err))
		return
	}

	zapLogger.Info("Starting CardLink application",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.Bool("demo_mode", cfg.DemoMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the backend variant once at startup: SQL + Stripe in normal
	// operation, in-memory + offline payments in demo mode.
	var stores store.Stores
	var payments payment.Client

	if cfg.DemoMode {
		zapLogger.Warn("Payment credentials not configured, running in demo mode")

		stores = store.NewMemoryStores().Stores()
		payments = payment.NewOfflineClient(cfg.StripeWebhookSecret, cfg.BaseURL, zapLogger)

		demo, err := auth.SeedDemoProfile(ctx, stores.Profiles)
		if err != nil {
			zapLogger.Error("failed to seed demo profile", zap.Error(err))
			return
		}
		zapLogger.Info("Demo profile ready", zap.String("email", demo.Email))
	} else {
		db, err := database.InitDatabase(cfg, zapLogger)
		if err != nil {
			zapLogger.Error("failed to initialize database", zap.Error(err))
			return
		}
		defer db.Close()

		if err := database.CreateTables(db, zapLogger); err != nil {
			zapLogger.Error("failed to create tables", zap.Error(err))
			return
		}

		stores = repository.NewStores(db, zapLogger)
		payments = payment.NewStripeClient(
			cfg.StripeSecretKey, cfg.StripeWebhookSecret,
			cfg.SuccessURL(), cfg.CancelURL(), zapLogger,
		)
	}

	// Sessions live in Redis when configured, in process memory otherwise
	var sessions auth.SessionStore
	if cfg.RedisAddr != "" {
		redisSessions, err := auth.NewRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			zapLogger.Error("failed to connect to redis", zap.Error(err))
			return
		}
		defer redisSessions.Close()
		sessions = redisSessions
		zapLogger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		sessions = auth.NewMemorySessionStore()
	}

	events := hub.NewHub(zapLogger)
	authMgr := auth.NewManager(stores.Profiles, sessions, events, cfg.SessionTTL, zapLogger)
	handl := handler.NewHandler(cfg, zapLogger, stores, payments, authMgr, events)

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-stop
		zapLogger.Info("Shutdown signal received")
		cancel()
	}()

	handl.StartWebServer(ctx)

	zapLogger.Info("Application stopped successfully")
}
