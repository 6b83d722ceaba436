package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gatebot/internal/bootstrap"
	"gatebot/internal/bot"
	"gatebot/internal/config"
	cronpkg "gatebot/internal/cron"
	"gatebot/internal/gate"
	"gatebot/internal/middleware"
	"gatebot/internal/pkg/telegram"
	"gatebot/internal/repository"
	"gatebot/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// --- Telegram Bot API (direct HTTP client) ---
	botAPI := telegram.NewBotAPI(cfg.Bot.Token)

	// --- Session store (Redis with in-memory fallback) ---
	sessions, sessErr := gate.NewSessionStore(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Bot.SessionTTL,
	)
	if sessErr != nil {
		logger.Warn("Redis unavailable for sessions, using in-memory fallback", zap.Error(sessErr))
	}

	// --- Webhook deduper (Redis with in-memory fallback) ---
	updateDeduper, dedupeErr := middleware.NewUpdateDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Bot ---
	repos := &bot.Repos{
		Channel: repository.NewChannelRepository(db),
		Link:    repository.NewAccessLinkRepository(db),
	}
	teleBot, err := bot.New(cfg, repos, botAPI, sessions, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// --- Routes ---
	router.Setup(e, logger, updateDeduper, teleBot.WebhookHandler())

	// --- Cron Scheduler ---
	botID, err := botAPI.GetMe()
	if err != nil {
		logger.Fatal("Failed to query bot identity", zap.Error(err))
	}
	scheduler := cronpkg.New(cfg, repos.Channel, sessions, botAPI, botID, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting gatebot server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	go teleBot.Start()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	teleBot.Stop()

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
