package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cf-coach/internal/achievements"
	"cf-coach/internal/cache"
	"cf-coach/internal/challenge"
	"cf-coach/internal/codeforces"
	"cf-coach/internal/config"
	"cf-coach/internal/goals"
	"cf-coach/internal/history"
	"cf-coach/internal/scheduler"
	"cf-coach/internal/storage"
	"cf-coach/internal/telegram"
	"cf-coach/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using system environment")
	}
	cfg := config.New()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	catalogs := cache.New(codeforces.NewClient(cfg.CodeforcesBaseURL), cfg.CatalogTTL, logger)
	users := user.NewRepo(store, logger)
	histories := history.NewRepo(store, logger)
	engine := achievements.NewEngine(users, logger)
	goalTracker := goals.NewTracker(store, logger)
	challenges := challenge.NewTracker(store, cfg.ChallengeMinRating, cfg.ChallengeMaxRating, logger)

	var api *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		api, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal("failed to initialize bot api", zap.Error(err))
		}
		logger.Info("bot authorized", zap.String("username", api.Self.UserName))
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set; inbound events will be rejected")
	}

	var dispatcher *telegram.Dispatcher
	if api != nil {
		dispatcher = telegram.NewDispatcher(
			telegram.NewSender(api, logger),
			catalogs, users, histories, engine, goalTracker, challenges, logger)
	}

	sched := scheduler.New(logger)
	sched.SetWarmFunction(func(ctx context.Context) {
		catalogs.Problems(ctx)
		catalogs.Contests(ctx)
	})
	sched.SetPrepareFunction(func(ctx context.Context) error {
		_, err := challenges.Ensure(ctx, catalogs.Problems(ctx))
		return err
	})
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PublicURL != "" {
		runWebhook(ctx, cfg, api, dispatcher, logger)
		return
	}

	if api == nil {
		logger.Fatal("long polling requires TELEGRAM_BOT_TOKEN")
	}
	telegram.NewBot(api, dispatcher, logger).Start(ctx)
}

func runWebhook(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, dispatcher *telegram.Dispatcher, logger *zap.Logger) {
	if api != nil {
		wh, err := tgbotapi.NewWebhook(cfg.PublicURL + "/webhook")
		if err != nil {
			logger.Fatal("invalid webhook URL", zap.Error(err))
		}
		if _, err := api.Request(wh); err != nil {
			logger.Fatal("failed to register webhook", zap.Error(err))
		}
	}

	srv := telegram.NewWebhook(dispatcher, api != nil, cfg.Port, logger)
	go func() {
		<-ctx.Done()
		if err := srv.Stop(); err != nil {
			logger.Warn("webhook shutdown failed", zap.Error(err))
		}
	}()
	if err := srv.Start(); err != nil {
		logger.Info("webhook server stopped", zap.Error(err))
	}
}
