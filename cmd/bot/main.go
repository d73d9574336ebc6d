package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"checkin-bot/internal/config"
	"checkin-bot/internal/conversation"
	"checkin-bot/internal/daily"
	"checkin-bot/internal/llm"
	"checkin-bot/internal/scheduler"
	"checkin-bot/internal/store"
	"checkin-bot/internal/telegram"
	"checkin-bot/internal/web"
)

const initialContextFile = "initial_context.json"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(".env"); err != nil {
		logger.Info(".env file not found, relying on process environment")
	}

	cfg, err := config.New()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.MongoURI != "" {
		ms, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("failed to connect to mongodb", zap.Error(err))
		}
		defer func() { _ = ms.Close(context.Background()) }()
		st = ms
	} else {
		logger.Warn("MONGODB_URI not set, using in-memory store; conversations will not survive restarts")
		st = store.NewMemory()
	}

	repo := conversation.NewRepository(st, logger)

	llmClient, err := llm.NewFactory(cfg).CreateClient(ctx, cfg.LLMProvider)
	if err != nil {
		logger.Fatal("failed to create llm client", zap.Error(err))
	}

	initialContext := readInitialContext(filepath.Join(cfg.StaticFilesPath, initialContextFile), logger)

	bot, err := telegram.New(cfg.TelegramBotToken, repo, llmClient, initialContext, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	messenger := telegram.NewMessenger(bot.API(), logger)
	batch := daily.NewOrchestrator(repo, llmClient, messenger, logger)

	if cfg.DailyCron != "" {
		sched := scheduler.New(logger)
		sched.SetBatchFunction(func(ctx context.Context) error {
			_, err := batch.Run(ctx)
			return err
		})
		if err := sched.Start(cfg.DailyCron); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := web.New(batch, cfg.CronToken, logger)
	go func() {
		if err := srv.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	go bot.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
}

// readInitialContext loads the optional seed messages new conversations
// start with.
func readInitialContext(path string, logger *zap.Logger) []conversation.Message {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("initial context unreadable", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	var msgs []conversation.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		logger.Warn("initial context is not valid JSON", zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("loaded initial context", zap.Int("messages", len(msgs)))
	return msgs
}
