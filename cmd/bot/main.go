package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ai-chatlog/internal/auth"
	"ai-chatlog/internal/config"
	"ai-chatlog/internal/llm"
	"ai-chatlog/internal/profile"
	"ai-chatlog/internal/scheduler"
	"ai-chatlog/internal/session"
	"ai-chatlog/internal/storage"
	"ai-chatlog/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to resolve timezone: %v", err)
	}

	store, err := storage.NewDailyFileStore(cfg.LogsDir, storage.WithLocation(loc))
	if err != nil {
		log.Fatalf("failed to init chat log: %v", err)
	}

	var allowRepo auth.Repository
	if cfg.AllowlistFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
		if err != nil {
			log.Printf("failed to init allowlist repo: %v", err)
		} else {
			allowRepo = repo
		}
	}
	authSvc, err := auth.NewWithRepo(allowRepo, cfg.AdminUserID, cfg.AllowedUsers)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	profiles, err := profile.Open(cfg.ProfileStore, cfg.ProfilePath)
	if err != nil {
		log.Fatalf("failed to open profile store: %v", err)
	}
	defer func() {
		if err := profile.Close(profiles); err != nil {
			log.Printf("failed to close profile store: %v", err)
		}
	}()

	llmClient, err := llm.New(llm.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		authSvc,
		llmClient,
		store,
		session.New(profiles),
		profiles,
		telegram.Options{
			AdminUserID:  cfg.AdminUserID,
			LogChannelID: cfg.LogChannelID,
			ParseMode:    cfg.MessageParseMode,
			Location:     loc,
		},
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(cfg.ReportHour, cfg.ReportMinute, scheduler.WithLocation(loc))
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	sched.SetReportFunction(bot.DailyReport)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	bot.Start(ctx)
	log.Println("👋 Shutting down")
}
