package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ledgerbot/ledgerbot-go/internal/bot"
	"github.com/ledgerbot/ledgerbot-go/internal/config"
	"github.com/ledgerbot/ledgerbot-go/internal/conversation"
	"github.com/ledgerbot/ledgerbot-go/internal/session"
	"github.com/ledgerbot/ledgerbot-go/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	transport := telegram.New(cfg.BotToken)
	sessions := session.NewStore(cfg.APIBaseURL)
	engine := conversation.NewEngine(sessions, transport, cfg.APIBaseURL)
	dispatcher := bot.NewDispatcher(sessions, engine, transport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("bot starting", "api_url", cfg.APIBaseURL, "env", cfg.Env)

	if err := transport.Run(ctx, dispatcher.Dispatch); err != nil {
		slog.Error("polling stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("bot stopped")
}
