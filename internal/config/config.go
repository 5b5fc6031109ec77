package config

import (
	"log/slog"
	"os"
)

type Config struct {
	BotToken   string
	APIBaseURL string
	Env        string
}

func Load() Config {
	cfg := Config{
		BotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIBaseURL: getEnv("API_URL", "http://localhost:8080/api"),
		Env:        getEnv("ENV", "development"),
	}

	if cfg.BotToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN must be set")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
