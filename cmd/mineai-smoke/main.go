package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/comigor/mineai-smoke/internal/config"
	"github.com/comigor/mineai-smoke/internal/llm"
	"github.com/comigor/mineai-smoke/internal/logger"
	"github.com/comigor/mineai-smoke/internal/suite"
)

func main() {
	// A local .env may carry MINEAI_API_KEY; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.L.Warn("failed to load .env", "error", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	factory := func(apiKey string) llm.Service {
		return llm.NewServiceFromConfig(cfg.LLM, apiKey)
	}

	os.Exit(suite.Execute(context.Background(), cfg, os.Stdout, factory))
}
