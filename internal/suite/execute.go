package suite

import (
	"context"
	"fmt"
	"io"

	"github.com/comigor/mineai-smoke/internal/config"
	"github.com/comigor/mineai-smoke/internal/history"
	"github.com/comigor/mineai-smoke/internal/logger"
	"github.com/comigor/mineai-smoke/internal/report"
)

const usage = `%s Error: MINEAI_API_KEY environment variable not set

Usage:
  export MINEAI_API_KEY='your-api-key'
  mineai-smoke
`

// Execute runs the whole suite and returns the process exit code. A missing
// credential prints usage and returns 1 before any client is built; test
// outcomes never change the exit code.
func Execute(ctx context.Context, cfg *config.Config, out io.Writer, factory Factory) int {
	if cfg.LLM.APIKey == "" {
		fmt.Fprintf(out, usage, report.Fail.Emoji())
		return 1
	}

	runner := New(cfg.LLM.APIKey, factory, *cfg, out)
	if cfg.History.Path != "" {
		store := history.Open(ctx, cfg.History.Path)
		defer func() {
			if err := store.Close(); err != nil {
				logger.L.Warn("history close failed", "error", err)
			}
		}()
		runner.WithHistory(store)
	}

	if err := runner.RunAll(ctx); err != nil {
		logger.L.Error("smoke run aborted", "error", err)
	}
	return 0
}
