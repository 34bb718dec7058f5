// ABOUTME: Builds the runtime shared by commands from config and environment
// ABOUTME: Config, logger, classification client and dispatcher in one place
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/config"
	"github.com/harper/shape-classifier/internal/core"
	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/logger"
)

// closeTimeout bounds how long a command waits for in-flight attempts on exit
const closeTimeout = 10 * time.Second

type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	dispatcher *core.Dispatcher
}

func newApp(ctx context.Context) (*app, error) {
	// Load .env for API keys; a missing file is fine
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case quiet:
		cfg.Log.Level = "error"
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	client, err := llm.NewClient(ctx, cfg.ClientConfig(), log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("creating classification client: %w", err)
	}

	opts := append(cfg.DispatcherOptions(), core.WithLogger(log))
	dispatcher := core.NewDispatcher(client, core.NewResultStore(), opts...)

	log.Debug("runtime ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("response_format", cfg.ResponseFormat),
		zap.Stringer("busy_policy", dispatcher.Policy()))

	return &app{cfg: cfg, logger: log, dispatcher: dispatcher}, nil
}

// close waits for in-flight attempts and flushes the logger
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := a.dispatcher.Close(ctx); err != nil {
		a.logger.Warn("attempts still running at exit", zap.Error(err))
	}
	_ = a.logger.Sync()
}
