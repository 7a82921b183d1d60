// Command starknet-deploy deploys Starknet contracts and manages the deployment manifest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartcontractkit/starknet-deployments/engine/commands"
	cfgenv "github.com/smartcontractkit/starknet-deployments/engine/config/env"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lggr, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	root, err := commands.New(lggr).Root()
	if err != nil {
		return err
	}

	return root.ExecuteContext(ctx)
}

// newLogger returns a console logger at the level of LOG_LEVEL.
func newLogger() (logger.Logger, error) {
	cfg, err := cfgenv.LoadEnv()
	if err != nil {
		return nil, err
	}
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return (&logger.Config{Level: lvl, Console: true}).New()
}
