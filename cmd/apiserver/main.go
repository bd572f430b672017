// Command apiserver runs the SymbioLink HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/SymbioLink/internal/app"
	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", logging.Err(err))
		os.Exit(1)
	}

	if fromFile {
		config.Watch(*configPath, func(*config.Config) {
			logger.Info("configuration changed on disk; restart to apply",
				logging.String("path", *configPath))
		}, func(err error) {
			logger.Warn("ignoring invalid configuration revision", logging.Err(err))
		})
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("server stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// loadConfig reads path when it exists and falls back to SYMBIOLINK_*
// environment variables otherwise.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment\n", path)
		cfg, err := config.LoadFromEnv()
		return cfg, false, err
	}
	cfg, err := config.Load(path)
	return cfg, true, err
}
