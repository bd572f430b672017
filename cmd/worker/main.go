// Command worker consumes queued analysis requests from Kafka.
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

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHealthPort = 8081
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", defaultHealthPort, "port for probes and metrics")
	group := flag.String("group", "", "consumer group (overrides config)")
	topic := flag.String("topic", "", "request topic (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.Port = *httpPort
	if *group != "" {
		cfg.Messaging.Worker.GroupID = *group
	}
	if *topic != "" {
		cfg.Messaging.Worker.RequestTopic = *topic
	}
	if err := cfg.Messaging.Worker.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid worker configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := app.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize worker", logging.Err(err))
		os.Exit(1)
	}

	if err := w.Run(ctx); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
