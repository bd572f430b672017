// Package app assembles a running SymbioLink instance from a Config: the
// engine, the analysis service with its optional sinks, metrics and the HTTP
// stack. Both the API server binary and the CLI serve command start here.
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/config"
	neo4jdriver "github.com/turtacn/SymbioLink/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/SymbioLink/internal/infrastructure/database/neo4j/repositories"
	redisclient "github.com/turtacn/SymbioLink/internal/infrastructure/database/redis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SymbioLink/internal/intelligence/engine"
	httpapi "github.com/turtacn/SymbioLink/internal/interfaces/http"
	"github.com/turtacn/SymbioLink/internal/interfaces/http/handlers"
	"github.com/turtacn/SymbioLink/internal/interfaces/http/middleware"
)

// ServiceName labels the start-time gauge.
const ServiceName = "symbiolink-api"

// Version is overridden at link time with -ldflags "-X".
var Version = "dev"

// App owns every long-lived component of a process.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Engine  *engine.Engine
	Service analysis.Service
	Metrics *prometheus.AppMetrics
	Server  *httpapi.Server

	collector prometheus.MetricsCollector
	checkers  []handlers.HealthChecker
	closers   []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// New builds an App. Enabled sinks are connected eagerly, so an unreachable
// Redis or Neo4j fails startup. Kafka topic provisioning is best effort.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	a := &App{Config: cfg, Logger: log}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		a.collector = collector
		a.Metrics = prometheus.NewAppMetrics(collector)
	}

	var engOpts []engine.Option
	if a.Metrics != nil {
		engOpts = append(engOpts, engine.WithMetrics(a.Metrics))
	}
	eng, err := engine.New(cfg.Engine, log, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: engine: %w", err)
	}
	a.Engine = eng

	svcOpts, err := a.connectSinks(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.Metrics != nil {
		svcOpts = append(svcOpts, analysis.WithMetrics(a.Metrics))
	}

	svc, err := analysis.NewService(eng, cfg.Analysis, log, svcOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: analysis service: %w", err)
	}
	a.Service = svc

	a.Server = httpapi.NewServer(cfg.Server, a.router(), log)
	return a, nil
}

func (a *App) connectSinks(ctx context.Context) ([]analysis.Option, error) {
	cfg := a.Config
	var opts []analysis.Option

	if cfg.Cache.Redis.Enabled {
		client, err := redisclient.NewClient(ctx, cfg.Cache.Redis, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("app: redis: %w", err)
		}
		a.addCloser("redis", client.Close)
		cache := redisclient.NewResultCache(client, a.Logger)
		a.checkers = append(a.checkers, checkerFunc{name: "redis", fn: cache.Ping})
		opts = append(opts, analysis.WithCache(cache, cfg.Cache.Redis.ResultTTL))
	}

	if cfg.Messaging.Kafka.Enabled {
		kc := cfg.Messaging.Kafka
		if kc.EnsureTopic {
			a.ensureTopics(ctx, kc, kafka.AnalysisTopic(kc.Topic, kc.Partitions, kc.Replication))
		}
		producer, err := kafka.NewProducer(kc, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("app: kafka: %w", err)
		}
		a.addCloser("kafka", producer.Close)
		opts = append(opts, analysis.WithPublisher(kafka.NewAnalysisPublisher(producer, kc.Topic, a.Logger)))
	}

	if cfg.Graph.Neo4j.Enabled {
		drv, err := neo4jdriver.NewDriver(ctx, cfg.Graph.Neo4j, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("app: neo4j: %w", err)
		}
		a.addCloser("neo4j", drv.Close)
		a.checkers = append(a.checkers, checkerFunc{name: "neo4j", fn: drv.HealthCheck})

		repo := neo4jrepo.NewNeo4jNetworkRepo(drv, a.Logger)
		if err := repo.EnsureConstraints(ctx); err != nil {
			a.Logger.Warn("neo4j constraints not applied", logging.Err(err))
		}
		opts = append(opts, analysis.WithExporter(neo4jrepo.NewNetworkExporter(repo)))
	}

	return opts, nil
}

// ensureTopics creates missing topics. Failures are logged: the brokers may
// auto-create topics or an operator may own them.
func (a *App) ensureTopics(ctx context.Context, kc config.KafkaConfig, specs ...kafka.TopicSpec) {
	tm, err := kafka.NewTopicManager(ctx, kc.Brokers, a.Logger)
	if err != nil {
		a.Logger.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	for _, spec := range specs {
		if spec.Name == "" {
			continue
		}
		if err := tm.EnsureTopic(ctx, spec); err != nil {
			a.Logger.Warn("kafka topic not ensured", logging.String("topic", spec.Name), logging.Err(err))
		}
	}
}

func (a *App) router() *gin.Engine {
	rc := httpapi.RouterConfig{
		AnalysisHandler: handlers.NewAnalysisHandler(a.Service, a.Logger),
		Logging:         middleware.DefaultLoggingConfig(),
		MaxBodySize:     a.Config.Server.MaxBodySize,
		Logger:          a.Logger,
		MetricsPath:     a.Config.Metrics.Path,
		Mode:            a.Config.Server.Mode,
	}
	var observer handlers.HealthObserver
	if a.Metrics != nil {
		observer = a.Metrics
		rc.Recorder = a.Metrics
		rc.MetricsHandler = a.collector.Handler()
	}
	rc.HealthHandler = handlers.NewHealthHandler(Version, observer, a.checkers...)
	return httpapi.NewRouter(rc)
}

func (a *App) addCloser(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, fn: fn})
}

// Checkers lists the readiness checks registered for enabled sinks.
func (a *App) Checkers() []handlers.HealthChecker { return a.checkers }

// Run serves HTTP until ctx is cancelled, then drains the server and closes
// every sink.
func (a *App) Run(ctx context.Context) error {
	return stderrors.Join(a.Serve(ctx), a.Close())
}

// Serve runs the HTTP server until ctx is cancelled or the server fails.
// Sinks stay open.
func (a *App) Serve(ctx context.Context) error {
	if a.Metrics != nil {
		a.Metrics.MarkStarted(ServiceName, time.Now())
	}
	a.Logger.Info("starting SymbioLink API server",
		logging.String("version", Version),
		logging.String("addr", a.Server.Addr()))

	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		var err error
		if err = a.Server.Shutdown(context.Background()); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.Err(err))
		}
		<-errCh
		return err
	}
}

// Close releases sinks in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.Logger.Warn("close failed", logging.String("component", c.name), logging.Err(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

// NewLogger builds the process logger from the log section of cfg and
// installs it as the logging default.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(logging.LogConfig{
		Level:       level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
		Name:        "symbiolink",
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(log)
	return log, nil
}
