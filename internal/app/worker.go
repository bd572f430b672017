package app

import (
	"context"
	stderrors "errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
)

type runner interface {
	Run(ctx context.Context) error
}

// Worker consumes queued analysis requests through the App's service. The
// App's HTTP server stays up for probes and metrics.
type Worker struct {
	App *App

	consumer runner
}

// NewWorker builds an App and a consumer group member on
// messaging.worker.request_topic. Exhausted requests go to the dead letter
// topic when one is configured.
func NewWorker(ctx context.Context, cfg *config.Config, log logging.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	kc, wc := cfg.Messaging.Kafka, cfg.Messaging.Worker
	if err := kafka.ValidateConsumerConfig(kc, wc); err != nil {
		return nil, fmt.Errorf("app: worker: %w", err)
	}

	a, err := New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if kc.EnsureTopic {
		a.ensureTopics(ctx, kc,
			kafka.AnalysisTopic(wc.RequestTopic, kc.Partitions, kc.Replication),
			kafka.AnalysisTopic(wc.DeadLetterTopic, kc.Partitions, kc.Replication))
	}

	var opts []kafka.ConsumerOption
	if wc.DeadLetterTopic != "" {
		dlq, err := kafka.NewProducer(kc, a.Logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: worker dead letter: %w", err)
		}
		a.addCloser("kafka-dead-letter", dlq.Close)
		opts = append(opts, kafka.WithDeadLetter(dlq))
	}
	if a.Metrics != nil {
		opts = append(opts, kafka.WithJobObserver(a.Metrics))
	}

	consumer, err := kafka.NewConsumer(kc, wc, NewAnalysisJobHandler(a.Service, a.Logger), a.Logger, opts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: worker: %w", err)
	}
	a.addCloser("kafka-consumer", consumer.Close)

	return &Worker{App: a, consumer: consumer}, nil
}

// Run consumes and serves until ctx is cancelled or either side fails, then
// closes the consumer before the sinks it feeds.
func (w *Worker) Run(ctx context.Context) error {
	w.App.Logger.Info("starting SymbioLink worker",
		logging.String("group", w.App.Config.Messaging.Worker.GroupID),
		logging.String("topic", w.App.Config.Messaging.Worker.RequestTopic))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.consumer.Run(gctx) })
	g.Go(func() error { return w.App.Serve(gctx) })
	return stderrors.Join(g.Wait(), w.App.Close())
}

// NewAnalysisJobHandler runs analysis.requested events through svc. The
// service's own publisher announces completion.
func NewAnalysisJobHandler(svc analysis.Service, log logging.Logger) kafka.Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("jobs")
	return func(ctx context.Context, msg kafka.Message) error {
		var req analysis.AnalyzeRequest
		env, err := kafka.DecodeAnalysisRequest(msg, &req)
		if err != nil {
			return err
		}
		if env.TraceID != "" {
			ctx = logging.WithRequestID(ctx, env.TraceID)
		}

		resp, err := svc.Analyze(ctx, &req)
		if err != nil {
			return err
		}
		log.Info("analysis request processed",
			logging.String("event_id", env.EventID),
			logging.String("run_id", resp.Result.RunID),
			logging.Int("connections", len(resp.Result.Connections)),
			logging.Bool("cached", resp.Cached))
		return nil
	}
}
