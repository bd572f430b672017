package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
)

type submitOptions struct {
	input    string
	maxHops  int
	seed     int64
	noChains bool
	topic    string
}

type requestPublisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// newRequestPublisher is replaced in tests.
var newRequestPublisher = func(cfg config.KafkaConfig, log logging.Logger) (requestPublisher, error) {
	p, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue an analysis for the worker",
		Long: "Publishes the entities of a file as an analysis.requested event. A worker\n" +
			"runs it and announces the result on the analysis.completed topic.",
		Example: "  symbiolink submit --input park.json --max-hops 3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "entity file, or - for stdin (required)")
	cmd.Flags().IntVar(&opts.maxHops, "max-hops", 0, "longest chain to search (0 uses the worker default)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "estimator seed (0 uses the configured seed)")
	cmd.Flags().BoolVar(&opts.noChains, "no-chains", false, "skip multi-hop chain discovery")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "request topic (default: messaging.worker.request_topic)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runSubmit(cmd *cobra.Command, opts *submitOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	entities, err := readEntities(cmd, opts.input)
	if err != nil {
		return err
	}

	topic := opts.topic
	if topic == "" {
		topic = cliCtx.Config.Messaging.Worker.RequestTopic
	}
	includeChains := !opts.noChains
	msg, eventID, err := kafka.NewAnalysisRequestMessage(topic, analysis.AnalyzeRequest{
		Entities:      entities,
		MaxHops:       opts.maxHops,
		Seed:          opts.seed,
		IncludeChains: &includeChains,
	}, "")
	if err != nil {
		return err
	}

	pub, err := newRequestPublisher(cliCtx.Config.Messaging.Kafka, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()
	if err := pub.Publish(ctx, msg); err != nil {
		return err
	}
	cliCtx.Logger.Info("Analysis queued",
		logging.String("event_id", eventID),
		logging.String("topic", topic))

	return PrintResult(cmd, &submitView{EventID: eventID, Topic: topic, Entities: len(entities)})
}

type submitView struct {
	EventID  string `json:"event_id"`
	Topic    string `json:"topic"`
	Entities int    `json:"entities"`
}

func (v *submitView) TableHeaders() []string { return []string{"EVENT_ID", "TOPIC", "ENTITIES"} }

func (v *submitView) TableRows() [][]string {
	return [][]string{{v.EventID, v.Topic, fmt.Sprintf("%d", v.Entities)}}
}

func (v *submitView) String() string {
	return fmt.Sprintf("Queued %s on %s (%d entities)\n", v.EventID, v.Topic, v.Entities)
}
