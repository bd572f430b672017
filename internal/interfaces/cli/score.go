package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

type scoreOptions struct {
	input    string
	producer string
	consumer string
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Explain how one producer matches one consumer",
		Example: "  symbiolink score --input park.json --producer gulf-steel --consumer emirates-cement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "entity file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.producer, "producer", "", "producer entity id (required)")
	cmd.Flags().StringVar(&opts.consumer, "consumer", "", "consumer entity id (required)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("producer")
	_ = cmd.MarkFlagRequired("consumer")
	return cmd
}

func runScore(cmd *cobra.Command, opts *scoreOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	entities, err := readEntities(cmd, opts.input)
	if err != nil {
		return err
	}
	producer, err := findEntity(entities, opts.producer)
	if err != nil {
		return err
	}
	consumer, err := findEntity(entities, opts.consumer)
	if err != nil {
		return err
	}

	svc, err := cliCtx.Service()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	resp, err := svc.ScorePair(ctx, producer, consumer)
	if err != nil {
		return err
	}
	return PrintResult(cmd, &scoreView{resp})
}

func findEntity(entities []symbiosis.Entity, id string) (*symbiosis.Entity, error) {
	for i := range entities {
		if entities[i].ID == id {
			return &entities[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeEntityNotFound, fmt.Sprintf("entity %q not found in input", id))
}

type scoreView struct {
	*analysis.ScoreResponse
}

func (v *scoreView) TableHeaders() []string {
	return []string{"TYPE", "MATERIAL", "CONFIDENCE"}
}

func (v *scoreView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Matches))
	for _, m := range v.Matches {
		rows = append(rows, []string{string(m.Type), m.Material, fmt.Sprintf("%.3f", m.Confidence)})
	}
	return rows
}

func (v *scoreView) String() string {
	var sb strings.Builder
	verdict := "rejected"
	if v.Accepted {
		verdict = "accepted"
	}
	a := v.Assessment
	fmt.Fprintf(&sb, "%s -> %s: %s (confidence %.3f)\n", v.ProducerID, v.ConsumerID, verdict, a.Confidence)
	fmt.Fprintf(&sb, "  material %.3f  geographic %+.3f  synergy %+.3f\n",
		a.MaterialScore, a.GeographicBonus, a.IndustrySynergy)
	if len(v.Matches) == 0 {
		sb.WriteString("  no material matches\n")
		return sb.String()
	}
	for _, m := range v.Matches {
		fmt.Fprintf(&sb, "  - %-9s %s (%.3f)\n", m.Type, m.Material, m.Confidence)
	}
	return sb.String()
}
