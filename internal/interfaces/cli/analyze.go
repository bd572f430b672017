package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

type analyzeOptions struct {
	input    string
	maxHops  int
	seed     int64
	top      int
	noChains bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Discover symbiosis connections and chains in an entity file",
		Long: "Reads entities as a JSON array, a {\"entities\": [...]} document or\n" +
			"\"Company N:\" text blocks, then prints ranked connections and chains.",
		Example: "  symbiolink analyze --input park.json --max-hops 4 -o table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "entity file, or - for stdin (required)")
	cmd.Flags().IntVar(&opts.maxHops, "max-hops", 0, "longest chain to search (0 uses the configured default)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "estimator seed (0 uses the configured seed)")
	cmd.Flags().IntVar(&opts.top, "top", 0, "print only the N best connections (0 prints all)")
	cmd.Flags().BoolVar(&opts.noChains, "no-chains", false, "skip multi-hop chain discovery")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	if opts.top < 0 {
		return errors.NewValidationError("top", fmt.Sprintf("top must be >= 0, got %d", opts.top))
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	entities, err := readEntities(cmd, opts.input)
	if err != nil {
		return err
	}
	svc, err := cliCtx.Service()
	if err != nil {
		return err
	}

	includeChains := !opts.noChains
	req := &analysis.AnalyzeRequest{
		Entities:      entities,
		MaxHops:       opts.maxHops,
		Seed:          opts.seed,
		IncludeChains: &includeChains,
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	cliCtx.Logger.Info("Starting analysis",
		logging.String("input", opts.input),
		logging.Int("entities", len(entities)),
		logging.Int("max_hops", opts.maxHops))

	resp, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}

	cliCtx.Logger.Info("Analysis completed",
		logging.String("run_id", resp.Result.RunID),
		logging.Int("connections", len(resp.Result.Connections)),
		logging.Int("chains", len(resp.Result.Chains)))

	return PrintResult(cmd, newAnalysisView(resp.Result, opts.top))
}

// readEntities decodes the entity file at path; "-" reads stdin.
func readEntities(cmd *cobra.Command, path string) ([]symbiosis.Entity, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "open input file")
		}
		defer f.Close()
		r = f
	}
	return symbiosis.DecodeEntities(r)
}

// analysisView renders a result for the three output formats.
type analysisView struct {
	Result *symbiosis.Result `json:"result"`
	// Shown is how many connections were printed.
	Shown int `json:"shown"`
}

func newAnalysisView(res *symbiosis.Result, top int) *analysisView {
	shown := len(res.Connections)
	if top > 0 && top < shown {
		clone := *res
		clone.Connections = res.Connections[:top]
		res = &clone
		shown = top
	}
	return &analysisView{Result: res, Shown: shown}
}

func (v *analysisView) TableHeaders() []string {
	return []string{"#", "PRODUCER", "CONSUMER", "MATERIAL", "TYPE", "HOPS", "CONFIDENCE", "PRIORITY"}
}

func (v *analysisView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Result.Connections))
	for i := range v.Result.Connections {
		c := &v.Result.Connections[i]
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			c.ProducerID,
			c.ConsumerID,
			c.Material,
			string(c.MatchType()),
			fmt.Sprintf("%d", c.HopCount),
			fmt.Sprintf("%.3f", c.Confidence),
			c.Priority,
		})
	}
	return rows
}

func (v *analysisView) String() string {
	res := v.Result
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s: %d entities, %d connections, %d chains\n",
		res.RunID, res.EntityCount, res.Stats.Total, len(res.Chains))
	if res.Partial {
		sb.WriteString("Result is partial: the run hit its deadline\n")
	}
	if len(res.Rejected) > 0 {
		fmt.Fprintf(&sb, "Rejected %d entities\n", len(res.Rejected))
		for _, r := range res.Rejected {
			fmt.Fprintf(&sb, "  [%d] %s: %s\n", r.Index, r.ID, r.Reason)
		}
	}

	if len(res.Connections) > 0 {
		sb.WriteString("\nConnections:\n")
		for i := range res.Connections {
			c := &res.Connections[i]
			fmt.Fprintf(&sb, "  %3d. %s -> %s  %s (%s, %.3f)\n",
				i+1, c.ProducerID, c.ConsumerID, c.Material, c.MatchType(), c.Confidence)
		}
	}

	if len(res.Chains) > 0 {
		sb.WriteString("\nChains:\n")
		for _, ch := range res.Chains {
			fmt.Fprintf(&sb, "  %s [%s] %s (%.3f)\n",
				ch.ID, ch.Topology, strings.Join(ch.MemberIDs, " -> "), ch.TotalConfidence)
		}
	}
	return sb.String()
}
