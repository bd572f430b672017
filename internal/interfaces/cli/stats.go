package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
)

type statsOptions struct {
	input   string
	maxHops int
}

func newStatsCmd() *cobra.Command {
	opts := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the symbiosis network of an entity file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "entity file, or - for stdin (required)")
	cmd.Flags().IntVar(&opts.maxHops, "max-hops", 0, "longest chain to search (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runStats(cmd *cobra.Command, opts *statsOptions) error {
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
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	resp, err := svc.Analyze(ctx, &analysis.AnalyzeRequest{Entities: entities, MaxHops: opts.maxHops})
	if err != nil {
		return err
	}
	return PrintResult(cmd, &statsView{resp.Result.Stats})
}

type statsView struct {
	symbiosis.Stats
}

func (v *statsView) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (v *statsView) TableRows() [][]string {
	rows := [][]string{
		{"total", fmt.Sprintf("%d", v.Total)},
		{"participants", fmt.Sprintf("%d", v.Participants)},
		{"chains", fmt.Sprintf("%d", v.Chains)},
		{"average_confidence", fmt.Sprintf("%.3f", v.AverageConfidence)},
		{"network_efficiency", fmt.Sprintf("%.3f", v.NetworkEfficiency)},
	}
	for _, group := range v.groups() {
		for _, k := range sortedKeys(group.counts) {
			rows = append(rows, []string{group.name + "." + k, fmt.Sprintf("%d", group.counts[k])})
		}
	}
	for _, m := range v.TopMaterials {
		rows = append(rows, []string{"material." + m.Key, fmt.Sprintf("%d", m.Count)})
	}
	return rows
}

func (v *statsView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Connections:        %d\n", v.Total)
	fmt.Fprintf(&sb, "Participants:       %d\n", v.Participants)
	fmt.Fprintf(&sb, "Chains:             %d\n", v.Chains)
	fmt.Fprintf(&sb, "Average confidence: %.3f\n", v.AverageConfidence)
	fmt.Fprintf(&sb, "Network efficiency: %.3f\n", v.NetworkEfficiency)
	for _, group := range v.groups() {
		if len(group.counts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", group.title)
		for _, k := range sortedKeys(group.counts) {
			fmt.Fprintf(&sb, "  %-24s %d\n", k, group.counts[k])
		}
	}
	if len(v.TopMaterials) > 0 {
		sb.WriteString("\nTop materials:\n")
		for _, m := range v.TopMaterials {
			fmt.Fprintf(&sb, "  %-24s %d\n", m.Key, m.Count)
		}
	}
	return sb.String()
}

type statGroup struct {
	name   string
	title  string
	counts map[string]int
}

func (v *statsView) groups() []statGroup {
	return []statGroup{
		{"match_type", "By match type", v.ByMatchType},
		{"confidence", "By confidence", v.ByConfidence},
		{"hops", "By hop count", v.ByHopCount},
		{"industry", "By industry", v.ByIndustry},
		{"region", "By region", v.ByRegion},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
