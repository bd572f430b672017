package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/app"
	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/testutil"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

func TestAnalyzeCmd_JSON(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())
	out, _, err := runCLI(t, nil, "analyze", "--input", input, "-o", "json")
	require.NoError(t, err)

	var view analysisView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.NotNil(t, view.Result)
	assert.Len(t, view.Result.Connections, 4)
	assert.Equal(t, 4, view.Shown)
	require.Len(t, view.Result.Chains, 1)
	assert.Equal(t, []string{"A", "B", "C"}, view.Result.Chains[0].MemberIDs)
}

func TestAnalyzeCmd_TopAndTable(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())
	out, _, err := runCLI(t, nil, "analyze", "--input", input, "--top", "1", "-o", "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Contains(t, lines[0], "CONFIDENCE")
	assert.True(t, strings.HasPrefix(lines[2], "1 "))
}

func TestAnalyzeCmd_Text(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())
	out, _, err := runCLI(t, nil, "analyze", "--input", input)
	require.NoError(t, err)

	assert.Contains(t, out, "3 entities")
	assert.Contains(t, out, "Connections:")
	assert.Contains(t, out, "Chains:")
	assert.Contains(t, out, "A -> B -> C")
}

func TestAnalyzeCmd_NoChains(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())
	out, _, err := runCLI(t, nil, "analyze", "--input", input, "--no-chains", "-o", "json")
	require.NoError(t, err)

	var view analysisView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Empty(t, view.Result.Chains)
	assert.Len(t, view.Result.Connections, 2)
}

func TestAnalyzeCmd_Stdin(t *testing.T) {
	data, err := json.Marshal(map[string]any{"entities": testutil.LinearChain()})
	require.NoError(t, err)

	out, _, err := runCLI(t, data, "analyze", "--input", "-", "-o", "json")
	require.NoError(t, err)

	var view analysisView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 3, view.Result.EntityCount)
}

func TestAnalyzeCmd_Errors(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())

	_, _, err := runCLI(t, nil, "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")

	_, _, err = runCLI(t, nil, "analyze", "--input", input, "--max-hops", "99")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, _, err = runCLI(t, nil, "analyze", "--input", input, "--top", "-1")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, _, err = runCLI(t, nil, "analyze", "--input", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBadRequest, errors.GetCode(err))
}

func TestScoreCmd(t *testing.T) {
	p, c := testutil.AluminumPair()
	input := writeEntities(t, []symbiosis.Entity{p, c})

	out, _, err := runCLI(t, nil, "score", "--input", input, "--producer", "A", "--consumer", "B")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "A -> B: accepted"), out)

	out, _, err = runCLI(t, nil, "score", "--input", input, "--producer", "A", "--consumer", "B", "-o", "json")
	require.NoError(t, err)
	var resp analysis.ScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Accepted)
	assert.NotEmpty(t, resp.Matches)
}

func TestScoreCmd_UnknownEntity(t *testing.T) {
	p, c := testutil.AluminumPair()
	input := writeEntities(t, []symbiosis.Entity{p, c})

	_, _, err := runCLI(t, nil, "score", "--input", input, "--producer", "A", "--consumer", "Z")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEntityNotFound, errors.GetCode(err))
}

func TestStatsCmd(t *testing.T) {
	input := writeEntities(t, testutil.LinearChain())

	out, _, err := runCLI(t, nil, "stats", "--input", input, "-o", "json")
	require.NoError(t, err)
	var stats symbiosis.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Chains)
	assert.Equal(t, map[string]int{"category": 2, "multi_hop": 2}, stats.ByMatchType)

	out, _, err = runCLI(t, nil, "stats", "--input", input, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "match_type.multi_hop")

	out, _, err = runCLI(t, nil, "stats", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, out, "By match type:")
}

func TestAnalysisView_TopBeyondLength(t *testing.T) {
	res := &symbiosis.Result{Connections: make([]symbiosis.Connection, 2)}
	v := newAnalysisView(res, 5)
	assert.Equal(t, 2, v.Shown)
	assert.Same(t, res, v.Result)

	v = newAnalysisView(res, 1)
	assert.Equal(t, 1, v.Shown)
	assert.Len(t, v.Result.Connections, 1)
	assert.Len(t, res.Connections, 2)
}

func TestAnalyzeCmd_RemoteServer(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Mode = "test"
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	server := httptest.NewServer(a.Server.Handler())
	t.Cleanup(server.Close)

	input := writeEntities(t, testutil.LinearChain())
	out, _, err := runCLI(t, nil, "--server", server.URL, "analyze", "--input", input, "-o", "json")
	require.NoError(t, err)

	var view analysisView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Result.Connections, 4)
	require.Len(t, view.Result.Chains, 1)
}
