package chains

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/intelligence/scoring"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
	"github.com/turtacn/SymbioLink/internal/testutil"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newExplorer(t *testing.T, mutate func(*config.EngineConfig)) (*Explorer, *scoring.Scorer) {
	t.Helper()
	cfg := config.DefaultEngine()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := scoring.FromConfig(cfg, terms.NewExtractor())
	require.NoError(t, err)
	return NewExplorer(cfg.Chains, s, testutil.NewMockLogger()), s
}

func TestFindChains_Empty(t *testing.T) {
	x, _ := newExplorer(t, nil)
	for _, in := range [][]symbiosis.Entity{nil, {}, testutil.LinearChain()[:2]} {
		out, err := x.FindChains(context.Background(), in, 0)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestFindChains_Linear(t *testing.T) {
	x, _ := newExplorer(t, nil)
	out, err := x.FindChains(context.Background(), testutil.LinearChain(), 0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	ch := out[0]
	assert.Equal(t, []string{"A", "B", "C"}, ch.MemberIDs)
	assert.Equal(t, []float64{1, 1}, ch.EdgeConfidences)
	assert.InDelta(t, 0.9, ch.TotalConfidence, 1e-9)
	assert.Equal(t, symbiosis.TopologyLinear, ch.Topology)
	assert.Equal(t, []string{"steel → iron", "wood waste → biogas"}, ch.Materials)
	assert.Equal(t, symbiosis.ChainID([]string{"A", "B", "C"}), ch.ID)
}

func TestFindChains_CircularAndVisited(t *testing.T) {
	x, _ := newExplorer(t, nil)
	out, err := x.FindChains(context.Background(), testutil.CircularChain(), 0)
	require.NoError(t, err)

	// Q and R also start closed loops but P claimed them first.
	require.Len(t, out, 1)
	assert.Equal(t, []string{"P", "Q", "R"}, out[0].MemberIDs)
	assert.Equal(t, symbiosis.TopologyCircular, out[0].Topology)
}

func TestFindChains_HubSpoke(t *testing.T) {
	// B trades with both neighbours, so it touches every edge among members.
	entities := []symbiosis.Entity{
		{ID: "A", Location: "Dubai", Products: []string{"steel"}, Materials: []string{"wood waste"}},
		{ID: "B", Location: "Dubai", Materials: []string{"iron"}, Products: []string{"biomass", "wood waste"}},
		{ID: "C", Location: "Dubai", Materials: []string{"biogas"}},
	}
	x, _ := newExplorer(t, nil)
	out, err := x.FindChains(context.Background(), entities, 0)
	require.NoError(t, err)

	var got *symbiosis.Chain
	for i := range out {
		if cmp.Equal([]string{"A", "B", "C"}, out[i].MemberIDs) {
			got = &out[i]
		}
	}
	require.NotNil(t, got, "chains: %+v", out)
	assert.Equal(t, symbiosis.TopologyHubSpoke, got.Topology)
}

func TestFindChains_MaxHopsBelowMinMembers(t *testing.T) {
	x, _ := newExplorer(t, nil)
	out, err := x.FindChains(context.Background(), testutil.LinearChain(), 2)
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Equal(t, 2, x.MaxHops(1))
	assert.Equal(t, config.DefaultChainMaxHops, x.MaxHops(0))
	assert.Equal(t, 5, x.MaxHops(5))
}

func TestFindChains_Disabled(t *testing.T) {
	x, _ := newExplorer(t, func(c *config.EngineConfig) { c.Chains.Disabled = true })
	out, err := x.FindChains(context.Background(), testutil.LinearChain(), 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestFindChains_Properties(t *testing.T) {
	x, s := newExplorer(t, nil)
	entities := testutil.SampleEntities()
	const maxHops = 4

	out, err := x.FindChains(context.Background(), entities, maxHops)
	require.NoError(t, err)

	idx := symbiosis.Index(entities)
	ids := map[string]bool{}
	for i, ch := range out {
		assert.False(t, ch.HasRepeats(), ch.MemberIDs)
		assert.GreaterOrEqual(t, ch.Len(), config.DefaultChainMinMembers)
		assert.LessOrEqual(t, ch.Len(), maxHops)
		assert.Len(t, ch.EdgeConfidences, ch.Len()-1)
		assert.LessOrEqual(t, len(ch.Materials), config.DefaultChainMaxMaterials)
		assert.Greater(t, ch.TotalConfidence, config.DefaultAcceptThreshold)
		assert.False(t, ids[ch.ID], "duplicate chain id %s", ch.ID)
		ids[ch.ID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].TotalConfidence, ch.TotalConfidence)
		}
		for k := 0; k+1 < ch.Len(); k++ {
			p := entities[idx[ch.MemberIDs[k]]]
			c := entities[idx[ch.MemberIDs[k+1]]]
			a, ok := s.Evaluate(&p, &c)
			require.True(t, ok, "%s → %s", p.ID, c.ID)
			assert.GreaterOrEqual(t, a.Confidence, config.DefaultEdgeThreshold)
			assert.Equal(t, a.Confidence, ch.EdgeConfidences[k])
		}
	}
}

func TestFindChains_DeterministicAcrossWorkers(t *testing.T) {
	serial, _ := newExplorer(t, func(c *config.EngineConfig) { c.Chains.Workers = 1 })
	wide, _ := newExplorer(t, func(c *config.EngineConfig) { c.Chains.Workers = 16 })
	entities := testutil.SampleEntities()

	first, err := serial.FindChains(context.Background(), entities, 4)
	require.NoError(t, err)
	second, err := wide.FindChains(context.Background(), entities, 4)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("chains differ (-serial +parallel):\n%s", diff)
	}
}

func TestFindChains_Cancelled(t *testing.T) {
	x, _ := newExplorer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := x.FindChains(ctx, testutil.SampleEntities(), 4)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}
