package matching

import (
	"context"
	"testing"
	"time"

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

func newGenerator(t *testing.T, mutate func(*config.EngineConfig)) (*Generator, *testutil.MockLogger) {
	t.Helper()
	cfg := config.DefaultEngine()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := scoring.FromConfig(cfg, terms.NewExtractor())
	require.NoError(t, err)
	log := testutil.NewMockLogger()
	return NewGenerator(cfg.Generator, s, log), log
}

func TestGenerate_Empty(t *testing.T) {
	g, _ := newGenerator(t, nil)
	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_AluminumPair(t *testing.T) {
	g, _ := newGenerator(t, nil)
	a, b := testutil.AluminumPair()

	out, err := g.Generate(context.Background(), []symbiosis.Entity{a, b})
	require.NoError(t, err)
	require.Len(t, out, 1)
	c := out[0]
	assert.Equal(t, "A", c.ProducerID)
	assert.Equal(t, "B", c.ConsumerID)
	assert.Contains(t, []symbiosis.MatchType{symbiosis.MatchCategory, symbiosis.MatchSubstring}, c.MatchType())
	assert.Equal(t, 1.0, c.Confidence)
	assert.Equal(t, 1, c.HopCount)
}

func TestGenerate_Properties(t *testing.T) {
	g, _ := newGenerator(t, nil)
	entities := testutil.SampleEntities()

	out, err := g.Generate(context.Background(), entities)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	ids := symbiosis.Index(entities)
	seen := map[string]bool{}
	perProducer := map[string]int{}
	for i, c := range out {
		assert.NotEqual(t, c.ProducerID, c.ConsumerID)
		assert.Contains(t, ids, c.ProducerID)
		assert.Contains(t, ids, c.ConsumerID)
		assert.False(t, seen[c.PairKey()], "duplicate pair %s", c.PairKey())
		seen[c.PairKey()] = true
		assert.Greater(t, c.Confidence, config.DefaultConnectionThreshold)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].Confidence, c.Confidence)
		}
		perProducer[c.ProducerID]++
	}
	for id, n := range perProducer {
		e := entities[ids[id]]
		assert.LessOrEqual(t, n, g.Cap(&e), id)
	}
	assert.NotContains(t, perProducer, "sink-only")
	assert.NotContains(t, perProducer, "blank")
}

func TestGenerate_DeterministicAcrossWorkers(t *testing.T) {
	serial, _ := newGenerator(t, func(c *config.EngineConfig) { c.Generator.Workers = 1 })
	wide, _ := newGenerator(t, func(c *config.EngineConfig) { c.Generator.Workers = 16 })
	entities := testutil.SampleEntities()

	first, err := serial.Generate(context.Background(), entities)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := wide.Generate(context.Background(), entities)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-serial +parallel):\n%s", i, diff)
		}
	}
}

func TestGenerate_ThresholdMonotonic(t *testing.T) {
	entities := testutil.SampleEntities()
	prev := -1
	for _, th := range []float64{0.55, 0.7, 0.9, 0.99} {
		th := th
		g, _ := newGenerator(t, func(c *config.EngineConfig) { c.Matching.ConnectionThreshold = th })
		out, err := g.Generate(context.Background(), entities)
		require.NoError(t, err)
		for _, c := range out {
			assert.Greater(t, c.Confidence, th)
		}
		if prev >= 0 {
			assert.LessOrEqual(t, len(out), prev, "threshold %.2f", th)
		}
		prev = len(out)
	}
}

func TestGenerate_GlobalCap(t *testing.T) {
	g, _ := newGenerator(t, func(c *config.EngineConfig) { c.Generator.GlobalCap = 3 })
	out, err := g.Generate(context.Background(), testutil.SampleEntities())
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestGenerate_SkipsBadIDs(t *testing.T) {
	g, log := newGenerator(t, nil)
	a, b := testutil.AluminumPair()
	dup := b
	dup.Materials = []string{"aluminum offcuts"}

	res, err := g.Run(context.Background(), []symbiosis.Entity{a, b, dup, {Name: "no id"}})
	require.NoError(t, err)
	assert.Len(t, res.Rejected, 2)
	assert.Len(t, res.Connections, 1)
	assert.Equal(t, 2, log.Count("warn"))
}

func TestRun_TimeBudgetYieldsPartial(t *testing.T) {
	g, log := newGenerator(t, func(c *config.EngineConfig) { c.Generator.TimeBudget = time.Nanosecond })
	res, err := g.Run(context.Background(), testutil.SampleEntities())
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.True(t, log.HasMessage("warn", "connection generation stopped early"))
}

func TestRun_CancelledContext(t *testing.T) {
	g, _ := newGenerator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Run(ctx, testutil.SampleEntities())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestImportanceAndCap(t *testing.T) {
	g, _ := newGenerator(t, nil)

	big := symbiosis.Entity{Industry: "Oil & Gas", Location: "Dubai", Volume: symbiosis.Volume{Amount: 500000}}
	assert.Equal(t, 1.0, g.Importance(&big))
	assert.Equal(t, config.DefaultMaxCap, g.Cap(&big))

	none := symbiosis.Entity{}
	assert.Zero(t, g.Importance(&none))
	assert.Equal(t, config.DefaultMinCap, g.Cap(&none))

	mid := symbiosis.Entity{Industry: "Manufacturing", Location: "London", Volume: symbiosis.Volume{Amount: 50000}}
	assert.InDelta(t, 0.7, g.Importance(&mid), 1e-9)
	assert.Equal(t, 10, g.Cap(&mid))

	negative := symbiosis.Entity{Volume: symbiosis.Volume{Amount: -1e6}}
	assert.Zero(t, g.Importance(&negative))
}
