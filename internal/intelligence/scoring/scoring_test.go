package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := FromConfig(config.DefaultEngine(), terms.NewExtractor())
	require.NoError(t, err)
	return s
}

func TestGeography_Bonus(t *testing.T) {
	g := NewGeography(config.DefaultEngine().Geography)
	cases := []struct {
		a, b string
		want float64
	}{
		{"Dubai", " dubai ", 0.35},
		{"Dubai", "Abu Dhabi", 0.25},
		{"Dubai, UAE", "Sharjah", 0.25},
		{"Riyadh", "Doha", 0.20},
		{"Berlin", "Warsaw", 0.15},
		{"Dubai", "London", 0.08},
		{"Atlantis", "Dubai", 0.08},
		{"", "Dubai", 0},
		{"Dubai", "", 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, g.Bonus(tc.a, tc.b), 1e-9, "%s / %s", tc.a, tc.b)
		assert.Equal(t, g.Bonus(tc.a, tc.b), g.Bonus(tc.b, tc.a), "symmetry %s / %s", tc.a, tc.b)
	}
}

func TestGeography_RegionWholeWords(t *testing.T) {
	g := NewGeography(config.DefaultEngine().Geography)

	name, bloc, ok := g.Region("Kuwait City")
	require.True(t, ok)
	assert.Equal(t, "Kuwait", name)
	assert.Equal(t, config.BlocGulf, bloc)

	name, _, ok = g.Region("Sur, Oman")
	require.True(t, ok)
	assert.Equal(t, "Oman", name)

	_, _, ok = g.Region("Surrey")
	assert.False(t, ok)
	assert.Equal(t, config.BlocEurope, g.Bloc("Berlin, Germany"))
}

func TestIndustry_Synergy(t *testing.T) {
	ind := NewIndustry(config.DefaultEngine().Industry)
	cases := []struct {
		a, b string
		want float64
	}{
		{"Oil & Gas", "Refining", 0.98},
		{"Refining", "Oil & Gas", 0.98},
		{"Manufacturing (General)", "Construction & Real Estate", 0.75},
		{"Manufacturing", "Manufacturing", 0.4},
		{"Banking", "Retail", 0.6},
		{"", "Retail", 0},
		{"Banking", "  ", 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, ind.Synergy(tc.a, tc.b), 1e-9, "%s / %s", tc.a, tc.b)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("steel", "steel"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.InDelta(t, 1-3.0/7, Similarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 1-1.0/9, Similarity("aluminium", "aluminum"), 1e-9)
}

func TestScorer_AluminumScenario(t *testing.T) {
	s := newScorer(t)
	a := &symbiosis.Entity{ID: "A", Products: []string{"aluminum offcuts"}, Industry: "Manufacturing", Location: "Dubai"}
	b := &symbiosis.Entity{ID: "B", Materials: []string{"aluminum"}, Industry: "Manufacturing", Location: "Abu Dhabi"}

	matches := s.Matches(a, b)
	require.Len(t, matches, 3)
	assert.Equal(t, symbiosis.MatchCategory, matches[0].Type())
	assert.InDelta(t, 0.95, matches[0].Confidence(), 1e-9)
	assert.Equal(t, "aluminum", matches[0].Material())
	assert.Equal(t, symbiosis.MatchFuzzy, matches[1].Type())
	assert.InDelta(t, 0.85, matches[1].Confidence(), 1e-9)
	assert.Equal(t, symbiosis.MatchSubstring, matches[2].Type())
	assert.InDelta(t, 0.775, matches[2].Confidence(), 1e-9)
	for _, m := range matches {
		assert.NotEqual(t, symbiosis.MatchDirect, m.Type())
	}

	as, ok := s.Evaluate(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.25, as.GeographicBonus, 1e-9)
	assert.InDelta(t, 0.4, as.IndustrySynergy, 1e-9)
	assert.Equal(t, 1.0, as.Confidence)
	assert.True(t, s.Accepts(as))

	conn := as.Connection(a, b)
	assert.Equal(t, 1, conn.HopCount)
	assert.Equal(t, "A", conn.ProducerID)
	assert.Equal(t, "aluminum", conn.Material)
}

func TestScorer_DirectWins(t *testing.T) {
	s := newScorer(t)
	a := &symbiosis.Entity{ID: "A", WasteOutputs: []string{"Steel Slag"}}
	b := &symbiosis.Entity{ID: "B", Materials: []string{"steel slag", "gypsum"}}

	matches := s.Matches(a, b)
	require.NotEmpty(t, matches)
	assert.Equal(t, symbiosis.DirectMatch{Term: "steel slag", Score: 0.98}, matches[0])

	var sawCross bool
	for _, m := range matches {
		if cm, ok := m.(symbiosis.CategoryMatch); ok && cm.ConsumerCategory == "construction" {
			sawCross = true
			assert.InDelta(t, ((0.92+0.82)/2*0.75+0.15)*0.95, cm.Score, 1e-9)
		}
	}
	assert.True(t, sawCross)

	as, ok := s.Evaluate(a, b)
	require.True(t, ok)
	assert.Zero(t, as.GeographicBonus)
	assert.Zero(t, as.IndustrySynergy)
	assert.InDelta(t, 0.98, as.Confidence, 1e-9)
}

func TestScorer_NoMatch(t *testing.T) {
	s := newScorer(t)
	a := &symbiosis.Entity{ID: "A", Products: []string{"software licences"}, Location: "Dubai"}
	b := &symbiosis.Entity{ID: "B", Materials: []string{"fresh fruit"}, Location: "Dubai"}

	assert.Empty(t, s.Matches(a, b))
	_, ok := s.Evaluate(a, b)
	assert.False(t, ok)
	assert.False(t, s.Accepts(Assessment{}))

	empty := &symbiosis.Entity{ID: "C"}
	assert.Nil(t, s.Matches(empty, b))
	assert.Nil(t, s.Matches(a, empty))
}

func TestScorer_BoundedAndSorted(t *testing.T) {
	s := newScorer(t)
	a := &symbiosis.Entity{ID: "A", Products: []string{
		"steel", "copper", "aluminum scrap", "plastic waste", "wood waste", "waste heat", "wastewater", "glass",
	}}
	b := &symbiosis.Entity{ID: "B", Materials: []string{
		"steel", "copper wire", "aluminium", "plastic films", "biomass", "steam", "process water", "glass", "sand",
	}}

	matches := s.Matches(a, b)
	require.Len(t, matches, config.DefaultMaxMatches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence(), matches[i].Confidence())
	}
	seen := map[string]bool{}
	for _, m := range matches {
		key := string(m.Type()) + "|" + m.Material()
		assert.False(t, seen[key], key)
		seen[key] = true
	}
	assert.Equal(t, uint64(1), s.PairsScored())
}
