package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

func newDefault(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := New(config.DefaultEngine().Taxonomy)
	require.NoError(t, err)
	return tax
}

func TestNew_Defaults(t *testing.T) {
	tax := newDefault(t)
	assert.Equal(t, []string{
		"petrochemicals", "metals", "plastics", "organic", "construction",
		"water", "energy", "chemicals", "textiles", "electronics",
	}, tax.Categories())
	assert.Greater(t, tax.TermCount(), 100)
}

func TestCategoryOf(t *testing.T) {
	tax := newDefault(t)
	cases := map[string]string{
		"aluminum":   "metals",
		"steel slag": "metals",
		"wood waste": "organic",
		"biogas":     "organic",
		"e waste":    "electronics",
		"wastewater": "water",
		"steam":      "energy",
	}
	for term, want := range cases {
		got, ok := tax.CategoryOf(term)
		assert.True(t, ok, term)
		assert.Equal(t, want, got, term)
	}
	_, ok := tax.CategoryOf("unobtainium")
	assert.False(t, ok)
}

func TestCategoryOf_FirstCategoryWins(t *testing.T) {
	// "plastics" is an end use of petrochemicals and appears before the
	// plastics category itself.
	tax := newDefault(t)
	got, ok := tax.CategoryOf("plastics")
	require.True(t, ok)
	assert.Equal(t, "petrochemicals", got)
}

func TestCompatibility(t *testing.T) {
	tax := newDefault(t)

	assert.Equal(t, 1.0, tax.Compatibility("metals", "metals"))
	assert.InDelta(t, (0.92+0.82)/2*0.75+0.15, tax.Compatibility("metals", "construction"), 1e-9)
	assert.InDelta(t, tax.Compatibility("metals", "construction"), tax.Compatibility("construction", "metals"), 1e-12)
	assert.InDelta(t, (0.92+0.85)/2*0.75, tax.Compatibility("metals", "organic"), 1e-9)
	assert.Less(t, tax.Compatibility("metals", "organic"), config.DefaultCategoryThreshold)
	assert.Zero(t, tax.Compatibility("metals", "nope"))

	for _, a := range tax.Categories() {
		for _, b := range tax.Categories() {
			c := tax.Compatibility(a, b)
			assert.GreaterOrEqual(t, c, 0.0)
			if a != b {
				assert.LessOrEqual(t, c, config.DefaultMaxCrossScore)
			}
		}
	}
}

func TestNew_Rejects(t *testing.T) {
	cases := map[string]config.TaxonomyConfig{
		"empty": {},
		"duplicate": {Categories: []config.CategoryConfig{
			{Name: "metals", BaseScore: 0.9}, {Name: "Metals", BaseScore: 0.8},
		}},
		"score range": {Categories: []config.CategoryConfig{{Name: "metals", BaseScore: 1.2}}},
		"cross score": {
			Categories:    []config.CategoryConfig{{Name: "metals", BaseScore: 0.9}},
			MaxCrossScore: 1,
		},
		"cross penalty": {
			Categories:    []config.CategoryConfig{{Name: "metals", BaseScore: 0.9}},
			CrossPenalty:  1.5,
			MaxCrossScore: 0.95,
		},
		"unknown pair": {
			Categories:   []config.CategoryConfig{{Name: "metals", BaseScore: 0.9}},
			SynergyPairs: []config.CategoryPair{{A: "metals", B: "water"}},
		},
	}
	for name, cfg := range cases {
		_, err := New(cfg)
		require.Error(t, err, name)
		assert.True(t, errors.IsCode(err, errors.ErrCodeEngineConfig), name)
	}
}
