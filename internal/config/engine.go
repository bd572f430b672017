package config

import (
	"fmt"
	"strings"
	"time"
)

// EngineConfig is the single tuning object injected into the matching engine.
// All lookup tables are ordered slices so that every scan over them visits
// entries in the same order on every run.
type EngineConfig struct {
	Matching  MatchingConfig  `mapstructure:"matching"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Chains    ChainConfig     `mapstructure:"chains"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Geography GeographyConfig `mapstructure:"geography"`
	Industry  IndustryConfig  `mapstructure:"industry"`

	// Strict turns reference-invariant violations into errors instead of
	// filtering the offending records.
	Strict bool `mapstructure:"strict"`
}

// MatchingConfig tunes the pairwise scorer.
type MatchingConfig struct {
	MaxMatches int `mapstructure:"max_matches"`

	DirectScore float64 `mapstructure:"direct_score"`

	CategoryThreshold float64 `mapstructure:"category_threshold"`
	CategoryWeight    float64 `mapstructure:"category_weight"`

	SubstringMinLength int     `mapstructure:"substring_min_length"`
	SubstringMinRatio  float64 `mapstructure:"substring_min_ratio"`
	SubstringBase      float64 `mapstructure:"substring_base"`
	SubstringSpan      float64 `mapstructure:"substring_span"`

	FuzzyMinPhraseLength int     `mapstructure:"fuzzy_min_phrase_length"`
	FuzzyMinWordLength   int     `mapstructure:"fuzzy_min_word_length"`
	FuzzyThreshold       float64 `mapstructure:"fuzzy_threshold"`
	FuzzyBase            float64 `mapstructure:"fuzzy_base"`
	FuzzySpan            float64 `mapstructure:"fuzzy_span"`

	SynergyWeight       float64 `mapstructure:"synergy_weight"`
	ConnectionThreshold float64 `mapstructure:"connection_threshold"`
}

// WeightedLabel pairs a free-text label with a weight.
type WeightedLabel struct {
	Label  string  `mapstructure:"label" json:"label"`
	Weight float64 `mapstructure:"weight" json:"weight"`
}

// GeneratorConfig bounds direct connection generation.
type GeneratorConfig struct {
	GlobalCap   int     `mapstructure:"global_cap"`
	MinCap      int     `mapstructure:"min_cap"`
	MaxCap      int     `mapstructure:"max_cap"`
	CapScale    float64 `mapstructure:"cap_scale"`
	VolumeScale float64 `mapstructure:"volume_scale"`

	// IndustryBonuses raise the importance of producers whose industry label
	// contains the entry's label. The first matching entry applies.
	IndustryBonuses []WeightedLabel `mapstructure:"industry_bonuses"`

	// BlocBonuses raise the importance of producers located in a bloc.
	BlocBonuses []WeightedLabel `mapstructure:"bloc_bonuses"`

	Workers    int           `mapstructure:"workers"`
	TimeBudget time.Duration `mapstructure:"time_budget"`
}

// ChainConfig bounds multi-hop exploration. Each step expands only the
// BeamWidth best next entities, so exploration is greedy and may miss chains
// an exhaustive search would find.
type ChainConfig struct {
	Disabled        bool      `mapstructure:"disabled"`
	MaxHops         int       `mapstructure:"max_hops"`
	MinMembers      int       `mapstructure:"min_members"`
	BeamWidth       int       `mapstructure:"beam_width"`
	EdgeThreshold   float64   `mapstructure:"edge_threshold"`
	AcceptThreshold float64   `mapstructure:"accept_threshold"`
	LengthDecay     []float64 `mapstructure:"length_decay"` // index 0 is a 2-member chain
	DecayFloor      float64   `mapstructure:"decay_floor"`
	HubDegreeRatio  float64   `mapstructure:"hub_degree_ratio"`
	MaxMaterials    int       `mapstructure:"max_materials"`
	Workers         int       `mapstructure:"workers"`
}

// Decay returns the length-decay factor for a chain of n members.
func (c ChainConfig) Decay(n int) float64 {
	i := n - 2
	if i >= 0 && i < len(c.LengthDecay) {
		return c.LengthDecay[i]
	}
	return c.DecayFloor
}

// EstimatorConfig tunes the Monte Carlo confidence estimator.
type EstimatorConfig struct {
	Disabled          bool    `mapstructure:"disabled"`
	Trials            int     `mapstructure:"trials"`
	MarketSpread      float64 `mapstructure:"market_spread"`
	OperationalSpread float64 `mapstructure:"operational_spread"`
	RegulatorySpread  float64 `mapstructure:"regulatory_spread"`

	// Seed initialises the estimator RNG for every run. Zero selects a
	// time-based seed and makes ranking nondeterministic.
	Seed int64 `mapstructure:"seed"`
}

// RankingConfig bounds the final ranked output.
type RankingConfig struct {
	MaxChainConnections int `mapstructure:"max_chain_connections"`
	OutputCap           int `mapstructure:"output_cap"`
}

// CategoryConfig describes one material taxonomy bucket.
type CategoryConfig struct {
	Name              string   `mapstructure:"name"`
	Members           []string `mapstructure:"members"`
	ProcessingMethods []string `mapstructure:"processing_methods"`
	EndUses           []string `mapstructure:"end_uses"`
	BaseScore         float64  `mapstructure:"base_score"`
}

// CategoryPair names two categories that receive the synergy bonus.
type CategoryPair struct {
	A string `mapstructure:"a"`
	B string `mapstructure:"b"`
}

// TaxonomyConfig is the static material catalog.
type TaxonomyConfig struct {
	Categories    []CategoryConfig `mapstructure:"categories"`
	SynergyPairs  []CategoryPair   `mapstructure:"synergy_pairs"`
	CrossPenalty  float64          `mapstructure:"cross_penalty"`
	SynergyBonus  float64          `mapstructure:"synergy_bonus"`
	MaxCrossScore float64          `mapstructure:"max_cross_score"`
}

// RegionConfig maps place names to a named region within a bloc.
type RegionConfig struct {
	Name   string   `mapstructure:"name"`
	Bloc   string   `mapstructure:"bloc"`
	Places []string `mapstructure:"places"`
}

// GeographyConfig drives the geographic proximity bonus.
type GeographyConfig struct {
	SameCityBonus   float64         `mapstructure:"same_city_bonus"`
	SameRegionBonus float64         `mapstructure:"same_region_bonus"`
	BlocBonuses     []WeightedLabel `mapstructure:"bloc_bonuses"`
	DefaultBonus    float64         `mapstructure:"default_bonus"`
	Regions         []RegionConfig  `mapstructure:"regions"`
}

// SynergyRule scores a source industry against target industries.
type SynergyRule struct {
	Source  string          `mapstructure:"source"`
	Targets []WeightedLabel `mapstructure:"targets"`
}

// IndustryConfig drives the industry synergy lookup.
type IndustryConfig struct {
	Rules        []SynergyRule `mapstructure:"rules"`
	Default      float64       `mapstructure:"default"`
	SameIndustry float64       `mapstructure:"same_industry"`
}

// Validate checks the engine tuning for values that would break an invariant.
func (c *EngineConfig) Validate() error {
	m := c.Matching
	if m.MaxMatches < 1 {
		return fmt.Errorf("config: engine.matching.max_matches must be >= 1, got %d", m.MaxMatches)
	}
	for name, v := range map[string]float64{
		"direct_score":         m.DirectScore,
		"category_threshold":   m.CategoryThreshold,
		"category_weight":      m.CategoryWeight,
		"fuzzy_threshold":      m.FuzzyThreshold,
		"connection_threshold": m.ConnectionThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: engine.matching.%s %.3f is out of range [0, 1]", name, v)
		}
	}

	g := c.Generator
	if g.MinCap < 1 || g.MaxCap < g.MinCap {
		return fmt.Errorf("config: engine.generator caps [%d, %d] are invalid", g.MinCap, g.MaxCap)
	}
	if g.GlobalCap < 1 {
		return fmt.Errorf("config: engine.generator.global_cap must be >= 1, got %d", g.GlobalCap)
	}
	if g.VolumeScale <= 0 {
		return fmt.Errorf("config: engine.generator.volume_scale must be > 0")
	}

	ch := c.Chains
	if ch.MaxHops < 2 {
		return fmt.Errorf("config: engine.chains.max_hops must be >= 2, got %d", ch.MaxHops)
	}
	if ch.MinMembers < 2 {
		return fmt.Errorf("config: engine.chains.min_members must be >= 2, got %d", ch.MinMembers)
	}
	if ch.BeamWidth < 1 {
		return fmt.Errorf("config: engine.chains.beam_width must be >= 1, got %d", ch.BeamWidth)
	}
	for i, d := range ch.LengthDecay {
		if d < 0 || d > 1 {
			return fmt.Errorf("config: engine.chains.length_decay[%d] %.3f is out of range [0, 1]", i, d)
		}
	}

	if !c.Estimator.Disabled && c.Estimator.Trials < 2 {
		return fmt.Errorf("config: engine.estimator.trials must be >= 2, got %d", c.Estimator.Trials)
	}

	if c.Ranking.OutputCap < 1 {
		return fmt.Errorf("config: engine.ranking.output_cap must be >= 1, got %d", c.Ranking.OutputCap)
	}

	if len(c.Taxonomy.Categories) == 0 {
		return fmt.Errorf("config: engine.taxonomy.categories must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Taxonomy.Categories))
	for _, cat := range c.Taxonomy.Categories {
		key := strings.ToLower(strings.TrimSpace(cat.Name))
		if key == "" {
			return fmt.Errorf("config: engine.taxonomy category name is required")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("config: engine.taxonomy category %q is duplicated", cat.Name)
		}
		seen[key] = struct{}{}
		if cat.BaseScore < 0 || cat.BaseScore > 1 {
			return fmt.Errorf("config: engine.taxonomy category %q base_score %.3f is out of range [0, 1]", cat.Name, cat.BaseScore)
		}
	}
	if c.Taxonomy.CrossPenalty < 0 || c.Taxonomy.CrossPenalty > 1 {
		return fmt.Errorf("config: engine.taxonomy.cross_penalty %.3f is out of range [0, 1]", c.Taxonomy.CrossPenalty)
	}
	if c.Taxonomy.MaxCrossScore < 0 || c.Taxonomy.MaxCrossScore >= 1 {
		return fmt.Errorf("config: engine.taxonomy.max_cross_score %.3f is out of range [0, 1)", c.Taxonomy.MaxCrossScore)
	}
	for _, p := range c.Taxonomy.SynergyPairs {
		for _, n := range []string{p.A, p.B} {
			if _, ok := seen[strings.ToLower(n)]; !ok {
				return fmt.Errorf("config: engine.taxonomy synergy pair references unknown category %q", n)
			}
		}
	}
	return nil
}
