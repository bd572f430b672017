// Package taxonomy maps material terms to categories and scores how well two
// categories can feed each other.
package taxonomy

import (
	"strings"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// Taxonomy is immutable after New and safe for concurrent use.
type Taxonomy struct {
	names  []string
	byName map[string]int
	byTerm map[string]int
	matrix []float64 // len(names)² row-major
}

// New builds the term index and the compatibility matrix from cfg.
func New(cfg config.TaxonomyConfig) (*Taxonomy, error) {
	n := len(cfg.Categories)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeEngineConfig, "taxonomy has no categories")
	}
	// Cross-category pairs must always score below an identical category.
	if cfg.MaxCrossScore < 0 || cfg.MaxCrossScore >= 1 {
		return nil, errors.Newf(errors.ErrCodeEngineConfig, "taxonomy max cross score %.3f out of range [0, 1)", cfg.MaxCrossScore)
	}
	if cfg.CrossPenalty < 0 || cfg.CrossPenalty > 1 {
		return nil, errors.Newf(errors.ErrCodeEngineConfig, "taxonomy cross penalty %.3f out of range [0, 1]", cfg.CrossPenalty)
	}

	t := &Taxonomy{
		names:  make([]string, n),
		byName: make(map[string]int, n),
		byTerm: make(map[string]int),
		matrix: make([]float64, n*n),
	}
	for i, c := range cfg.Categories {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			return nil, errors.New(errors.ErrCodeEngineConfig, "taxonomy category name is required")
		}
		if _, dup := t.byName[key]; dup {
			return nil, errors.Newf(errors.ErrCodeEngineConfig, "taxonomy category %q is duplicated", c.Name)
		}
		if c.BaseScore < 0 || c.BaseScore > 1 {
			return nil, errors.Newf(errors.ErrCodeEngineConfig, "taxonomy category %q base score %.3f out of range", c.Name, c.BaseScore)
		}
		t.names[i] = key
		t.byName[key] = i
	}

	// First category in catalog order wins a shared term.
	for i, c := range cfg.Categories {
		for _, list := range [][]string{c.Members, c.ProcessingMethods, c.EndUses} {
			for _, m := range list {
				k := terms.Canonical(m)
				if k == "" {
					continue
				}
				if _, taken := t.byTerm[k]; !taken {
					t.byTerm[k] = i
				}
			}
		}
	}

	synergy := make(map[[2]int]bool, len(cfg.SynergyPairs)*2)
	for _, p := range cfg.SynergyPairs {
		a, okA := t.byName[strings.ToLower(strings.TrimSpace(p.A))]
		b, okB := t.byName[strings.ToLower(strings.TrimSpace(p.B))]
		if !okA || !okB {
			return nil, errors.Newf(errors.ErrCodeEngineConfig, "synergy pair %s/%s references an unknown category", p.A, p.B)
		}
		synergy[[2]int{a, b}] = true
		synergy[[2]int{b, a}] = true
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				t.matrix[i*n+j] = 1
				continue
			}
			score := (cfg.Categories[i].BaseScore + cfg.Categories[j].BaseScore) / 2 * cfg.CrossPenalty
			if synergy[[2]int{i, j}] {
				score += cfg.SynergyBonus
			}
			if score > cfg.MaxCrossScore {
				score = cfg.MaxCrossScore
			}
			t.matrix[i*n+j] = score
		}
	}
	return t, nil
}

// CategoryOf returns the category of a normalized term.
func (t *Taxonomy) CategoryOf(term string) (string, bool) {
	i, ok := t.byTerm[term]
	if !ok {
		return "", false
	}
	return t.names[i], true
}

// Compatibility returns the matrix cell for two category names, or 0 when
// either is unknown.
func (t *Taxonomy) Compatibility(a, b string) float64 {
	i, okA := t.byName[a]
	j, okB := t.byName[b]
	if !okA || !okB {
		return 0
	}
	return t.matrix[i*len(t.names)+j]
}

// Categories lists category names in catalog order.
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// TermCount is the number of distinct catalog terms.
func (t *Taxonomy) TermCount() int { return len(t.byTerm) }
