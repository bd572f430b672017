package scoring

import (
	"strings"

	"github.com/turtacn/SymbioLink/internal/config"
)

type weighted struct {
	label  string
	weight float64
}

type rule struct {
	source  string
	targets []weighted
}

// Industry looks up how strongly two industries complement each other.
type Industry struct {
	rules        []rule
	def          float64
	sameIndustry float64
}

// NewIndustry lowercases the rule table once.
func NewIndustry(cfg config.IndustryConfig) *Industry {
	ind := &Industry{def: cfg.Default, sameIndustry: cfg.SameIndustry}
	for _, r := range cfg.Rules {
		rr := rule{source: strings.ToLower(strings.TrimSpace(r.Source))}
		for _, t := range r.Targets {
			rr.targets = append(rr.targets, weighted{label: strings.ToLower(strings.TrimSpace(t.Label)), weight: t.Weight})
		}
		ind.rules = append(ind.rules, rr)
	}
	return ind
}

// overlaps is substring containment in either direction.
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (ind *Industry) lookup(from, to string) (float64, bool) {
	for _, r := range ind.rules {
		if !overlaps(from, r.source) {
			continue
		}
		for _, t := range r.targets {
			if overlaps(to, t.label) {
				return t.weight, true
			}
		}
	}
	return 0, false
}

// Synergy scores producer industry a against consumer industry b.
func (ind *Industry) Synergy(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return 0
	}
	if w, ok := ind.lookup(la, lb); ok {
		return w
	}
	if w, ok := ind.lookup(lb, la); ok {
		return w
	}
	if la == lb {
		return ind.sameIndustry
	}
	return ind.def
}
