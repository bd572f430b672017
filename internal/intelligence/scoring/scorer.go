// Package scoring computes pairwise compatibility between a producer and a
// consumer across material, geographic and industry dimensions.
package scoring

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/intelligence/taxonomy"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
)

// Assessment is the full pairwise evaluation of one ordered pair.
type Assessment struct {
	Matches         []symbiosis.Match `json:"-"`
	Best            symbiosis.Match   `json:"-"`
	MaterialScore   float64           `json:"material_score"`
	GeographicBonus float64           `json:"geographic_bonus"`
	IndustrySynergy float64           `json:"industry_synergy"`
	Confidence      float64           `json:"confidence"`
}

// Connection turns a into a direct connection from p to c.
func (a Assessment) Connection(p, c *symbiosis.Entity) symbiosis.Connection {
	return symbiosis.Connection{
		ProducerID:      p.ID,
		ConsumerID:      c.ID,
		Material:        a.Best.Material(),
		Match:           a.Best,
		Confidence:      a.Confidence,
		GeographicBonus: a.GeographicBonus,
		IndustrySynergy: a.IndustrySynergy,
		HopCount:        1,
	}
}

// Scorer is safe for concurrent use.
type Scorer struct {
	cfg      config.MatchingConfig
	terms    *terms.Extractor
	taxonomy *taxonomy.Taxonomy
	geo      *Geography
	industry *Industry

	pairs atomic.Uint64
}

// NewScorer wires the scorer to its shared extractor and taxonomy.
func NewScorer(cfg config.MatchingConfig, ex *terms.Extractor, tax *taxonomy.Taxonomy, geo *Geography, ind *Industry) *Scorer {
	return &Scorer{cfg: cfg, terms: ex, taxonomy: tax, geo: geo, industry: ind}
}

// FromConfig builds the taxonomy, geography and industry tables of cfg and
// returns a Scorer over them.
func FromConfig(cfg config.EngineConfig, ex *terms.Extractor) (*Scorer, error) {
	tax, err := taxonomy.New(cfg.Taxonomy)
	if err != nil {
		return nil, err
	}
	return NewScorer(cfg.Matching, ex, tax, NewGeography(cfg.Geography), NewIndustry(cfg.Industry)), nil
}

// Geography exposes the proximity function used by Evaluate.
func (s *Scorer) Geography() *Geography { return s.geo }

// GeographicBonus is the proximity term of the pair p → c.
func (s *Scorer) GeographicBonus(p, c *symbiosis.Entity) float64 {
	return s.geo.Bonus(p.Location, c.Location)
}

// IndustrySynergy is the unweighted industry term of the pair p → c.
func (s *Scorer) IndustrySynergy(p, c *symbiosis.Entity) float64 {
	return s.industry.Synergy(p.Industry, c.Industry)
}

// Config returns the matching thresholds in effect.
func (s *Scorer) Config() config.MatchingConfig { return s.cfg }

// PairsScored counts Matches calls since construction.
func (s *Scorer) PairsScored() uint64 { return s.pairs.Load() }

type catTerm struct {
	term string
	cat  string
}

func (s *Scorer) categorized(set *terms.Set) []catTerm {
	var out []catTerm
	for _, t := range set.Terms() {
		if c, ok := s.taxonomy.CategoryOf(t); ok {
			out = append(out, catTerm{t, c})
		}
	}
	return out
}

func longWords(phrase string, min int) []string {
	var out []string
	for _, w := range strings.Fields(phrase) {
		if utf8.RuneCountInString(w) >= min {
			out = append(out, w)
		}
	}
	return out
}

// Matches lists the material matches of producer outputs against consumer
// inputs, best first, at most MaxMatches.
func (s *Scorer) Matches(p, c *symbiosis.Entity) []symbiosis.Match {
	s.pairs.Add(1)
	ps := s.terms.Extract(p.OutputText())
	cs := s.terms.Extract(c.InputText())
	if ps.Empty() || cs.Empty() {
		return nil
	}

	var out []symbiosis.Match
	seen := make(map[string]struct{})
	add := func(m symbiosis.Match) {
		key := string(m.Type()) + "\x00" + m.Material()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}

	// direct
	for _, ph := range ps.Phrases() {
		if cs.HasPhrase(ph) {
			add(symbiosis.DirectMatch{Term: ph, Score: s.cfg.DirectScore})
		}
	}

	// category
	consumerCats := s.categorized(cs)
	emitted := make(map[[2]string]struct{})
	for _, pt := range s.categorized(ps) {
		for _, ct := range consumerCats {
			pair := [2]string{pt.cat, ct.cat}
			if _, done := emitted[pair]; done {
				continue
			}
			compat := s.taxonomy.Compatibility(pt.cat, ct.cat)
			if compat <= s.cfg.CategoryThreshold {
				continue
			}
			emitted[pair] = struct{}{}
			add(symbiosis.CategoryMatch{
				ProducerTerm:     pt.term,
				ConsumerTerm:     ct.term,
				ProducerCategory: pt.cat,
				ConsumerCategory: ct.cat,
				Compatibility:    compat,
				Score:            compat * s.cfg.CategoryWeight,
			})
		}
	}

	// substring
	for _, pt := range ps.Terms() {
		pl := utf8.RuneCountInString(pt)
		if pl < s.cfg.SubstringMinLength {
			continue
		}
		for _, ct := range cs.Terms() {
			if pt == ct {
				continue
			}
			cl := utf8.RuneCountInString(ct)
			if cl < s.cfg.SubstringMinLength {
				continue
			}
			if !strings.Contains(pt, ct) && !strings.Contains(ct, pt) {
				continue
			}
			ratio := float64(min(pl, cl)) / float64(max(pl, cl))
			if ratio < s.cfg.SubstringMinRatio {
				continue
			}
			add(symbiosis.SubstringMatch{
				ProducerTerm: pt,
				ConsumerTerm: ct,
				LengthRatio:  ratio,
				Score:        s.cfg.SubstringBase + ratio*s.cfg.SubstringSpan,
			})
		}
	}

	// fuzzy
	for _, pp := range ps.Phrases() {
		if utf8.RuneCountInString(pp) < s.cfg.FuzzyMinPhraseLength {
			continue
		}
		pw := longWords(pp, s.cfg.FuzzyMinWordLength)
		for _, cp := range cs.Phrases() {
			if utf8.RuneCountInString(cp) < s.cfg.FuzzyMinPhraseLength {
				continue
			}
			for _, cw := range longWords(cp, s.cfg.FuzzyMinWordLength) {
				for _, w := range pw {
					sim := Similarity(w, cw)
					if sim <= s.cfg.FuzzyThreshold {
						continue
					}
					add(symbiosis.FuzzyMatch{
						ProducerTerm: pp,
						ConsumerTerm: cp,
						ProducerWord: w,
						ConsumerWord: cw,
						Similarity:   sim,
						Score:        s.cfg.FuzzyBase + sim*s.cfg.FuzzySpan,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence() > out[j].Confidence()
	})
	if len(out) > s.cfg.MaxMatches {
		out = out[:s.cfg.MaxMatches]
	}
	return out
}

// Evaluate combines the best material match with the geographic bonus and
// the weighted industry synergy. It reports false when no material matches.
func (s *Scorer) Evaluate(p, c *symbiosis.Entity) (Assessment, bool) {
	matches := s.Matches(p, c)
	if len(matches) == 0 {
		return Assessment{}, false
	}
	a := Assessment{
		Matches:         matches,
		Best:            matches[0],
		MaterialScore:   matches[0].Confidence(),
		GeographicBonus: s.GeographicBonus(p, c),
		IndustrySynergy: s.IndustrySynergy(p, c),
	}
	a.Confidence = math.Min(1, a.MaterialScore+a.GeographicBonus+a.IndustrySynergy*s.cfg.SynergyWeight)
	return a, true
}

// Accepts reports whether an assessment clears the direct connection threshold.
func (s *Scorer) Accepts(a Assessment) bool {
	return a.Best != nil && a.Confidence > s.cfg.ConnectionThreshold
}
