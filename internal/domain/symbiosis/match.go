package symbiosis

import (
	"encoding/json"
	"fmt"
)

// MatchType names the rule that produced a match.
type MatchType string

const (
	MatchDirect    MatchType = "direct"
	MatchCategory  MatchType = "category"
	MatchSubstring MatchType = "substring"
	MatchFuzzy     MatchType = "fuzzy"
	MatchMultiHop  MatchType = "multi_hop"
)

// IsValid reports whether t is a known match type.
func (t MatchType) IsValid() bool {
	switch t {
	case MatchDirect, MatchCategory, MatchSubstring, MatchFuzzy, MatchMultiHop:
		return true
	}
	return false
}

// Match explains why a producer's output fits a consumer's input. The set of
// implementations is closed; switch on the concrete type to read its fields.
type Match interface {
	Type() MatchType
	Material() string
	Confidence() float64
	isMatch()
}

// DirectMatch is an identical phrase on both sides.
type DirectMatch struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// CategoryMatch pairs two terms whose taxonomy categories are compatible.
type CategoryMatch struct {
	ProducerTerm     string  `json:"producer_term"`
	ConsumerTerm     string  `json:"consumer_term"`
	ProducerCategory string  `json:"producer_category"`
	ConsumerCategory string  `json:"consumer_category"`
	Compatibility    float64 `json:"compatibility"`
	Score            float64 `json:"score"`
}

// SubstringMatch pairs two terms where one contains the other.
type SubstringMatch struct {
	ProducerTerm string  `json:"producer_term"`
	ConsumerTerm string  `json:"consumer_term"`
	LengthRatio  float64 `json:"length_ratio"`
	Score        float64 `json:"score"`
}

// FuzzyMatch pairs two words within close edit distance.
type FuzzyMatch struct {
	ProducerTerm string  `json:"producer_term"`
	ConsumerTerm string  `json:"consumer_term"`
	ProducerWord string  `json:"producer_word"`
	ConsumerWord string  `json:"consumer_word"`
	Similarity   float64 `json:"similarity"`
	Score        float64 `json:"score"`
}

// MultiHopMatch marks a connection that is one edge of a discovered chain.
type MultiHopMatch struct {
	ChainID         string   `json:"chain_id"`
	Members         []string `json:"members"`
	Position        int      `json:"position"`
	Materials       []string `json:"materials,omitempty"`
	ChainConfidence float64  `json:"chain_confidence"`
}

// Type implements Match.
func (DirectMatch) Type() MatchType { return MatchDirect }

// Material implements Match.
func (m DirectMatch) Material() string { return m.Term }

// Confidence implements Match.
func (m DirectMatch) Confidence() float64 { return m.Score }

func (DirectMatch) isMatch() {}

// Type implements Match.
func (CategoryMatch) Type() MatchType { return MatchCategory }

// Material names both terms unless they are identical.
func (m CategoryMatch) Material() string {
	if m.ProducerTerm == m.ConsumerTerm {
		return m.ProducerTerm
	}
	return m.ProducerTerm + " → " + m.ConsumerTerm
}

// Confidence implements Match.
func (m CategoryMatch) Confidence() float64 { return m.Score }

func (CategoryMatch) isMatch() {}

// Type implements Match.
func (SubstringMatch) Type() MatchType { return MatchSubstring }

// Material is the shorter, contained term.
func (m SubstringMatch) Material() string {
	if len(m.ConsumerTerm) < len(m.ProducerTerm) {
		return m.ConsumerTerm
	}
	return m.ProducerTerm
}

// Confidence implements Match.
func (m SubstringMatch) Confidence() float64 { return m.Score }

func (SubstringMatch) isMatch() {}

// Type implements Match.
func (FuzzyMatch) Type() MatchType { return MatchFuzzy }

// Material implements Match.
func (m FuzzyMatch) Material() string { return m.ProducerTerm + " ~ " + m.ConsumerTerm }

// Confidence implements Match.
func (m FuzzyMatch) Confidence() float64 { return m.Score }

func (FuzzyMatch) isMatch() {}

// Type implements Match.
func (MultiHopMatch) Type() MatchType { return MatchMultiHop }

// Material is the material carried on this edge of the chain, when known.
func (m MultiHopMatch) Material() string {
	if m.Position >= 0 && m.Position < len(m.Materials) {
		return m.Materials[m.Position]
	}
	return fmt.Sprintf("multi-hop chain (%d members)", len(m.Members))
}

// Confidence implements Match.
func (m MultiHopMatch) Confidence() float64 { return m.ChainConfidence }

func (MultiHopMatch) isMatch() {}

// DecodeMatch rebuilds the concrete variant named by t from raw.
func DecodeMatch(t MatchType, raw json.RawMessage) (Match, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var (
		m   Match
		err error
	)
	switch t {
	case MatchDirect:
		var v DirectMatch
		err = json.Unmarshal(raw, &v)
		m = v
	case MatchCategory:
		var v CategoryMatch
		err = json.Unmarshal(raw, &v)
		m = v
	case MatchSubstring:
		var v SubstringMatch
		err = json.Unmarshal(raw, &v)
		m = v
	case MatchFuzzy:
		var v FuzzyMatch
		err = json.Unmarshal(raw, &v)
		m = v
	case MatchMultiHop:
		var v MultiHopMatch
		err = json.Unmarshal(raw, &v)
		m = v
	default:
		return nil, fmt.Errorf("symbiosis: unknown match type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("symbiosis: decode %s match: %w", t, err)
	}
	return m, nil
}
