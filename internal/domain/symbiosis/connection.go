package symbiosis

import (
	"encoding/json"
)

// Estimate is the Monte Carlo view of a connection's confidence.
type Estimate struct {
	Mean       float64 `json:"mean"`
	Confidence float64 `json:"confidence"`
	Risk       float64 `json:"risk"`
}

// Connection is a scored candidate exchange from a producer to a consumer.
type Connection struct {
	ProducerID      string
	ConsumerID      string
	Material        string
	Match           Match
	Confidence      float64
	GeographicBonus float64
	IndustrySynergy float64
	HopCount        int
	ChainMembers    []string

	// Set by the ranker.
	Estimate     Estimate
	RankScore    float64
	Priority     string
	ExchangeKind ExchangeKind
	WasteType    string
}

// MatchType returns the type of the underlying match.
func (c *Connection) MatchType() MatchType {
	if c.Match == nil {
		return ""
	}
	return c.Match.Type()
}

// PairKey identifies the ordered (producer, consumer) pair.
func (c *Connection) PairKey() string {
	return PairKey(c.ProducerID, c.ConsumerID)
}

// PairKey builds the dedupe key of an ordered pair.
func PairKey(producerID, consumerID string) string {
	return producerID + "\x00" + consumerID
}

type connectionJSON struct {
	ProducerID      string          `json:"producer_id"`
	ConsumerID      string          `json:"consumer_id"`
	Material        string          `json:"material"`
	MatchType       MatchType       `json:"match_type"`
	Match           json.RawMessage `json:"match,omitempty"`
	Confidence      float64         `json:"confidence"`
	GeographicBonus float64         `json:"geographic_bonus"`
	IndustrySynergy float64         `json:"industry_synergy"`
	HopCount        int             `json:"hop_count"`
	ChainMembers    []string        `json:"chain_members,omitempty"`
	Estimate        Estimate        `json:"estimate"`
	RankScore       float64         `json:"rank_score"`
	Priority        string          `json:"priority,omitempty"`
	ExchangeKind    ExchangeKind    `json:"exchange_kind,omitempty"`
	WasteType       string          `json:"waste_type,omitempty"`
}

// MarshalJSON writes the match variant under "match" tagged by "match_type".
func (c Connection) MarshalJSON() ([]byte, error) {
	out := connectionJSON{
		ProducerID:      c.ProducerID,
		ConsumerID:      c.ConsumerID,
		Material:        c.Material,
		MatchType:       c.MatchType(),
		Confidence:      c.Confidence,
		GeographicBonus: c.GeographicBonus,
		IndustrySynergy: c.IndustrySynergy,
		HopCount:        c.HopCount,
		ChainMembers:    c.ChainMembers,
		Estimate:        c.Estimate,
		RankScore:       c.RankScore,
		Priority:        c.Priority,
		ExchangeKind:    c.ExchangeKind,
		WasteType:       c.WasteType,
	}
	if c.Match != nil {
		raw, err := json.Marshal(c.Match)
		if err != nil {
			return nil, err
		}
		out.Match = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the concrete match variant.
func (c *Connection) UnmarshalJSON(data []byte) error {
	var in connectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m, err := DecodeMatch(in.MatchType, in.Match)
	if err != nil {
		return err
	}
	*c = Connection{
		ProducerID:      in.ProducerID,
		ConsumerID:      in.ConsumerID,
		Material:        in.Material,
		Match:           m,
		Confidence:      in.Confidence,
		GeographicBonus: in.GeographicBonus,
		IndustrySynergy: in.IndustrySynergy,
		HopCount:        in.HopCount,
		ChainMembers:    in.ChainMembers,
		Estimate:        in.Estimate,
		RankScore:       in.RankScore,
		Priority:        in.Priority,
		ExchangeKind:    in.ExchangeKind,
		WasteType:       in.WasteType,
	}
	return nil
}
