package symbiosis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_JSONKeepsMatchVariant(t *testing.T) {
	conns := []Connection{
		{
			ProducerID: "company-12",
			ConsumerID: "company-16",
			Material:   "aluminum",
			Match: CategoryMatch{
				ProducerTerm: "aluminum", ConsumerTerm: "aluminum",
				ProducerCategory: "metals", ConsumerCategory: "metals",
				Compatibility: 1, Score: 0.95,
			},
			Confidence: 1,
			HopCount:   1,
		},
		{
			ProducerID:   "a",
			ConsumerID:   "b",
			Match:        MultiHopMatch{ChainID: "c1", Members: []string{"a", "b", "c"}, Position: 0, ChainConfidence: 0.9},
			Confidence:   0.9,
			HopCount:     3,
			ChainMembers: []string{"a", "b", "c"},
		},
	}

	data, err := json.Marshal(conns)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"match_type":"category"`)
	assert.Contains(t, string(data), `"producer_category":"metals"`)

	var back []Connection
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 2)
	assert.Equal(t, conns[0].Match, back[0].Match)
	assert.Equal(t, MatchMultiHop, back[1].MatchType())
	hop, ok := back[1].Match.(MultiHopMatch)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, hop.Members)
}

func TestConnection_UnknownMatchType(t *testing.T) {
	var c Connection
	err := json.Unmarshal([]byte(`{"producer_id":"a","match_type":"telepathy","match":{}}`), &c)
	assert.Error(t, err)
}

func TestMatchVariants_Material(t *testing.T) {
	assert.Equal(t, "steel", DirectMatch{Term: "steel"}.Material())
	assert.Equal(t, "steel → iron", CategoryMatch{ProducerTerm: "steel", ConsumerTerm: "iron"}.Material())
	assert.Equal(t, "aluminum", SubstringMatch{ProducerTerm: "aluminum offcuts", ConsumerTerm: "aluminum"}.Material())
	assert.Equal(t, "fabric", MultiHopMatch{Materials: []string{"fabric"}, Position: 0}.Material())
	assert.Equal(t, "multi-hop chain (3 members)", MultiHopMatch{Members: []string{"a", "b", "c"}, Position: 2}.Material())
	assert.True(t, MatchFuzzy.IsValid())
	assert.False(t, MatchType("other").IsValid())
}
