package symbiosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats_Empty(t *testing.T) {
	s := ComputeStats(nil, nil, nil)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.TopMaterials)
	assert.Zero(t, s.NetworkEfficiency)
}

func TestComputeStats(t *testing.T) {
	entities := []Entity{
		{ID: "a", Industry: "Manufacturing"},
		{ID: "b", Industry: "Construction"},
		{ID: "c"},
		{ID: "d"},
	}
	conns := []Connection{
		{ProducerID: "a", ConsumerID: "b", Material: "steel", Match: DirectMatch{Term: "steel"}, Confidence: 0.95, GeographicBonus: 0.35, HopCount: 1},
		{ProducerID: "a", ConsumerID: "c", Material: "steel", Match: DirectMatch{Term: "steel"}, Confidence: 0.75, GeographicBonus: 0.15, HopCount: 1},
		{ProducerID: "b", ConsumerID: "c", Material: "glass", Match: MultiHopMatch{}, Confidence: 0.65, GeographicBonus: 0.08, HopCount: 3},
	}

	s := ComputeStats(entities, conns, []Chain{{}})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Chains)
	assert.Equal(t, map[string]int{"direct": 2, "multi_hop": 1}, s.ByMatchType)
	assert.Equal(t, 1, s.ByIndustry["Manufacturing → Construction"])
	assert.Equal(t, 1, s.ByIndustry["Manufacturing → unknown"])
	assert.Equal(t, map[string]int{"excellent": 1, "medium": 1, "good": 1}, s.ByConfidence)
	assert.Equal(t, map[string]int{"gulf_region": 1, "same_region": 1, "cross_region": 1}, s.ByRegion)
	assert.Equal(t, map[string]int{"1": 2, "3": 1}, s.ByHopCount)
	assert.Equal(t, []Count{{Key: "steel", Count: 2}, {Key: "glass", Count: 1}}, s.TopMaterials)
	assert.InDelta(t, 0.7833, s.AverageConfidence, 1e-3)
	assert.Equal(t, 3, s.Participants)
	assert.InDelta(t, 0.75*0.7833, s.NetworkEfficiency, 1e-3)
}
