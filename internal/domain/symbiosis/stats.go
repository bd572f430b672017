package symbiosis

import (
	"sort"
	"strconv"
)

// Count is one labelled tally.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats summarizes a ranked connection list.
type Stats struct {
	Total             int            `json:"total"`
	ByMatchType       map[string]int `json:"by_match_type"`
	ByIndustry        map[string]int `json:"by_industry"`
	ByConfidence      map[string]int `json:"by_confidence"`
	ByRegion          map[string]int `json:"by_region"`
	ByHopCount        map[string]int `json:"by_hop_count"`
	TopMaterials      []Count        `json:"top_materials"`
	AverageConfidence float64        `json:"average_confidence"`
	Participants      int            `json:"participants"`
	NetworkEfficiency float64        `json:"network_efficiency"`
	Chains            int            `json:"chains"`
}

// topMaterialLimit bounds Stats.TopMaterials.
const topMaterialLimit = 10

// ComputeStats tallies conns. Industry keys read "producer → consumer".
func ComputeStats(entities []Entity, conns []Connection, chains []Chain) Stats {
	s := Stats{
		Total:        len(conns),
		ByMatchType:  map[string]int{},
		ByIndustry:   map[string]int{},
		ByConfidence: map[string]int{},
		ByRegion:     map[string]int{},
		ByHopCount:   map[string]int{},
		Chains:       len(chains),
	}
	if len(conns) == 0 {
		return s
	}

	idx := Index(entities)
	industry := func(id string) string {
		if i, ok := idx[id]; ok && entities[i].Industry != "" {
			return entities[i].Industry
		}
		return "unknown"
	}

	materials := map[string]int{}
	participants := map[string]struct{}{}
	var sum float64
	for i := range conns {
		c := &conns[i]
		s.ByMatchType[string(c.MatchType())]++
		s.ByIndustry[industry(c.ProducerID)+" → "+industry(c.ConsumerID)]++
		s.ByConfidence[ConfidenceBand(c.Confidence)]++
		s.ByRegion[RegionBand(c.GeographicBonus)]++
		s.ByHopCount[strconv.Itoa(c.HopCount)]++
		materials[c.Material]++
		participants[c.ProducerID] = struct{}{}
		participants[c.ConsumerID] = struct{}{}
		sum += c.Confidence
	}

	s.AverageConfidence = sum / float64(len(conns))
	s.Participants = len(participants)
	if len(entities) > 0 {
		s.NetworkEfficiency = float64(s.Participants) / float64(len(entities)) * s.AverageConfidence
	}

	for k, n := range materials {
		s.TopMaterials = append(s.TopMaterials, Count{Key: k, Count: n})
	}
	sort.Slice(s.TopMaterials, func(i, j int) bool {
		a, b := s.TopMaterials[i], s.TopMaterials[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
	if len(s.TopMaterials) > topMaterialLimit {
		s.TopMaterials = s.TopMaterials[:topMaterialLimit]
	}
	return s
}
