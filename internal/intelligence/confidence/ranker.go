package confidence

import (
	"sort"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
)

// PairContext supplies the non-material terms of a producer → consumer pair.
type PairContext interface {
	GeographicBonus(p, c *symbiosis.Entity) float64
	IndustrySynergy(p, c *symbiosis.Entity) float64
}

// Ranker merges direct and chain connections into the bounded final list.
type Ranker struct {
	cfg       config.RankingConfig
	threshold float64
	pairs     PairContext
}

// NewRanker drops connections below threshold. pairs fills the geographic
// and industry terms of multi-hop edges; nil leaves them zero.
func NewRanker(cfg config.RankingConfig, threshold float64, pairs PairContext) *Ranker {
	return &Ranker{cfg: cfg, threshold: threshold, pairs: pairs}
}

// ChainConnections expands the first MaxChainConnections chains into one
// multi-hop connection per edge. A pair already produced by an earlier chain
// is skipped. entities resolve member ids for the pair terms.
func (r *Ranker) ChainConnections(entities []symbiosis.Entity, chains []symbiosis.Chain) []symbiosis.Connection {
	if len(chains) > r.cfg.MaxChainConnections {
		chains = chains[:r.cfg.MaxChainConnections]
	}
	idx := symbiosis.Index(entities)
	var out []symbiosis.Connection
	seen := make(map[string]struct{})
	for _, ch := range chains {
		for k := 0; k+1 < ch.Len(); k++ {
			p, c := ch.MemberIDs[k], ch.MemberIDs[k+1]
			key := symbiosis.PairKey(p, c)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			members := append([]string(nil), ch.MemberIDs...)
			m := symbiosis.MultiHopMatch{
				ChainID:         ch.ID,
				Members:         members,
				Position:        k,
				Materials:       ch.Materials,
				ChainConfidence: ch.TotalConfidence,
			}
			conn := symbiosis.Connection{
				ProducerID:   p,
				ConsumerID:   c,
				Material:     m.Material(),
				Match:        m,
				Confidence:   ch.TotalConfidence,
				HopCount:     ch.Len(),
				ChainMembers: members,
			}
			pi, okP := idx[p]
			ci, okC := idx[c]
			if r.pairs != nil && okP && okC {
				conn.GeographicBonus = r.pairs.GeographicBonus(&entities[pi], &entities[ci])
				conn.IndustrySynergy = r.pairs.IndustrySynergy(&entities[pi], &entities[ci])
			}
			out = append(out, conn)
		}
	}
	return out
}

// Rank estimates every surviving connection in list order, sorts by
// confidence × estimate confidence and truncates to OutputCap. entities
// supply the producers' waste types.
func (r *Ranker) Rank(entities []symbiosis.Entity, direct []symbiosis.Connection, chains []symbiosis.Chain, est *Estimator) []symbiosis.Connection {
	multi := r.ChainConnections(entities, chains)
	all := make([]symbiosis.Connection, 0, len(direct)+len(multi))
	for _, list := range [][]symbiosis.Connection{direct, multi} {
		for _, c := range list {
			if c.Confidence >= r.threshold {
				all = append(all, c)
			}
		}
	}

	for i := range all {
		c := &all[i]
		c.Estimate = est.Estimate(c.Confidence)
		c.RankScore = c.Confidence * c.Estimate.Confidence
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RankScore > all[j].RankScore
	})
	if len(all) > r.cfg.OutputCap {
		all = all[:r.cfg.OutputCap]
	}

	idx := symbiosis.Index(entities)
	for i := range all {
		c := &all[i]
		c.Priority = symbiosis.PriorityLabel(c.Confidence)
		c.WasteType = "general"
		if k, ok := idx[c.ProducerID]; ok {
			c.WasteType = entities[k].WasteType()
		}
		c.ExchangeKind = symbiosis.ClassifyExchange(c.Material, c.WasteType)
	}
	return all
}
