// Package chains discovers multi-party exchange paths (A → B → C ...) over the
// pairwise compatibility graph using a bounded depth-first search with a
// greedy beam.
package chains

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/intelligence/scoring"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

type edge struct {
	to       int
	score    float64
	material string
}

// frame is one pending DFS state. Slices are owned by the frame.
type frame struct {
	path      []int
	edges     []float64
	materials []string
	remaining int
}

// Explorer is safe for concurrent use.
type Explorer struct {
	cfg    config.ChainConfig
	scorer *scoring.Scorer
	log    logging.Logger
}

// NewExplorer returns an Explorer that scores edges with scorer.
func NewExplorer(cfg config.ChainConfig, scorer *scoring.Scorer, log logging.Logger) *Explorer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Explorer{cfg: cfg, scorer: scorer, log: log.Named("chains")}
}

// MaxHops resolves a requested member limit: zero or less selects the
// configured default and anything below 2 is raised to 2.
func (x *Explorer) MaxHops(requested int) int {
	if requested <= 0 {
		requested = x.cfg.MaxHops
	}
	if requested < 2 {
		requested = 2
	}
	return requested
}

// FindChains returns chains of at most maxHops members, best first. Each
// entity belongs to the chains of at most one start entity.
func (x *Explorer) FindChains(ctx context.Context, entities []symbiosis.Entity, maxHops int) ([]symbiosis.Chain, error) {
	if x.cfg.Disabled {
		return nil, nil
	}
	entities, _ = symbiosis.Sanitize(entities)
	maxHops = x.MaxHops(maxHops)
	if len(entities) < 2 || len(entities) < x.cfg.MinMembers {
		return []symbiosis.Chain{}, nil
	}

	adj, err := x.adjacency(ctx, entities)
	if err != nil {
		return nil, err
	}

	perStart := make([][]symbiosis.Chain, len(entities))
	grp, gctx := errgroup.WithContext(ctx)
	if x.cfg.Workers > 0 {
		grp.SetLimit(x.cfg.Workers)
	}
	for i := range entities {
		i := i
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perStart[i] = x.explore(entities, adj, i, maxHops)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "chain exploration interrupted")
	}

	// First start to reach an entity claims it.
	idx := symbiosis.Index(entities)
	visited := make([]bool, len(entities))
	var out []symbiosis.Chain
	for i, found := range perStart {
		if visited[i] || len(found) == 0 {
			continue
		}
		out = append(out, found...)
		for _, ch := range found {
			for _, id := range ch.MemberIDs {
				visited[idx[id]] = true
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalConfidence > out[j].TotalConfidence
	})
	x.log.Debug("chain exploration finished",
		logging.Int("entities", len(entities)),
		logging.Int("max_hops", maxHops),
		logging.Int("chains", len(out)))
	if out == nil {
		out = []symbiosis.Chain{}
	}
	return out, nil
}

// adjacency scores every ordered pair once and keeps edges at or above the
// edge threshold, sorted by score with ties in entity order.
func (x *Explorer) adjacency(ctx context.Context, entities []symbiosis.Entity) ([][]edge, error) {
	adj := make([][]edge, len(entities))
	grp, gctx := errgroup.WithContext(ctx)
	if x.cfg.Workers > 0 {
		grp.SetLimit(x.cfg.Workers)
	}
	for i := range entities {
		i := i
		grp.Go(func() error {
			p := &entities[i]
			if !p.HasOutputs() {
				return nil
			}
			var out []edge
			for j := range entities {
				if err := gctx.Err(); err != nil {
					return err
				}
				if j == i || !entities[j].HasInputs() {
					continue
				}
				a, ok := x.scorer.Evaluate(p, &entities[j])
				if !ok || a.Confidence < x.cfg.EdgeThreshold {
					continue
				}
				out = append(out, edge{to: j, score: a.Confidence, material: a.Best.Material()})
			}
			sort.SliceStable(out, func(a, b int) bool { return out[a].score > out[b].score })
			adj[i] = out
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "chain adjacency interrupted")
	}
	return adj, nil
}

func onPath(path []int, n int) bool {
	for _, p := range path {
		if p == n {
			return true
		}
	}
	return false
}

func extend[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func (x *Explorer) explore(entities []symbiosis.Entity, adj [][]edge, start, maxHops int) []symbiosis.Chain {
	var found []symbiosis.Chain
	stack := []frame{{path: []int{start}, remaining: maxHops - 1}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(f.path) >= x.cfg.MinMembers {
			conf := mean(f.edges) * x.cfg.Decay(len(f.path))
			if conf > x.cfg.AcceptThreshold {
				found = append(found, x.buildChain(entities, adj, f, conf))
			}
		}
		if f.remaining <= 0 {
			continue
		}

		last := f.path[len(f.path)-1]
		beam := make([]edge, 0, x.cfg.BeamWidth)
		for _, e := range adj[last] {
			if len(beam) == x.cfg.BeamWidth {
				break
			}
			if !onPath(f.path, e.to) {
				beam = append(beam, e)
			}
		}
		// Push in reverse so the strongest neighbour is expanded first.
		for k := len(beam) - 1; k >= 0; k-- {
			e := beam[k]
			stack = append(stack, frame{
				path:      extend(f.path, e.to),
				edges:     extend(f.edges, e.score),
				materials: extend(f.materials, e.material),
				remaining: f.remaining - 1,
			})
		}
	}
	return found
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func (x *Explorer) buildChain(entities []symbiosis.Entity, adj [][]edge, f frame, conf float64) symbiosis.Chain {
	ids := make([]string, len(f.path))
	for k, idx := range f.path {
		ids[k] = entities[idx].ID
	}

	materials := f.materials
	if len(materials) > x.cfg.MaxMaterials {
		materials = materials[:x.cfg.MaxMaterials]
	}

	return symbiosis.Chain{
		ID:              symbiosis.ChainID(ids),
		MemberIDs:       ids,
		Materials:       append([]string(nil), materials...),
		EdgeConfidences: append([]float64(nil), f.edges...),
		TotalConfidence: conf,
		Topology:        x.topology(entities, adj, f.path),
	}
}

func (x *Explorer) topology(entities []symbiosis.Entity, adj [][]edge, path []int) symbiosis.Topology {
	n := len(path)
	if n >= 3 {
		last, first := &entities[path[n-1]], &entities[path[0]]
		if len(x.scorer.Matches(last, first)) > 0 {
			return symbiosis.TopologyCircular
		}
	}

	degree := make(map[int]int, n)
	for _, from := range path {
		for _, e := range adj[from] {
			if onPath(path, e.to) {
				degree[from]++
				degree[e.to]++
			}
		}
	}
	for _, d := range degree {
		if float64(d) >= x.cfg.HubDegreeRatio*float64(n) {
			return symbiosis.TopologyHubSpoke
		}
	}
	return symbiosis.TopologyLinear
}
