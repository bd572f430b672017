// Package matching generates direct producer → consumer connections across a
// whole entity population.
package matching

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/intelligence/scoring"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// ctxCheckEvery is how many consumers a producer scans between context checks.
const ctxCheckEvery = 64

// Outcome is the result of one generation pass.
type Outcome struct {
	Connections []symbiosis.Connection
	// Partial is set when the time budget or the context stopped the pass.
	Partial  bool
	Rejected []symbiosis.Rejected
}

// Generator scores every ordered pair and keeps the best candidates per
// producer.
type Generator struct {
	cfg    config.GeneratorConfig
	scorer *scoring.Scorer
	log    logging.Logger
}

// NewGenerator returns a Generator bound to scorer.
func NewGenerator(cfg config.GeneratorConfig, scorer *scoring.Scorer, log logging.Logger) *Generator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Generator{cfg: cfg, scorer: scorer, log: log.Named("generator")}
}

// Importance rates how much attention a producer deserves, in [0, 1].
func (g *Generator) Importance(e *symbiosis.Entity) float64 {
	imp := math.Min(1, e.Volume.Amount/g.cfg.VolumeScale)

	if ind := strings.ToLower(e.Industry); ind != "" {
		for _, b := range g.cfg.IndustryBonuses {
			if strings.Contains(ind, strings.ToLower(b.Label)) {
				imp += b.Weight
				break
			}
		}
	}
	if bloc := g.scorer.Geography().Bloc(e.Location); bloc != "" {
		for _, b := range g.cfg.BlocBonuses {
			if strings.EqualFold(b.Label, bloc) {
				imp += b.Weight
				break
			}
		}
	}
	return math.Max(0, math.Min(1, imp))
}

// Cap is the number of connections a producer may keep.
func (g *Generator) Cap(e *symbiosis.Entity) int {
	c := int(math.Floor(g.Importance(e) * g.cfg.CapScale))
	if c < g.cfg.MinCap {
		return g.cfg.MinCap
	}
	if c > g.cfg.MaxCap {
		return g.cfg.MaxCap
	}
	return c
}

// Generate returns the ranked direct connections of entities.
func (g *Generator) Generate(ctx context.Context, entities []symbiosis.Entity) ([]symbiosis.Connection, error) {
	out, err := g.Run(ctx, entities)
	return out.Connections, err
}

// Run is Generate with the pass metadata. It fails only when ctx is already
// done on entry; a budget or cancellation hit mid-pass yields a partial
// Outcome.
func (g *Generator) Run(ctx context.Context, entities []symbiosis.Entity) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, errors.Wrap(err, errors.ErrCodeTimeout, "connection generation not started")
	}

	entities, rejected := symbiosis.Sanitize(entities)
	for _, r := range rejected {
		g.log.Warn("skipping entity", logging.Int("index", r.Index), logging.String("id", r.ID), logging.String("reason", r.Reason))
	}

	start := time.Now()
	if g.cfg.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.TimeBudget)
		defer cancel()
	}

	var (
		partial atomic.Bool
		slots   = make([][]symbiosis.Connection, len(entities))
		grp     errgroup.Group
	)
	if g.cfg.Workers > 0 {
		grp.SetLimit(g.cfg.Workers)
	}
	for i := range entities {
		if ctx.Err() != nil {
			partial.Store(true)
			break
		}
		i := i
		grp.Go(func() error {
			slots[i] = g.scanProducer(ctx, entities, i, &partial)
			return nil
		})
	}
	_ = grp.Wait()

	conns := merge(slots, g.cfg.GlobalCap)
	if partial.Load() {
		g.log.Warn("connection generation stopped early",
			logging.Duration("elapsed", time.Since(start)),
			logging.Duration("budget", g.cfg.TimeBudget),
			logging.Int("connections", len(conns)))
	} else {
		g.log.Debug("connection generation finished",
			logging.Duration("elapsed", time.Since(start)),
			logging.Int("entities", len(entities)),
			logging.Int("connections", len(conns)))
	}
	return Outcome{Connections: conns, Partial: partial.Load(), Rejected: rejected}, nil
}

func (g *Generator) scanProducer(ctx context.Context, entities []symbiosis.Entity, i int, partial *atomic.Bool) []symbiosis.Connection {
	p := &entities[i]
	if !p.HasOutputs() {
		return nil
	}
	limit := g.Cap(p)

	var (
		out     []symbiosis.Connection
		perfect int
	)
	for j := range entities {
		if j%ctxCheckEvery == 0 && ctx.Err() != nil {
			partial.Store(true)
			break
		}
		if j == i || !entities[j].HasInputs() {
			continue
		}
		c := &entities[j]
		a, ok := g.scorer.Evaluate(p, c)
		if !ok || !g.scorer.Accepts(a) {
			continue
		}
		out = append(out, a.Connection(p, c))
		if a.Confidence >= 1 {
			perfect++
			if perfect >= limit {
				break
			}
		}
	}

	sortByConfidence(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func merge(slots [][]symbiosis.Connection, globalCap int) []symbiosis.Connection {
	n := 0
	for _, s := range slots {
		n += len(s)
	}
	out := make([]symbiosis.Connection, 0, n)
	seen := make(map[string]struct{}, n)
	for _, s := range slots {
		for _, c := range s {
			k := c.PairKey()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, c)
		}
	}
	sortByConfidence(out)
	if globalCap > 0 && len(out) > globalCap {
		out = out[:globalCap]
	}
	return out
}

func sortByConfidence(conns []symbiosis.Connection) {
	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].Confidence > conns[j].Confidence
	})
}
