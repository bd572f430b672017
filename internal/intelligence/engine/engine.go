// Package engine assembles the term extractor, taxonomy, scorer, generator,
// chain explorer and ranker into one analysis pipeline. The engine performs
// no I/O; callers feed it entities and persist its results.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/intelligence/chains"
	"github.com/turtacn/SymbioLink/internal/intelligence/confidence"
	"github.com/turtacn/SymbioLink/internal/intelligence/matching"
	"github.com/turtacn/SymbioLink/internal/intelligence/scoring"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// Pipeline stages reported to the Observer.
const (
	StageGenerate = "generate"
	StageChains   = "chains"
	StageRank     = "rank"
)

// Observer receives engine measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
	AddPairsScored(n uint64)
	AddTermCacheLookups(hits, misses uint64)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration) {}
func (nopObserver) AddPairsScored(uint64)              {}
func (nopObserver) AddTermCacheLookups(uint64, uint64) {}

// Option customizes an Engine.
type Option func(*Engine)

// WithSeed overrides the estimator seed of the configuration.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithMetrics reports stage timings and counters to o.
func WithMetrics(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.metrics = o
		}
	}
}

// AnalyzeOptions tunes a single Analyze call.
type AnalyzeOptions struct {
	// MaxHops is the maximum chain member count. Zero uses the configured
	// default.
	MaxHops       int
	IncludeChains bool
	// Seed overrides the engine seed for this run when non-zero.
	Seed int64
}

// DefaultAnalyzeOptions enables chain discovery with the configured hop limit.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{IncludeChains: true}
}

// Engine is safe for concurrent use. Each Analyze call owns its estimator.
type Engine struct {
	cfg       config.EngineConfig
	log       logging.Logger
	terms     *terms.Extractor
	scorer    *scoring.Scorer
	generator *matching.Generator
	explorer  *chains.Explorer
	ranker    *confidence.Ranker
	seed      int64
	metrics   Observer

	mu        sync.Mutex
	lastPairs uint64
	lastTerms terms.Stats
}

// New validates cfg and builds every component once.
func New(cfg config.EngineConfig, log logging.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEngineConfig, "invalid engine configuration")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("engine")

	ex := terms.NewExtractor()
	scorer, err := scoring.FromConfig(cfg, ex)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		terms:     ex,
		scorer:    scorer,
		generator: matching.NewGenerator(cfg.Generator, scorer, log),
		explorer:  chains.NewExplorer(cfg.Chains, scorer, log),
		ranker:    confidence.NewRanker(cfg.Ranking, cfg.Matching.ConnectionThreshold, scorer),
		seed:      cfg.Estimator.Seed,
		metrics:   nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// TermCacheStats reports the shared term cache counters.
func (e *Engine) TermCacheStats() terms.Stats { return e.terms.Stats() }

// Score evaluates one ordered pair.
func (e *Engine) Score(producer, consumer *symbiosis.Entity) (scoring.Assessment, bool) {
	defer e.flushCounters()
	return e.scorer.Evaluate(producer, consumer)
}

// Generate returns the capped direct connections of entities.
func (e *Engine) Generate(ctx context.Context, entities []symbiosis.Entity) ([]symbiosis.Connection, error) {
	defer e.flushCounters()
	return e.generator.Generate(ctx, entities)
}

// FindChains returns multi-hop chains of at most maxHops members.
func (e *Engine) FindChains(ctx context.Context, entities []symbiosis.Entity, maxHops int) ([]symbiosis.Chain, error) {
	defer e.flushCounters()
	return e.explorer.FindChains(ctx, entities, maxHops)
}

// Analyze runs the full pipeline: sanitize, generate, explore, rank, check
// references and summarize.
func (e *Engine) Analyze(ctx context.Context, entities []symbiosis.Entity, opts AnalyzeOptions) (*symbiosis.Result, error) {
	defer e.flushCounters()

	start := time.Now()
	res := &symbiosis.Result{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
	}
	log := e.log.With(logging.String("run_id", res.RunID))

	clean, rejected := symbiosis.Sanitize(entities)
	res.Rejected = rejected
	res.EntityCount = len(clean)
	for _, r := range rejected {
		log.Warn("entity rejected", logging.Int("index", r.Index), logging.String("id", r.ID), logging.String("reason", r.Reason))
	}

	t := time.Now()
	gen, err := e.generator.Run(ctx, clean)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveStage(StageGenerate, time.Since(t))
	res.Partial = gen.Partial

	var found []symbiosis.Chain
	if opts.IncludeChains {
		t = time.Now()
		found, err = e.explorer.FindChains(ctx, clean, opts.MaxHops)
		if err != nil {
			log.WithError(err).Warn("chain exploration abandoned")
			found = nil
			res.Partial = true
		}
		e.metrics.ObserveStage(StageChains, time.Since(t))
	}

	t = time.Now()
	seed := e.seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	est := confidence.NewEstimator(e.cfg.Estimator, rand.New(rand.NewSource(seed)))
	ranked := e.ranker.Rank(clean, gen.Connections, found, est)
	e.metrics.ObserveStage(StageRank, time.Since(t))

	ranked, found, violations, err := symbiosis.EnforceReferences(e.cfg.Strict, clean, ranked, found)
	if err != nil {
		log.WithError(err).Error("reference check failed")
		return nil, err
	}
	for _, v := range violations {
		log.Warn("dropping record with broken reference", logging.String("violation", v.String()))
	}

	res.Connections = ranked
	res.Chains = found
	res.Stats = symbiosis.ComputeStats(clean, ranked, found)
	res.Duration = time.Since(start)

	log.Info("analysis finished",
		logging.Int("entities", res.EntityCount),
		logging.Int("connections", len(ranked)),
		logging.Int("chains", len(found)),
		logging.Bool("partial", res.Partial),
		logging.Duration("duration", res.Duration))
	return res, nil
}

// flushCounters forwards counter growth since the previous flush.
func (e *Engine) flushCounters() {
	pairs := e.scorer.PairsScored()
	st := e.terms.Stats()

	e.mu.Lock()
	dPairs := pairs - e.lastPairs
	dHits := st.Hits - e.lastTerms.Hits
	dMisses := st.Misses - e.lastTerms.Misses
	e.lastPairs = pairs
	e.lastTerms = st
	e.mu.Unlock()

	if dPairs > 0 {
		e.metrics.AddPairsScored(dPairs)
	}
	if dHits > 0 || dMisses > 0 {
		e.metrics.AddTermCacheLookups(dHits, dMisses)
	}
}
