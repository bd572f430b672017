// Package analysis orchestrates engine runs for the CLI and HTTP surfaces:
// request validation, result caching, event publication and graph export.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/intelligence/engine"
	"github.com/turtacn/SymbioLink/internal/intelligence/scoring"
	"github.com/turtacn/SymbioLink/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ============================================================================
// Constants
// ============================================================================

const (
	MinMaxHops      = 2
	DefaultCacheTTL = 10 * time.Minute

	cacheKeyPrefix = "analysis:"

	StatusSuccess = "success"
	StatusCached  = "cached"
	StatusShared  = "shared"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"

	SinkCache     = "cache"
	SinkPublisher = "publisher"
	SinkExporter  = "exporter"
)

// ============================================================================
// Dependencies
// ============================================================================

// ResultCache stores serialized responses. Get returns an error on miss.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// EventPublisher announces finished analyses.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, res *symbiosis.Result) error
}

// NetworkExporter writes the entity network of a result to a graph store.
type NetworkExporter interface {
	ExportNetwork(ctx context.Context, entities []symbiosis.Entity, res *symbiosis.Result) error
}

// Metrics receives service level measurements.
type Metrics interface {
	ObserveRun(status string, d time.Duration)
	AddEmitted(connections, chains int)
	IncCacheLookup(hit bool)
	IncSinkFailure(sink string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(string, time.Duration) {}
func (nopMetrics) AddEmitted(int, int)              {}
func (nopMetrics) IncCacheLookup(bool)              {}
func (nopMetrics) IncSinkFailure(string)            {}

// ============================================================================
// DTO Definitions
// ============================================================================

// AnalyzeRequest is one analysis job. A nil IncludeChains means true.
type AnalyzeRequest struct {
	Entities      []symbiosis.Entity `json:"entities"`
	MaxHops       int                `json:"max_hops,omitempty"`
	IncludeChains *bool              `json:"include_chains,omitempty"`
	Seed          int64              `json:"seed,omitempty"`
	SkipCache     bool               `json:"-"`
}

// AnalyzeResponse wraps an engine result.
type AnalyzeResponse struct {
	Result *symbiosis.Result `json:"result"`
	Cached bool              `json:"cached"`
}

// MatchView is a match flattened for output.
type MatchView struct {
	Type       symbiosis.MatchType `json:"type"`
	Material   string              `json:"material"`
	Confidence float64             `json:"confidence"`
	Detail     symbiosis.Match     `json:"detail"`
}

// UnmarshalJSON restores the concrete Detail variant from Type.
func (m *MatchView) UnmarshalJSON(data []byte) error {
	var in struct {
		Type       symbiosis.MatchType `json:"type"`
		Material   string              `json:"material"`
		Confidence float64             `json:"confidence"`
		Detail     json.RawMessage     `json:"detail"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	detail, err := symbiosis.DecodeMatch(in.Type, in.Detail)
	if err != nil {
		return err
	}
	*m = MatchView{Type: in.Type, Material: in.Material, Confidence: in.Confidence, Detail: detail}
	return nil
}

// ScoreResponse is the full evaluation of one ordered pair.
type ScoreResponse struct {
	ProducerID string                `json:"producer_id"`
	ConsumerID string                `json:"consumer_id"`
	Matches    []MatchView           `json:"matches"`
	Assessment scoring.Assessment    `json:"assessment"`
	Accepted   bool                  `json:"accepted"`
	Connection *symbiosis.Connection `json:"connection,omitempty"`
}

// ============================================================================
// Service
// ============================================================================

// Service is the analysis use-case boundary.
type Service interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error)
	ScorePair(ctx context.Context, producer, consumer *symbiosis.Entity) (*ScoreResponse, error)
}

// Option configures optional collaborators.
type Option func(*service)

// WithCache enables result caching. A non-positive ttl uses DefaultCacheTTL.
func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithPublisher enables analysis.completed events.
func WithPublisher(p EventPublisher) Option {
	return func(s *service) { s.publisher = p }
}

// WithExporter enables graph export of each fresh result.
func WithExporter(x NetworkExporter) Option {
	return func(s *service) { s.exporter = x }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

type service struct {
	engine      *engine.Engine
	cfg         config.AnalysisConfig
	logger      logging.Logger
	cache       ResultCache
	cacheTTL    time.Duration
	publisher   EventPublisher
	exporter    NetworkExporter
	metrics     Metrics
	fingerprint string
	flight      singleflight.Group
}

// NewService wires the engine to its optional sinks.
func NewService(eng *engine.Engine, cfg config.AnalysisConfig, logger logging.Logger, opts ...Option) (Service, error) {
	if eng == nil {
		return nil, errors.New(errors.ErrCodeEngineConfig, "engine is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	fp, err := configFingerprint(eng.Config())
	if err != nil {
		return nil, err
	}
	s := &service{
		engine:      eng,
		cfg:         cfg,
		logger:      logger.Named("analysis"),
		cacheTTL:    DefaultCacheTTL,
		metrics:     nopMetrics{},
		fingerprint: fp,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Analyze validates req, serves it from cache when possible and otherwise
// runs the engine and fans the result out to the configured sinks.
func (s *service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	opts, err := s.validate(req)
	if err != nil {
		s.metrics.ObserveRun(StatusInvalid, time.Since(start))
		return nil, err
	}

	var key string
	if s.cache != nil && !req.SkipCache {
		key, err = s.cacheKey(req.Entities, opts)
		if err != nil {
			s.metrics.ObserveRun(StatusFailed, time.Since(start))
			return nil, err
		}
		var cached symbiosis.Result
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.IncCacheLookup(true)
			s.metrics.ObserveRun(StatusCached, time.Since(start))
			log.Debug("analysis served from cache", logging.String("key", key), logging.String("run_id", cached.RunID))
			return &AnalyzeResponse{Result: &cached, Cached: true}, nil
		}
		s.metrics.IncCacheLookup(false)
	}

	if key == "" {
		res, err := s.run(ctx, req, opts, "")
		if err != nil {
			s.metrics.ObserveRun(StatusFailed, time.Since(start))
			return nil, err
		}
		s.metrics.ObserveRun(StatusSuccess, time.Since(start))
		return &AnalyzeResponse{Result: res}, nil
	}

	// Identical misses in flight share one engine run, detached from the
	// caller that started it. Each caller stops waiting on its own ctx.
	// singleflight reports shared to the leader as well, so leadership is
	// tracked by whoever ran the closure.
	leader := false
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		leader = true
		return s.run(context.WithoutCancel(ctx), req, opts, key)
	})
	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		s.metrics.ObserveRun(StatusFailed, time.Since(start))
		return nil, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "analysis cancelled")
	}
	if out.Err != nil {
		s.metrics.ObserveRun(StatusFailed, time.Since(start))
		return nil, out.Err
	}
	res := out.Val.(*symbiosis.Result)
	if !leader {
		s.metrics.ObserveRun(StatusShared, time.Since(start))
		return &AnalyzeResponse{Result: res, Cached: true}, nil
	}
	s.metrics.ObserveRun(StatusSuccess, time.Since(start))
	return &AnalyzeResponse{Result: res}, nil
}

// run executes the engine once and feeds the sinks. An empty key skips the
// cache write.
func (s *service) run(ctx context.Context, req *AnalyzeRequest, opts engine.AnalyzeOptions, key string) (*symbiosis.Result, error) {
	log := s.logger.WithContext(ctx)

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	res, err := s.engine.Analyze(runCtx, req.Entities, opts)
	if err != nil {
		log.WithError(err).Error("analysis failed", logging.Int("entities", len(req.Entities)))
		if errors.GetCode(err) == errors.CodeUnknown {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "analysis failed")
		}
		return nil, err
	}

	s.metrics.AddEmitted(len(res.Connections), len(res.Chains))

	if key != "" && !res.Partial {
		if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
			s.sinkFailed(log, SinkCache, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAnalysisCompleted(ctx, res); err != nil {
			s.sinkFailed(log, SinkPublisher, err)
		}
	}
	if s.exporter != nil {
		if err := s.exporter.ExportNetwork(ctx, req.Entities, res); err != nil {
			s.sinkFailed(log, SinkExporter, err)
		}
	}
	return res, nil
}

// ScorePair evaluates producer → consumer without running the pipeline.
func (s *service) ScorePair(ctx context.Context, producer, consumer *symbiosis.Entity) (*ScoreResponse, error) {
	if producer == nil || consumer == nil {
		return nil, errors.InvalidParam("producer and consumer are required")
	}
	if producer.ID == "" || consumer.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidEntity, "producer and consumer need an id")
	}
	if producer.ID == consumer.ID {
		return nil, errors.New(errors.ErrCodeInvalidEntity, "producer and consumer must differ")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "score cancelled")
	}

	a, accepted := s.engine.Score(producer, consumer)
	resp := &ScoreResponse{
		ProducerID: producer.ID,
		ConsumerID: consumer.ID,
		Matches:    make([]MatchView, 0, len(a.Matches)),
		Assessment: a,
		Accepted:   accepted,
	}
	for _, m := range a.Matches {
		resp.Matches = append(resp.Matches, MatchView{
			Type:       m.Type(),
			Material:   m.Material(),
			Confidence: m.Confidence(),
			Detail:     m,
		})
	}
	if accepted {
		c := a.Connection(producer, consumer)
		resp.Connection = &c
	}
	return resp, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *service) validate(req *AnalyzeRequest) (engine.AnalyzeOptions, error) {
	opts := engine.DefaultAnalyzeOptions()
	if req == nil {
		return opts, errors.InvalidParam("request is required")
	}
	if s.cfg.MaxEntities > 0 && len(req.Entities) > s.cfg.MaxEntities {
		return opts, errors.Newf(errors.ErrCodeTooManyEntities,
			"request has %d entities, limit is %d", len(req.Entities), s.cfg.MaxEntities)
	}

	hops := req.MaxHops
	if hops == 0 {
		hops = s.cfg.DefaultMaxHops
	}
	limit := s.cfg.MaxHopsLimit
	if limit == 0 {
		limit = config.DefaultAnalysisMaxHopsCap
	}
	if hops != 0 && (hops < MinMaxHops || hops > limit) {
		return opts, errors.NewValidationError("max_hops", "max_hops must be between 2 and the configured limit")
	}

	opts.MaxHops = hops
	if req.IncludeChains != nil {
		opts.IncludeChains = *req.IncludeChains
	}
	opts.Seed = req.Seed
	return opts, nil
}

type cacheKeyInput struct {
	Fingerprint   string             `json:"fingerprint"`
	Entities      []symbiosis.Entity `json:"entities"`
	MaxHops       int                `json:"max_hops"`
	IncludeChains bool               `json:"include_chains"`
	Seed          int64              `json:"seed"`
}

func (s *service) cacheKey(entities []symbiosis.Entity, opts engine.AnalyzeOptions) (string, error) {
	data, err := json.Marshal(cacheKeyInput{
		Fingerprint:   s.fingerprint,
		Entities:      entities,
		MaxHops:       opts.MaxHops,
		IncludeChains: opts.IncludeChains,
		Seed:          opts.Seed,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache key")
	}
	hash := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(hash[:]), nil
}

func configFingerprint(cfg config.EngineConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode engine config")
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8]), nil
}

func (s *service) sinkFailed(log logging.Logger, sink string, err error) {
	s.metrics.IncSinkFailure(sink)
	log.WithError(err).Warn("analysis sink failed", logging.String("sink", sink))
}
