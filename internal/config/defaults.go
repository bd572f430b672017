package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerMaxBodySize     = 8 << 20
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "symbiolink"
	DefaultMetricsPath      = "/metrics"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisTimeout   = 3 * time.Second
	DefaultRedisResultTTL = 30 * time.Minute
	DefaultRedisKeyPrefix = "symbiolink:analysis:"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaClientID     = "symbiolink"
	DefaultKafkaTopic        = "symbiolink.analysis.completed"
	DefaultKafkaPartitions   = 3
	DefaultKafkaReplication  = 1
	DefaultKafkaRequiredAcks = -1
	DefaultKafkaMaxAttempts  = 3
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = 50 * time.Millisecond
	DefaultKafkaWriteTimeout = 10 * time.Second

	DefaultWorkerGroupID         = "symbiolink-worker"
	DefaultWorkerRequestTopic    = "symbiolink.analysis.requested"
	DefaultWorkerDeadLetterTopic = "symbiolink.analysis.requested.dlq"
	DefaultWorkerStartOffset     = "earliest"
	DefaultWorkerMaxRetries      = 3
	DefaultWorkerRetryBackoff    = time.Second
	DefaultWorkerMaxRetryBackoff = 30 * time.Second
	DefaultWorkerHandlerTimeout  = 5 * time.Minute

	DefaultNeo4jURI         = "bolt://localhost:7687"
	DefaultNeo4jUser        = "neo4j"
	DefaultNeo4jDatabase    = "neo4j"
	DefaultNeo4jPoolSize    = 50
	DefaultNeo4jConnTimeout = 10 * time.Second

	DefaultAnalysisMaxEntities = 2000
	DefaultAnalysisMaxHops     = 4
	DefaultAnalysisMaxHopsCap  = 6
	DefaultAnalysisTimeout     = 2 * time.Minute
)

// Engine defaults.
const (
	DefaultMaxMatches           = 8
	DefaultDirectScore          = 0.98
	DefaultCategoryThreshold    = 0.7
	DefaultCategoryWeight       = 0.95
	DefaultSubstringMinLength   = 4
	DefaultSubstringMinRatio    = 0.4
	DefaultSubstringBase        = 0.6
	DefaultSubstringSpan        = 0.35
	DefaultFuzzyMinPhraseLength = 5
	DefaultFuzzyMinWordLength   = 4
	DefaultFuzzyThreshold       = 0.7
	DefaultFuzzyBase            = 0.65
	DefaultFuzzySpan            = 0.2
	DefaultSynergyWeight        = 0.15
	DefaultConnectionThreshold  = 0.55

	DefaultGlobalCap        = 800
	DefaultMinCap           = 4
	DefaultMaxCap           = 12
	DefaultCapScale         = 15
	DefaultVolumeScale      = 100000
	DefaultGeneratorWorkers = 8
	DefaultTimeBudget       = 30 * time.Second

	DefaultChainMaxHops        = 4
	DefaultChainMinMembers     = 3
	DefaultBeamWidth           = 3
	DefaultEdgeThreshold       = 0.5
	DefaultAcceptThreshold     = 0.5
	DefaultDecayFloor          = 0.7
	DefaultHubDegreeRatio      = 0.7
	DefaultChainMaxMaterials   = 5
	DefaultChainExplorerWorker = 8

	DefaultTrials            = 1000
	DefaultMarketSpread      = 0.10
	DefaultOperationalSpread = 0.075
	DefaultRegulatorySpread  = 0.05
	DefaultEstimatorSeed     = 42

	DefaultMaxChainConnections = 50
	DefaultOutputCap           = 800

	DefaultCrossPenalty  = 0.75
	DefaultSynergyBonus  = 0.15
	DefaultMaxCrossScore = 0.95

	DefaultSameCityBonus   = 0.35
	DefaultSameRegionBonus = 0.25
	DefaultGeoBonus        = 0.08

	DefaultIndustrySynergy = 0.6
	DefaultSameIndustry    = 0.4
)

// DefaultLengthDecay holds the decay factors for 2, 3 and 4 member chains.
var DefaultLengthDecay = []float64{1.0, 0.9, 0.8}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultEngine returns an EngineConfig with every field set to its default.
func DefaultEngine() EngineConfig {
	var e EngineConfig
	applyEngineDefaults(&e)
	return e
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Values already set by the caller are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	r := &cfg.Cache.Redis
	if r.Addr == "" {
		r.Addr = DefaultRedisAddr
	}
	if r.PoolSize == 0 {
		r.PoolSize = DefaultRedisPoolSize
	}
	if r.DialTimeout == 0 {
		r.DialTimeout = DefaultRedisTimeout
	}
	if r.ReadTimeout == 0 {
		r.ReadTimeout = DefaultRedisTimeout
	}
	if r.WriteTimeout == 0 {
		r.WriteTimeout = DefaultRedisTimeout
	}
	if r.ResultTTL == 0 {
		r.ResultTTL = DefaultRedisResultTTL
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	k := &cfg.Messaging.Kafka
	if len(k.Brokers) == 0 {
		k.Brokers = []string{DefaultKafkaBroker}
	}
	if k.ClientID == "" {
		k.ClientID = DefaultKafkaClientID
	}
	if k.Topic == "" {
		k.Topic = DefaultKafkaTopic
	}
	if k.Partitions == 0 {
		k.Partitions = DefaultKafkaPartitions
	}
	if k.Replication == 0 {
		k.Replication = DefaultKafkaReplication
	}
	if k.RequiredAcks == 0 {
		k.RequiredAcks = DefaultKafkaRequiredAcks
	}
	if k.MaxAttempts == 0 {
		k.MaxAttempts = DefaultKafkaMaxAttempts
	}
	if k.BatchSize == 0 {
		k.BatchSize = DefaultKafkaBatchSize
	}
	if k.BatchTimeout == 0 {
		k.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if k.WriteTimeout == 0 {
		k.WriteTimeout = DefaultKafkaWriteTimeout
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	w := &cfg.Messaging.Worker
	if w.GroupID == "" {
		w.GroupID = DefaultWorkerGroupID
	}
	if w.RequestTopic == "" {
		w.RequestTopic = DefaultWorkerRequestTopic
	}
	if w.DeadLetterTopic == "" {
		w.DeadLetterTopic = DefaultWorkerDeadLetterTopic
	}
	if w.StartOffset == "" {
		w.StartOffset = DefaultWorkerStartOffset
	}
	if w.MaxRetries == 0 {
		w.MaxRetries = DefaultWorkerMaxRetries
	}
	if w.RetryBackoff == 0 {
		w.RetryBackoff = DefaultWorkerRetryBackoff
	}
	if w.MaxRetryBackoff == 0 {
		w.MaxRetryBackoff = DefaultWorkerMaxRetryBackoff
	}
	if w.HandlerTimeout == 0 {
		w.HandlerTimeout = DefaultWorkerHandlerTimeout
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	n := &cfg.Graph.Neo4j
	if n.URI == "" {
		n.URI = DefaultNeo4jURI
	}
	if n.User == "" {
		n.User = DefaultNeo4jUser
	}
	if n.Database == "" {
		n.Database = DefaultNeo4jDatabase
	}
	if n.MaxConnectionPoolSize == 0 {
		n.MaxConnectionPoolSize = DefaultNeo4jPoolSize
	}
	if n.ConnectionTimeout == 0 {
		n.ConnectionTimeout = DefaultNeo4jConnTimeout
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.MaxEntities == 0 {
		cfg.Analysis.MaxEntities = DefaultAnalysisMaxEntities
	}
	if cfg.Analysis.DefaultMaxHops == 0 {
		cfg.Analysis.DefaultMaxHops = DefaultAnalysisMaxHops
	}
	if cfg.Analysis.MaxHopsLimit == 0 {
		cfg.Analysis.MaxHopsLimit = DefaultAnalysisMaxHopsCap
	}
	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = DefaultAnalysisTimeout
	}

	applyEngineDefaults(&cfg.Engine)
}

func applyEngineDefaults(e *EngineConfig) {
	// ── Matching ──────────────────────────────────────────────────────────────
	m := &e.Matching
	setInt(&m.MaxMatches, DefaultMaxMatches)
	setFloat(&m.DirectScore, DefaultDirectScore)
	setFloat(&m.CategoryThreshold, DefaultCategoryThreshold)
	setFloat(&m.CategoryWeight, DefaultCategoryWeight)
	setInt(&m.SubstringMinLength, DefaultSubstringMinLength)
	setFloat(&m.SubstringMinRatio, DefaultSubstringMinRatio)
	setFloat(&m.SubstringBase, DefaultSubstringBase)
	setFloat(&m.SubstringSpan, DefaultSubstringSpan)
	setInt(&m.FuzzyMinPhraseLength, DefaultFuzzyMinPhraseLength)
	setInt(&m.FuzzyMinWordLength, DefaultFuzzyMinWordLength)
	setFloat(&m.FuzzyThreshold, DefaultFuzzyThreshold)
	setFloat(&m.FuzzyBase, DefaultFuzzyBase)
	setFloat(&m.FuzzySpan, DefaultFuzzySpan)
	setFloat(&m.SynergyWeight, DefaultSynergyWeight)
	setFloat(&m.ConnectionThreshold, DefaultConnectionThreshold)

	// ── Generator ─────────────────────────────────────────────────────────────
	g := &e.Generator
	setInt(&g.GlobalCap, DefaultGlobalCap)
	setInt(&g.MinCap, DefaultMinCap)
	setInt(&g.MaxCap, DefaultMaxCap)
	setFloat(&g.CapScale, DefaultCapScale)
	setFloat(&g.VolumeScale, DefaultVolumeScale)
	setInt(&g.Workers, DefaultGeneratorWorkers)
	if g.TimeBudget == 0 {
		g.TimeBudget = DefaultTimeBudget
	}
	if len(g.IndustryBonuses) == 0 {
		g.IndustryBonuses = DefaultImportanceBonuses()
	}
	if len(g.BlocBonuses) == 0 {
		g.BlocBonuses = []WeightedLabel{{Label: BlocGulf, Weight: 0.2}}
	}

	// ── Chains ────────────────────────────────────────────────────────────────
	c := &e.Chains
	setInt(&c.MaxHops, DefaultChainMaxHops)
	setInt(&c.MinMembers, DefaultChainMinMembers)
	setInt(&c.BeamWidth, DefaultBeamWidth)
	setFloat(&c.EdgeThreshold, DefaultEdgeThreshold)
	setFloat(&c.AcceptThreshold, DefaultAcceptThreshold)
	setFloat(&c.DecayFloor, DefaultDecayFloor)
	setFloat(&c.HubDegreeRatio, DefaultHubDegreeRatio)
	setInt(&c.MaxMaterials, DefaultChainMaxMaterials)
	setInt(&c.Workers, DefaultChainExplorerWorker)
	if len(c.LengthDecay) == 0 {
		c.LengthDecay = append([]float64(nil), DefaultLengthDecay...)
	}

	// ── Estimator ─────────────────────────────────────────────────────────────
	s := &e.Estimator
	setInt(&s.Trials, DefaultTrials)
	setFloat(&s.MarketSpread, DefaultMarketSpread)
	setFloat(&s.OperationalSpread, DefaultOperationalSpread)
	setFloat(&s.RegulatorySpread, DefaultRegulatorySpread)
	if s.Seed == 0 {
		s.Seed = DefaultEstimatorSeed
	}

	// ── Ranking ───────────────────────────────────────────────────────────────
	setInt(&e.Ranking.MaxChainConnections, DefaultMaxChainConnections)
	setInt(&e.Ranking.OutputCap, DefaultOutputCap)

	// ── Taxonomy ──────────────────────────────────────────────────────────────
	t := &e.Taxonomy
	if len(t.Categories) == 0 {
		t.Categories = DefaultCategories()
	}
	if len(t.SynergyPairs) == 0 {
		t.SynergyPairs = DefaultSynergyPairs()
	}
	setFloat(&t.CrossPenalty, DefaultCrossPenalty)
	setFloat(&t.SynergyBonus, DefaultSynergyBonus)
	setFloat(&t.MaxCrossScore, DefaultMaxCrossScore)

	// ── Geography ─────────────────────────────────────────────────────────────
	geo := &e.Geography
	setFloat(&geo.SameCityBonus, DefaultSameCityBonus)
	setFloat(&geo.SameRegionBonus, DefaultSameRegionBonus)
	setFloat(&geo.DefaultBonus, DefaultGeoBonus)
	if len(geo.BlocBonuses) == 0 {
		geo.BlocBonuses = []WeightedLabel{
			{Label: BlocGulf, Weight: 0.20},
			{Label: BlocEurope, Weight: 0.15},
		}
	}
	if len(geo.Regions) == 0 {
		geo.Regions = DefaultRegions()
	}

	// ── Industry ──────────────────────────────────────────────────────────────
	ind := &e.Industry
	setFloat(&ind.Default, DefaultIndustrySynergy)
	setFloat(&ind.SameIndustry, DefaultSameIndustry)
	if len(ind.Rules) == 0 {
		ind.Rules = DefaultSynergyRules()
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}
