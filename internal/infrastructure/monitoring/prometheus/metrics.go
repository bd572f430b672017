package prometheus

import (
	"strconv"
	"time"
)

// Default bucket layouts.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultCountBuckets            = []float64{0, 1, 5, 10, 50, 100, 250, 500, 800}
)

// AppMetrics holds every SymbioLink metric family. It satisfies the engine
// observer and the analysis service metrics contracts.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Engine
	StageDuration     HistogramVec
	PairsScoredTotal  CounterVec
	TermCacheLookups  CounterVec
	ConnectionsPerRun HistogramVec
	ChainsPerRun      HistogramVec

	// Analysis service
	AnalysisRunsTotal    CounterVec
	AnalysisDuration     HistogramVec
	ResultCacheLookups   CounterVec
	SinkFailuresTotal    CounterVec
	ConnectionsEmitted   CounterVec
	ChainsEmitted        CounterVec
	HealthCheckStatus    GaugeVec
	ServiceStartTimeUnix GaugeVec

	// Worker
	WorkerJobsTotal   CounterVec
	WorkerJobDuration HistogramVec
}

// NewAppMetrics registers all families on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.StageDuration = collector.RegisterHistogram("engine_stage_duration_seconds", "Duration of each engine stage", DefaultAnalysisDurationBuckets, "stage")
	m.PairsScoredTotal = collector.RegisterCounter("engine_pairs_scored_total", "Ordered entity pairs evaluated by the scorer")
	m.TermCacheLookups = collector.RegisterCounter("engine_term_cache_lookups_total", "Term extraction cache lookups", "result")
	m.ConnectionsPerRun = collector.RegisterHistogram("engine_connections_per_run", "Connections emitted per analysis", DefaultCountBuckets)
	m.ChainsPerRun = collector.RegisterHistogram("engine_chains_per_run", "Chains discovered per analysis", DefaultCountBuckets)

	m.AnalysisRunsTotal = collector.RegisterCounter("analysis_runs_total", "Analysis requests by outcome", "status")
	m.AnalysisDuration = collector.RegisterHistogram("analysis_duration_seconds", "End to end analysis duration", DefaultAnalysisDurationBuckets, "status")
	m.ResultCacheLookups = collector.RegisterCounter("analysis_cache_lookups_total", "Result cache lookups", "result")
	m.SinkFailuresTotal = collector.RegisterCounter("analysis_sink_failures_total", "Best effort sink failures", "sink")
	m.ConnectionsEmitted = collector.RegisterCounter("analysis_connections_total", "Connections returned to callers")
	m.ChainsEmitted = collector.RegisterCounter("analysis_chains_total", "Chains returned to callers")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Dependency health (1=up, 0=down)", "component")
	m.ServiceStartTimeUnix = collector.RegisterGauge("service_start_time_seconds", "Process start time", "service")

	m.WorkerJobsTotal = collector.RegisterCounter("worker_jobs_total", "Queued analysis requests by outcome", "status")
	m.WorkerJobDuration = collector.RegisterHistogram("worker_job_duration_seconds", "Time from fetch to final outcome, retries included", DefaultAnalysisDurationBuckets, "status")

	return m
}

// ObserveStage records one engine stage.
func (m *AppMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddPairsScored adds scorer evaluations.
func (m *AppMetrics) AddPairsScored(n uint64) {
	m.PairsScoredTotal.WithLabelValues().Add(float64(n))
}

// AddTermCacheLookups adds term cache hits and misses.
func (m *AppMetrics) AddTermCacheLookups(hits, misses uint64) {
	if hits > 0 {
		m.TermCacheLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.TermCacheLookups.WithLabelValues("miss").Add(float64(misses))
	}
}

// ObserveRun records one analysis request.
func (m *AppMetrics) ObserveRun(status string, d time.Duration) {
	m.AnalysisRunsTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.WithLabelValues(status).Observe(d.Seconds())
}

// AddEmitted records the size of a fresh result.
func (m *AppMetrics) AddEmitted(connections, chains int) {
	m.ConnectionsEmitted.WithLabelValues().Add(float64(connections))
	m.ChainsEmitted.WithLabelValues().Add(float64(chains))
	m.ConnectionsPerRun.WithLabelValues().Observe(float64(connections))
	m.ChainsPerRun.WithLabelValues().Observe(float64(chains))
}

// IncCacheLookup counts a result cache hit or miss.
func (m *AppMetrics) IncCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ResultCacheLookups.WithLabelValues(result).Inc()
}

// IncSinkFailure counts a failed cache write, publish or export.
func (m *AppMetrics) IncSinkFailure(sink string) {
	m.SinkFailuresTotal.WithLabelValues(sink).Inc()
}

// SetHealth records whether component is reachable.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// AddInFlight moves the in-flight gauge for method by delta.
func (m *AppMetrics) AddInFlight(method string, delta float64) {
	m.HTTPActiveRequests.WithLabelValues(method).Add(delta)
}

// MarkStarted records the service start time.
func (m *AppMetrics) MarkStarted(service string, at time.Time) {
	m.ServiceStartTimeUnix.WithLabelValues(service).Set(float64(at.Unix()))
}

// ObserveJob records the final outcome of one queued request.
func (m *AppMetrics) ObserveJob(status string, d time.Duration) {
	m.WorkerJobsTotal.WithLabelValues(status).Inc()
	m.WorkerJobDuration.WithLabelValues(status).Observe(d.Seconds())
}
