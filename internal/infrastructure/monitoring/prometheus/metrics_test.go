package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_Registered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.StageDuration)
	assert.NotNil(t, m.AnalysisRunsTotal)
	assert.NotNil(t, m.HTTPRequestsTotal)
}

func TestAppMetrics_EngineObserver(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.ObserveStage("generate", 20*time.Millisecond)
	m.AddPairsScored(90)
	m.AddPairsScored(10)
	m.AddTermCacheLookups(7, 3)
	m.AddTermCacheLookups(0, 0)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_engine_stage_duration_seconds_count{stage="generate"} 1`)
	assert.Contains(t, out, "test_unit_engine_pairs_scored_total 100")
	assert.Contains(t, out, `test_unit_engine_term_cache_lookups_total{result="hit"} 7`)
	assert.Contains(t, out, `test_unit_engine_term_cache_lookups_total{result="miss"} 3`)
}

func TestAppMetrics_AnalysisService(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.ObserveRun("success", time.Second)
	m.ObserveRun("cached", time.Millisecond)
	m.AddEmitted(12, 2)
	m.IncCacheLookup(true)
	m.IncCacheLookup(false)
	m.IncCacheLookup(false)
	m.IncSinkFailure("publisher")

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_analysis_runs_total{status="success"} 1`)
	assert.Contains(t, out, `test_unit_analysis_runs_total{status="cached"} 1`)
	assert.Contains(t, out, "test_unit_analysis_connections_total 12")
	assert.Contains(t, out, "test_unit_analysis_chains_total 2")
	assert.Contains(t, out, `test_unit_analysis_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, out, `test_unit_analysis_sink_failures_total{sink="publisher"} 1`)
	assert.Contains(t, out, "test_unit_engine_connections_per_run_count 1")
}

func TestAppMetrics_HTTPAndHealth(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordHTTPRequest("POST", "/api/v1/analyses", 200, 30*time.Millisecond)
	m.SetHealth("redis", true)
	m.SetHealth("kafka", false)
	m.MarkStarted("apiserver", time.Unix(1700000000, 0))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_http_requests_total{method="POST",path="/api/v1/analyses",status_code="200"} 1`)
	assert.Contains(t, out, `test_unit_health_check_status{component="redis"} 1`)
	assert.Contains(t, out, `test_unit_health_check_status{component="kafka"} 0`)
	assert.Contains(t, out, `test_unit_service_start_time_seconds{service="apiserver"} 1.7e+09`)
}

func TestAppMetrics_WorkerJobs(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.ObserveJob("processed", 2*time.Second)
	m.ObserveJob("processed", time.Second)
	m.ObserveJob("dead_lettered", time.Second)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_worker_jobs_total{status="processed"} 2`)
	assert.Contains(t, out, `test_unit_worker_jobs_total{status="dead_lettered"} 1`)
	assert.Contains(t, out, `test_unit_worker_job_duration_seconds_count{status="processed"} 2`)
}
