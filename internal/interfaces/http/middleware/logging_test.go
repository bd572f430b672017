package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newEngine(RequestID(), RequestLogging(log, DefaultLoggingConfig()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/ok", "/bad", "/boom", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 1, log.Count("info"))
	assert.Equal(t, 1, log.Count("warn"))
	assert.Equal(t, 1, log.Count("error"))

	id, ok := log.Field("HTTP request completed", "request_id")
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestRequestLogging_Slow(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newEngine(RequestLogging(log, LoggingConfig{SlowThreshold: time.Nanosecond}))
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow?x=1", nil))

	assert.True(t, log.HasMessage("warn", "HTTP request completed (slow)"))
	path, _ := log.Field("HTTP request completed (slow)", "path")
	assert.Equal(t, "/slow?x=1", path)
}

func TestRequestID(t *testing.T) {
	var seen string
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	assert.Equal(t, w.Header().Get(HeaderRequestID), seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-id", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newEngine(RequestID(), Recovery(log))
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"COMMON_001"`)
	assert.True(t, log.HasMessage("error", "panic recovered"))
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		buf := make([]byte, 64)
		_, err := c.Request.Body.Read(buf)
		for err == nil {
			_, err = c.Request.Body.Read(buf)
		}
		var mbe *http.MaxBytesError
		if assert.ErrorAs(t, err, &mbe) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

type recordedRequest struct {
	method, path string
	status       int
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	inFlight map[string]float64
}

func (f *fakeRecorder) RecordHTTPRequest(method, path string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, path, status})
}

func (f *fakeRecorder) AddInFlight(method string, delta float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight == nil {
		f.inFlight = map[string]float64{}
	}
	f.inFlight[method] += delta
}

func TestMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	r := newEngine(Metrics(rec))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, rec.requests, 2)
	assert.Equal(t, recordedRequest{"GET", "/items/:id", 200}, rec.requests[0])
	assert.Equal(t, recordedRequest{"GET", "unmatched", 404}, rec.requests[1])
	assert.Zero(t, rec.inFlight["GET"])
}

func TestMetrics_NilRecorder(t *testing.T) {
	r := newEngine(Metrics(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusOK, w.Code)
}
