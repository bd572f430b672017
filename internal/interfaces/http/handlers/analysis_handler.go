package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// HeaderCache reports whether an analysis was served from the cache.
const HeaderCache = "X-Cache"

// AnalysisHandler serves the analysis and pair scoring endpoints.
type AnalysisHandler struct {
	svc    analysis.Service
	logger logging.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc analysis.Service, logger logging.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisHandler{svc: svc, logger: logger.Named("analysis_handler")}
}

// RegisterRoutes mounts the handler under group.
func (h *AnalysisHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/analyses", h.Analyze)
	group.POST("/scores", h.Score)
}

// ScoreRequest is the body of POST /scores.
type ScoreRequest struct {
	Producer *symbiosis.Entity `json:"producer"`
	Consumer *symbiosis.Entity `json:"consumer"`
}

// Analyze handles POST /api/v1/analyses.
//
// A JSON body is an AnalyzeRequest. A text/plain body is read as entity input
// (JSON or company blocks) with options taken from the query string:
// max_hops, seed and include_chains. no_cache=true bypasses the result cache
// for either form.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	req, err := h.decodeAnalyzeRequest(c)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if v := c.Query("no_cache"); v != "" {
		req.SkipCache, _ = strconv.ParseBool(v)
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("analysis failed",
			logging.Int("entities", len(req.Entities)), logging.Err(err))
		writeAppError(c, err)
		return
	}

	if resp.Cached {
		c.Header(HeaderCache, "HIT")
	} else {
		c.Header(HeaderCache, "MISS")
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalysisHandler) decodeAnalyzeRequest(c *gin.Context) (*analysis.AnalyzeRequest, error) {
	if !strings.HasPrefix(c.ContentType(), "text/") {
		var req analysis.AnalyzeRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	entities, err := symbiosis.DecodeEntities(c.Request.Body)
	if err != nil {
		return nil, classifyBodyError(err)
	}
	req := &analysis.AnalyzeRequest{Entities: entities}
	if v := c.Query("max_hops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.NewValidationError("max_hops", "max_hops must be an integer")
		}
		req.MaxHops = n
	}
	if v := c.Query("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError("seed", "seed must be an integer")
		}
		req.Seed = n
	}
	if v := c.Query("include_chains"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.NewValidationError("include_chains", "include_chains must be a boolean")
		}
		req.IncludeChains = &b
	}
	return req, nil
}

// Score handles POST /api/v1/scores.
func (h *AnalysisHandler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := bindJSON(c, &req); err != nil {
		writeAppError(c, err)
		return
	}
	resp, err := h.svc.ScorePair(c.Request.Context(), req.Producer, req.Consumer)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
