package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/turtacn/SymbioLink/internal/application/analysis"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

const (
	pathAnalyses = "/api/v1/analyses"
	pathScores   = "/api/v1/scores"
	pathHealth   = "/healthz"
	pathReady    = "/readyz"

	headerCache = "X-Cache"
)

// Client satisfies the analysis use-case boundary, so callers can swap an
// in-process service for a remote one.
var _ analysis.Service = (*Client)(nil)

// Health is the liveness probe body.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type scoreRequest struct {
	Producer *symbiosis.Entity `json:"producer"`
	Consumer *symbiosis.Entity `json:"consumer"`
}

// Analyze runs an analysis on the server. SkipCache is sent as no_cache.
// Cached is true when the server answered from its cache or joined an
// identical in-flight run.
func (c *Client) Analyze(ctx context.Context, req *analysis.AnalyzeRequest) (*analysis.AnalyzeResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	path := pathAnalyses
	if req.SkipCache {
		path += "?" + url.Values{"no_cache": {"true"}}.Encode()
	}

	var resp analysis.AnalyzeResponse
	header, err := c.post(ctx, path, req, &resp)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(header.Get(headerCache), "HIT") {
		resp.Cached = true
	}
	return &resp, nil
}

// ScorePair explains how producer matches consumer.
func (c *Client) ScorePair(ctx context.Context, producer, consumer *symbiosis.Entity) (*analysis.ScoreResponse, error) {
	if producer == nil || consumer == nil {
		return nil, errors.InvalidParam("producer and consumer are required")
	}
	var resp analysis.ScoreResponse
	if _, err := c.post(ctx, pathScores, scoreRequest{Producer: producer, Consumer: consumer}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if _, err := c.get(ctx, pathHealth, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Ready returns nil when every dependency of the server is healthy.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.get(ctx, pathReady, nil)
	return err
}
