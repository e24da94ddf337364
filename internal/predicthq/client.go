// Package predicthq is the client for the third-party events API. It is the
// sole boundary that converts upstream failures into an empty result list:
// callers always receive a slice, never an error.
package predicthq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/orbitlabs/orbit-backend/internal/config"
	"github.com/orbitlabs/orbit-backend/internal/discovery"
	"github.com/orbitlabs/orbit-backend/internal/metrics"
	"github.com/orbitlabs/orbit-backend/internal/model"
)

// DateNow is the sentinel date filter meaning "currently active or upcoming".
const DateNow = "now"

// Query describes one search against the events API.
type Query struct {
	// Categories is a comma-joined list of provider category codes.
	Categories string
	// Date is either DateNow or an ISO "YYYY-MM-DD" day to bound the search.
	Date string
	// Title optionally narrows the search to an exact title keyword.
	Title string
}

// Client talks to the events API and maps results into normalized events.
type Client struct {
	cfg        config.PredictHQConfig
	viewer     model.LatLng
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]discovery.RawEvent]
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the internal HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient constructs a Client. viewer is the reference location for the
// geographic radius filter and for distance calculation on results.
func NewClient(cfg config.PredictHQConfig, viewer model.LatLng, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		viewer: viewer,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[[]discovery.RawEvent](gobreaker.Settings{
			Name:    "predicthq",
			Timeout: 30 * time.Second,
		}),
		logger: logger.With().Str("component", "predicthq").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEvents runs a search and returns normalized events. Any failure
// (missing API key, transport error, non-2xx status, open breaker) is logged
// and degrades to an empty slice so discovery renders "no events found" rather
// than an error.
func (c *Client) FetchEvents(ctx context.Context, q Query) []model.Event {
	raws, err := c.breaker.Execute(func() ([]discovery.RawEvent, error) {
		return c.search(ctx, q)
	})
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("predicthq").Inc()
		c.logger.Error().Err(err).Str("categories", q.Categories).Str("date", q.Date).
			Msg("event fetch failed, returning no events")
		return []model.Event{}
	}

	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, discovery.Transform(raw, c.viewer))
	}
	return events
}

func (c *Client) search(ctx context.Context, q Query) ([]discovery.RawEvent, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("missing PREDICTHQ_API_KEY")
	}

	params := url.Values{}
	if q.Categories != "" {
		params.Set("category", q.Categories)
	}
	if q.Date == DateNow || q.Date == "" {
		params.Set("active.from", "now")
	} else {
		params.Set("start.gte", q.Date+"T00:00:00Z")
		params.Set("start.lte", q.Date+"T23:59:59Z")
	}
	if q.Title != "" {
		params.Set("q", q.Title)
	}
	params.Set("limit", fmt.Sprintf("%d", c.cfg.Limit))
	params.Set("sort", "rank")
	params.Set("within", fmt.Sprintf("%dkm@%v,%v", c.cfg.RadiusKm, c.viewer.Lat, c.viewer.Lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Results []discovery.RawEvent `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Results, nil
}
