// Package rest provides the session-aware HTTP implementation of
// trackpro.Requester.
//
// Every call carries the session's bearer token. A 401 triggers exactly one
// token refresh followed by one replay of the original call; every other
// outcome is returned unchanged. The retry policy lives in a single decorator
// (RetryOnUnauthorized) composed over a one-shot sender.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/audit"
	"github.com/chimerakang/trackpro-go/metrics"
)

// HeaderRequestID carries the per-call correlation ID.
const HeaderRequestID = "X-Request-ID"

// Client implements trackpro.Requester over HTTP.
type Client struct {
	baseURL     string
	refreshPath string
	store       trackpro.SessionStore
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       *audit.Logger

	sharedRefresh bool
	sf            singleflight.Group

	do RequestFunc
}

// compile-time check
var _ trackpro.Requester = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRefreshPath overrides the token refresh endpoint. Default: "/token/refresh".
func WithRefreshPath(p string) Option {
	return func(c *Client) { c.refreshPath = p }
}

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request and refresh metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAudit emits refresh and authentication failure events.
func WithAudit(l *audit.Logger) Option {
	return func(c *Client) { c.audit = l }
}

// WithSharedRefresh makes concurrent requests that hit 401 with the same
// stale token share one refresh call instead of refreshing independently.
func WithSharedRefresh() Option {
	return func(c *Client) { c.sharedRefresh = true }
}

// NewClient creates a client for the API at baseURL, e.g.
// "http://localhost:8080/v1", reading and replacing the session in store.
func NewClient(baseURL string, store trackpro.SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		refreshPath: trackpro.DefaultRefreshPath,
		store:       store,
		httpClient:  &http.Client{Timeout: trackpro.DefaultTimeout},
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.do = RetryOnUnauthorized(c.send, store, c.refreshToken)
	return c
}

// Do sends req with the current bearer token. On 401 it refreshes the token
// once and replays req once. The response is returned alongside any
// *trackpro.ApplicationError or *trackpro.AuthenticationError so callers can
// inspect it; transport failures return a nil response.
func (c *Client) Do(ctx context.Context, req *trackpro.PendingRequest) (*trackpro.Response, error) {
	resp, err := c.do(ctx, req)
	if trackpro.IsAuthentication(err) {
		c.authFailed(ctx, req, err)
	}
	return resp, err
}

// DoAnonymous sends req without an Authorization header and without retry.
func (c *Client) DoAnonymous(ctx context.Context, req *trackpro.PendingRequest) (*trackpro.Response, error) {
	resp, err := c.roundTrip(ctx, req, "")
	if err != nil {
		return nil, err
	}
	return resp, Classify(resp, trackpro.StageRequest)
}

// Refresh exchanges the stored token for a new one and replaces the session.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshToken(ctx, c.store.Snapshot().AccessToken)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// send performs exactly one network call. An empty token is still sent as
// "Bearer " so the server answers 401; net/http trims the trailing space, so
// the server sees "Bearer".
func (c *Client) send(ctx context.Context, req *trackpro.PendingRequest, token string) (*trackpro.Response, error) {
	return c.roundTrip(ctx, req, "Bearer "+token)
}

func (c *Client) roundTrip(ctx context.Context, req *trackpro.PendingRequest, authorization string) (*trackpro.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := c.newHTTPRequest(ctx, method, req)
	if err != nil {
		return nil, &trackpro.TransportError{Method: method, Path: req.Path, Err: err}
	}
	if authorization != "" {
		httpReq.Header.Set("Authorization", authorization)
	}

	requestID := httpReq.Header.Get(HeaderRequestID)
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordTransportError(method)
		c.logger.Debug("api call failed", "method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, &trackpro.TransportError{Method: method, Path: req.Path, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.RecordTransportError(method)
		return nil, &trackpro.TransportError{Method: method, Path: req.Path, Err: fmt.Errorf("read body: %w", err)}
	}

	elapsed := time.Since(start)
	c.metrics.RecordRequest(method, httpResp.StatusCode, elapsed.Seconds())
	c.logger.Debug("api call",
		"method", method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", elapsed,
		"request_id", requestID,
	)

	return &trackpro.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, req *trackpro.PendingRequest) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := encodeBody(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	if httpReq.Header.Get(HeaderRequestID) == "" {
		id := trackpro.RequestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		httpReq.Header.Set(HeaderRequestID, id)
	}
	return httpReq, nil
}

// encodeBody encodes the body afresh on every send so a replay carries the
// same payload.
func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return data, nil
}

func (c *Client) authFailed(ctx context.Context, req *trackpro.PendingRequest, err error) {
	var ae *trackpro.AuthenticationError
	stage := string(trackpro.StageRequest)
	if asAuth(err, &ae) {
		stage = string(ae.Stage)
	}
	c.metrics.RecordAuthFailure(stage)
	c.logger.Warn("authentication failed", "path", req.Path, "stage", stage, "error", err)
	e := audit.NewEvent(ctx, audit.ActionAuthFailure, c.store.Snapshot(), err)
	e.Path, e.Details = req.Path, stage
	c.audit.Log(e)
}
