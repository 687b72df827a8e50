// Package trackpro provides a Go SDK for the TrackPro project and payment
// tracking API.
//
// The SDK defines the session model, the request contract and one service
// interface per REST resource. Concrete implementations are injected via
// Option functions, so callers can swap the HTTP transport, the session
// persistence or any single service (for example with fake/ in tests).
//
// Example usage:
//
//	store, _ := session.New(ctx, session.WithPersister(session.NewFilePersister(path)))
//	rc := rest.NewClient("http://localhost:8080/v1", store)
//	client, err := trackpro.NewClient(
//	    trackpro.Config{Endpoint: "http://localhost:8080/v1"},
//	    trackpro.WithSessionStore(store),
//	    trackpro.WithRequester(rc),
//	    trackpro.WithProjectService(project.New(rc)),
//	)
package trackpro

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Client is the main entry point for TrackPro operations.
// Service implementations are injected via Option functions.
type Client struct {
	config    Config
	logger    *slog.Logger
	sessions  SessionStore
	requester Requester
	auth      AuthService
	projects  ProjectService
	payments  PaymentService
	profiles  ProfileService
	accounts  AccountService
}

// Config holds connection and behavior configuration.
type Config struct {
	// Endpoint is the API base URL, e.g. "http://localhost:8080/v1".
	Endpoint string

	// RefreshPath is the token refresh endpoint relative to Endpoint.
	// Default: "/token/refresh".
	RefreshPath string

	// Timeout bounds a single HTTP call. Default: 10 seconds.
	Timeout time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionStore sets the session store.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.sessions = s }
}

// WithRequester sets the session-aware request implementation.
func WithRequester(r Requester) Option {
	return func(c *Client) { c.requester = r }
}

// WithAuthService sets the authentication implementation.
func WithAuthService(a AuthService) Option {
	return func(c *Client) { c.auth = a }
}

// WithProjectService sets the project implementation.
func WithProjectService(p ProjectService) Option {
	return func(c *Client) { c.projects = p }
}

// WithPaymentService sets the payment implementation.
func WithPaymentService(p PaymentService) Option {
	return func(c *Client) { c.payments = p }
}

// WithProfileService sets the profile implementation.
func WithProfileService(p ProfileService) Option {
	return func(c *Client) { c.profiles = p }
}

// WithAccountService sets the account implementation.
func WithAccountService(a AccountService) Option {
	return func(c *Client) { c.accounts = a }
}

const (
	// DefaultRefreshPath is the token refresh endpoint of the TrackPro API.
	DefaultRefreshPath = "/token/refresh"

	// DefaultTimeout bounds a single HTTP call.
	DefaultTimeout = 10 * time.Second
)

// NewClient creates a new TrackPro client with the given configuration and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("trackpro: Endpoint is required")
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Sessions returns the session store, or nil if not configured.
func (c *Client) Sessions() SessionStore { return c.sessions }

// Requester returns the request implementation, or nil if not configured.
func (c *Client) Requester() Requester { return c.requester }

// Auth returns the authentication service, or nil if not configured.
func (c *Client) Auth() AuthService { return c.auth }

// Projects returns the project service, or nil if not configured.
func (c *Client) Projects() ProjectService { return c.projects }

// Payments returns the payment service, or nil if not configured.
func (c *Client) Payments() PaymentService { return c.payments }

// Profiles returns the profile service, or nil if not configured.
func (c *Client) Profiles() ProfileService { return c.profiles }

// Accounts returns the account service, or nil if not configured.
func (c *Client) Accounts() AccountService { return c.accounts }

// CurrentSession returns a snapshot of the session, or an empty one when no
// store is configured.
func (c *Client) CurrentSession() Session {
	if c.sessions == nil {
		return Session{}
	}
	return c.sessions.Snapshot()
}

// HealthCheck reports whether the client is usable: a session store and a
// requester must be configured.
func (c *Client) HealthCheck(_ context.Context) error {
	if c.sessions == nil {
		return fmt.Errorf("trackpro: no session store configured")
	}
	if c.requester == nil {
		return fmt.Errorf("trackpro: no requester configured")
	}
	return nil
}

// Close releases all resources held by the client.
// Any injected component that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []interface{}{
		c.sessions, c.requester, c.auth,
		c.projects, c.payments, c.profiles, c.accounts,
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
