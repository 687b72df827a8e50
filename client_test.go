package trackpro_test

import (
	"context"
	"errors"
	"testing"
	"time"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/project"
	"github.com/chimerakang/trackpro-go/rest"
	"github.com/chimerakang/trackpro-go/session"
)

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := trackpro.NewClient(trackpro.Config{}); err == nil {
		t.Fatal("NewClient() expected error when Endpoint is empty")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	cfg := c.Config()
	if cfg.RefreshPath != trackpro.DefaultRefreshPath {
		t.Errorf("RefreshPath = %q, want %q", cfg.RefreshPath, trackpro.DefaultRefreshPath)
	}
	if cfg.Timeout != trackpro.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, trackpro.DefaultTimeout)
	}
	if c.Logger() == nil {
		t.Error("Logger() should default to slog.Default()")
	}
}

func TestNewClient_CustomConfig(t *testing.T) {
	c, err := trackpro.NewClient(trackpro.Config{
		Endpoint:    "http://localhost:8080/v1",
		RefreshPath: "/auth/refresh",
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.Config().RefreshPath != "/auth/refresh" || c.Config().Timeout != time.Second {
		t.Errorf("Config() = %+v", c.Config())
	}
}

func TestNewClient_NilServicesBeforeInjection(t *testing.T) {
	c, _ := trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"})

	if c.Sessions() != nil {
		t.Error("Sessions() should be nil before injection")
	}
	if c.Requester() != nil {
		t.Error("Requester() should be nil before injection")
	}
	if c.Auth() != nil {
		t.Error("Auth() should be nil before injection")
	}
	if c.Projects() != nil {
		t.Error("Projects() should be nil before injection")
	}
	if c.Payments() != nil {
		t.Error("Payments() should be nil before injection")
	}
	if c.Profiles() != nil {
		t.Error("Profiles() should be nil before injection")
	}
	if c.Accounts() != nil {
		t.Error("Accounts() should be nil before injection")
	}
	if c.CurrentSession() != (trackpro.Session{}) {
		t.Error("CurrentSession() should be empty without a store")
	}
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	c, _ := trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"})
	if err := c.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error without a session store")
	}

	store, err := session.New(ctx)
	if err != nil {
		t.Fatalf("session.New() error: %v", err)
	}
	rc := rest.NewClient("http://localhost:8080/v1", store)
	c, _ = trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"},
		trackpro.WithSessionStore(store),
		trackpro.WithRequester(rc),
		trackpro.WithProjectService(project.New(rc)),
	)
	if err := c.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}
	if c.Projects() == nil {
		t.Error("Projects() should be set after injection")
	}

	if err := store.SetUser("u1", trackpro.RoleClient, "T1"); err != nil {
		t.Fatalf("SetUser() error: %v", err)
	}
	if got := c.CurrentSession(); got.UserID != "u1" || got.AccessToken != "T1" {
		t.Errorf("CurrentSession() = %+v", got)
	}
}

type closingProjects struct {
	trackpro.ProjectService
	closed bool
	err    error
}

func (p *closingProjects) Close() error {
	p.closed = true
	return p.err
}

func TestClose_ClosesInjectedClosers(t *testing.T) {
	boom := errors.New("boom")
	svc := &closingProjects{err: boom}
	c, _ := trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"},
		trackpro.WithProjectService(svc))

	if err := c.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want %v", err, boom)
	}
	if !svc.closed {
		t.Error("Close() did not close the project service")
	}
}

func TestClose_NoErrorWithoutClosers(t *testing.T) {
	c, _ := trackpro.NewClient(trackpro.Config{Endpoint: "http://localhost:8080/v1"})
	if err := c.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
