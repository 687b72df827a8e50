// Package testenv wires a fake backend, a session store and a REST client
// for package tests.
package testenv

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/fake"
	"github.com/chimerakang/trackpro-go/rest"
	"github.com/chimerakang/trackpro-go/session"
)

// Env is a running fake backend with a client pointed at it.
type Env struct {
	Backend *fake.Server
	Server  *httptest.Server
	Store   *session.Store
	Client  *rest.Client
}

// Seed is the default data set: an admin, a client and two projects.
func Seed() []fake.Option {
	return []fake.Option{
		fake.WithAccount("u-admin", "admin", "admin123", trackpro.RoleAdmin),
		fake.WithAccount("u-client", "client", "client123", trackpro.RoleClient),
		fake.WithProject(trackpro.Project{
			ID: "p1", UserID: "u-client", Username: "client", Name: "Coffee Shop Website",
			Description: "landing page", Price: 15, Status: trackpro.ProjectProgressing,
			StartTime: "2024-03-01T00:00:00Z",
			Payments:  []trackpro.Payment{{ID: 1, Amount: 5, CreatedAt: "2024-03-02T08:00:00Z"}},
		}),
		fake.WithProject(trackpro.Project{
			ID: "p2", UserID: "u-admin", Username: "admin", Name: "Internal Tools",
			Price: 8, Status: trackpro.ProjectRegistering,
		}),
	}
}

// New starts a backend seeded with Seed() plus extra options.
func New(t *testing.T, extra ...fake.Option) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := fake.New(append(Seed(), extra...)...)
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	store, err := session.New(context.Background())
	if err != nil {
		t.Fatalf("session.New() error: %v", err)
	}
	rc := rest.NewClient(ts.URL+fake.BasePath, store)
	t.Cleanup(func() { _ = rc.Close() })

	return &Env{Backend: backend, Server: ts, Store: store, Client: rc}
}

// LoginAs stores a fresh session for userID without calling the login route.
func (e *Env) LoginAs(t *testing.T, userID string, role trackpro.Role) {
	t.Helper()
	token, err := e.Backend.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken(%q) error: %v", userID, err)
	}
	if err := e.Store.SetUser(userID, role, token); err != nil {
		t.Fatalf("SetUser() error: %v", err)
	}
}
