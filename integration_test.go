//go:build integration

package trackpro_test

import (
	"context"
	"os"
	"testing"
	"time"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/auth"
	"github.com/chimerakang/trackpro-go/project"
	"github.com/chimerakang/trackpro-go/rest"
	"github.com/chimerakang/trackpro-go/session"
)

// Run against a live API with:
//
//	TRACKPRO_ENDPOINT=http://localhost:8080/v1 \
//	TRACKPRO_TEST_USERNAME=admin TRACKPRO_TEST_PASSWORD=... \
//	go test -tags=integration .

func liveClient(t *testing.T) (*trackpro.Client, *session.Store) {
	t.Helper()
	endpoint := os.Getenv("TRACKPRO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping integration test (TRACKPRO_ENDPOINT not set)")
	}
	store, err := session.New(context.Background())
	if err != nil {
		t.Fatalf("session.New() error: %v", err)
	}
	rc := rest.NewClient(endpoint, store)
	c, err := trackpro.NewClient(trackpro.Config{Endpoint: endpoint},
		trackpro.WithSessionStore(store),
		trackpro.WithRequester(rc),
		trackpro.WithAuthService(auth.New(rc, store)),
		trackpro.WithProjectService(project.New(rc)),
	)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func TestLiveLoginListRefreshLogout(t *testing.T) {
	c, store := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := c.Auth().Login(ctx, trackpro.LoginUser{
		Username: os.Getenv("TRACKPRO_TEST_USERNAME"),
		Password: os.Getenv("TRACKPRO_TEST_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !s.Consistent() || !s.Authenticated() {
		t.Fatalf("Login() session = %+v", s)
	}

	if _, err := c.Projects().List(ctx, trackpro.ListOptions{ReturnPayment: true}); err != nil {
		t.Fatalf("List() error: %v", err)
	}

	before := store.Version()
	if _, err := c.Auth().Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if store.Version() <= before {
		t.Error("Refresh() did not replace the session")
	}

	if err := c.Auth().Logout(ctx); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if store.Snapshot().Authenticated() {
		t.Error("session should be empty after Logout()")
	}
}

func TestLiveUnauthenticatedRequest(t *testing.T) {
	c, _ := liveClient(t)
	_, err := c.Projects().List(context.Background(), trackpro.ListOptions{})
	if !trackpro.IsAuthentication(err) {
		t.Errorf("List() without session error = %v, want authentication error", err)
	}
}
