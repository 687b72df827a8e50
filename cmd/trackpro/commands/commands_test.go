package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/fake"
	"github.com/chimerakang/trackpro-go/internal/testenv"
	"github.com/chimerakang/trackpro-go/pagination"
)

// plain renders into a buffer, so every style is a no-op.
var plain = newPalette(&bytes.Buffer{})

type harness struct {
	backend *fake.Server
	config  string
	session string
}

func newHarness(t *testing.T, extra ...fake.Option) *harness {
	t.Helper()
	backend := fake.New(append(testenv.Seed(), extra...)...)
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	h := &harness{backend: backend, config: filepath.Join(dir, "trackpro.yaml"), session: filepath.Join(dir, "session.json")}
	yaml := fmt.Sprintf("api:\n  endpoint: %s%s\nsession:\n  file: %s\nlog:\n  level: error\n", ts.URL, fake.BasePath, h.session)
	require.NoError(t, os.WriteFile(h.config, []byte(yaml), 0o600))
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), append([]string{"--config", h.config}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, "trackpro %s", strings.Join(args, " "))
	return out
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "login", "-u", "admin", "-p", "admin123")
	require.Contains(t, out, "Logged in as admin (admin)")
	require.FileExists(t, h.session)

	out = h.mustRun(t, "whoami")
	require.Contains(t, out, "u-admin")
	require.Contains(t, out, "Token expires")

	h.mustRun(t, "logout")
	out = h.mustRun(t, "whoami")
	require.Contains(t, out, "Not logged in")
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "login", "-u", "admin", "-p", "nope")
	require.Error(t, err)
	require.True(t, trackpro.IsAuthentication(err))
	require.False(t, errors.Is(err, errSessionEnded))
	require.Zero(t, h.backend.Hits("POST /v1/token/refresh"))
}

func TestSignup(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "signup", "--first-name", "Carol", "--last-name", "Tran", "-u", "carol", "-p", "secret99")
	require.Contains(t, out, "Account carol created (client)")

	out = h.mustRun(t, "profile", "show")
	require.Contains(t, out, "Carol")
}

func TestProjectsPagination(t *testing.T) {
	var extra []fake.Option
	for i := 3; i <= 7; i++ {
		extra = append(extra, fake.WithProject(trackpro.Project{
			ID: fmt.Sprintf("p%d", i), UserID: "u-admin", Username: "admin",
			Name: fmt.Sprintf("Project %d", i), Price: 1, Status: trackpro.ProjectRegistering,
		}))
	}
	h := newHarness(t, extra...)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	out := h.mustRun(t, "projects", "--page", "2", "--page-size", "2")
	require.Contains(t, out, "p3")
	require.Contains(t, out, "p4")
	require.NotContains(t, out, "Coffee Shop Website")
	require.Contains(t, out, plain.pageBar(pagination.Controls(4, 2)))
	require.Contains(t, out, "page 2 of 4, 7 projects")

	// Out-of-range pages are clamped.
	out = h.mustRun(t, "projects", "--page", "99", "--page-size", "2")
	require.Contains(t, out, "page 4 of 4")
}

func TestProjectsSearch(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	out := h.mustRun(t, "projects", "--search", "coffee", "--filter", "project_name", "--payments")
	require.Contains(t, out, "Coffee Shop Website")
	require.NotContains(t, out, "Internal Tools")
	require.Contains(t, out, "progress")

	out = h.mustRun(t, "projects", "--search", "coffee", "--filter", "username")
	require.Contains(t, out, "No projects")

	_, err := h.run(t, "projects", "--filter", "colour")
	require.ErrorContains(t, err, `unknown filter "colour"`)
}

func TestProjectsRefreshesExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "client", "-p", "client123")
	h.backend.ExpireAll()

	out := h.mustRun(t, "projects")
	require.Contains(t, out, "Coffee Shop Website")
	require.Equal(t, 1, h.backend.Hits("POST /v1/token/refresh"))
	require.Equal(t, 2, h.backend.Hits("GET /v1/project"))

	// The refreshed session was persisted, so the next run needs no refresh.
	h.mustRun(t, "projects")
	require.Equal(t, 1, h.backend.Hits("POST /v1/token/refresh"))
}

func TestRejectedRefreshEndsSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "client", "-p", "client123")
	h.backend.ExpireAll()
	h.backend.FailRefresh(true)

	_, err := h.run(t, "projects")
	require.ErrorIs(t, err, errSessionEnded)
	require.True(t, trackpro.IsAuthentication(err))

	out := h.mustRun(t, "whoami")
	require.Contains(t, out, "Not logged in")
}

func TestProjectLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	out := h.mustRun(t, "payment", "add", "--project", "p1", "--user", "u-client", "--amount", "10")
	require.Contains(t, out, "Recorded payment #2")

	out = h.mustRun(t, "project", "show", "p1")
	require.Contains(t, out, "Coffee Shop Website")
	require.Regexp(t, regexp.MustCompile(`Payment:\s+paid\n`), out)

	out = h.mustRun(t, "project", "update", "p1", "--status", "finished")
	require.Regexp(t, regexp.MustCompile(`Status:\s+finished\n`), out)
	require.Contains(t, out, "landing page")

	out = h.mustRun(t, "project", "create", "--user", "u-client", "--name", "Mobile App", "--price", "20")
	require.Contains(t, out, "Created project")

	out = h.mustRun(t, "projects", "--uid", "u-client")
	require.Contains(t, out, "Mobile App")
	require.NotContains(t, out, "Internal Tools")
}

func TestClientForbidden(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "client", "-p", "client123")

	_, err := h.run(t, "accounts")
	require.Error(t, err)
	require.Equal(t, 403, trackpro.StatusCode(err))

	// A 403 is not an authentication failure, so the session survives.
	out := h.mustRun(t, "whoami")
	require.Contains(t, out, "u-client")
}

func TestAccounts(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	out := h.mustRun(t, "accounts", "--profile")
	require.Contains(t, out, "USERNAME")
	require.Contains(t, out, "u-client")
	require.Contains(t, out, "activated")
}

func TestProfileUpdate(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "client", "-p", "client123")

	out := h.mustRun(t, "profile", "update", "--about", "coffee lover", "--last-name", "Nguyen")
	require.Contains(t, out, "coffee lover")
	require.Contains(t, out, "client Nguyen")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	plain.table(&buf, []string{"A", "B"}, [][]string{{"long value", "x"}, {"s", "yy"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Index(lines[1], "x"), strings.Index(lines[0], "B"))
	require.Equal(t, strings.Index(lines[2], "yy"), strings.Index(lines[0], "B"))
}

func TestPageBar(t *testing.T) {
	require.Empty(t, plain.pageBar(pagination.Controls(1, 1)))
	require.Equal(t, "‹ 1 [2] 3 4 … 10 ›", plain.pageBar(pagination.Controls(10, 2)))
	require.Equal(t, "‹ 1 … 4 [5] 6 … 10 ›", plain.pageBar(pagination.Controls(10, 5)))
	require.Equal(t, "‹ 1 … 7 8 9 [10]", plain.pageBar(pagination.Controls(10, 10)))
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	_, err := h.run(t, "login", "-u", "client", "-p", "wrong")
	require.True(t, trackpro.IsAuthentication(err))
	require.NotErrorIs(t, err, errSessionEnded)

	out := h.mustRun(t, "whoami")
	require.Contains(t, out, "u-admin")
}
