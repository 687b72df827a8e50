package ginmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/session"
)

func init() { gin.SetMode(gin.TestMode) }

func newStore(t *testing.T, s trackpro.Session) *session.Store {
	t.Helper()
	store, err := session.New(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Authenticated() {
		if err := store.SetUser(s.UserID, s.Role, s.AccessToken); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

var admin = trackpro.Session{AccessToken: "tok", UserID: "u1", Role: trackpro.RoleAdmin}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession_RedirectsAnonymous(t *testing.T) {
	store := newStore(t, trackpro.Session{})
	r := gin.New()
	r.GET("/projects", RequireSession(store, "/login"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, "/projects?pageIndex=2")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?redirect=%2Fprojects%3FpageIndex%3D2" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRequireSession_StoresSession(t *testing.T) {
	store := newStore(t, admin)
	r := gin.New()
	r.GET("/projects", RequireSession(store, "/login"), func(c *gin.Context) {
		s, ok := GetSession(c)
		fromCtx, _ := trackpro.SessionFromContext(c.Request.Context())
		if !ok || s != admin || fromCtx != admin {
			t.Errorf("session = %+v (ok=%v), ctx = %+v", s, ok, fromCtx)
		}
		if GetUserID(c) != "u1" || GetRole(c) != trackpro.RoleAdmin {
			t.Errorf("GetUserID/GetRole = %q/%q", GetUserID(c), GetRole(c))
		}
		c.String(http.StatusOK, "ok")
	})

	if w := serve(r, "/projects"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		session trackpro.Session
		want    int
	}{
		{"admin allowed", admin, http.StatusOK},
		{"client forbidden", trackpro.Session{AccessToken: "t", UserID: "u2", Role: trackpro.RoleClient}, http.StatusForbidden},
		{"anonymous", trackpro.Session{}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, tt.session)
			r := gin.New()
			r.GET("/accounts", RequireRole(store, trackpro.RoleAdmin), func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})
			if w := serve(r, "/accounts"); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthFailure_ClearsSessionAndRedirects(t *testing.T) {
	store := newStore(t, admin)
	r := gin.New()
	r.Use(AuthFailure(store, "/login"))
	r.GET("/projects", RequireSession(store, "/login"), func(c *gin.Context) {
		_ = c.Error(&trackpro.AuthenticationError{Stage: trackpro.StageRefresh, StatusCode: 401})
	})

	w := serve(r, "/projects")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if store.Snapshot().Authenticated() {
		t.Error("session should be cleared")
	}
}

func TestAuthFailure_IgnoresOtherErrors(t *testing.T) {
	store := newStore(t, admin)
	r := gin.New()
	r.Use(AuthFailure(store, "/login"))
	r.GET("/projects", func(c *gin.Context) {
		_ = c.Error(&trackpro.ApplicationError{StatusCode: 500})
		c.String(http.StatusBadGateway, "upstream failed")
	})

	w := serve(r, "/projects")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if !store.Snapshot().Authenticated() {
		t.Error("session must survive non-authentication errors")
	}
}

func TestRedirectTarget(t *testing.T) {
	tests := map[string]string{
		"/login?redirect=%2Fprojects%2F7":         "/projects/7",
		"/login":                                  "/projects",
		"/login?redirect=https%3A%2F%2Fevil.test": "/projects",
		"/login?redirect=%2F%2Fevil.test%2Fx":     "/projects",
		"/login?redirect=%2F%5Cevil.test":         "/projects",
		"/login?redirect=%2Fa%5C..%5Cb":           "/projects",
	}
	for path, want := range tests {
		r := gin.New()
		var got string
		r.GET("/login", func(c *gin.Context) { got = RedirectTarget(c, "/projects") })
		serve(r, path)
		if got != want {
			t.Errorf("RedirectTarget(%q) = %q, want %q", path, got, want)
		}
	}
}
