// Package ginmw provides Gin route guards for front ends built on the
// TrackPro SDK.
//
// The guards read the process session through trackpro.SessionStore and
// never call the API themselves. A terminal authentication failure recorded
// by a handler clears the session and sends the user back to login.
package ginmw

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	trackpro "github.com/chimerakang/trackpro-go"
)

// Context keys for storing session data in gin.Context.
const (
	KeySession = "trackpro_session"
	KeyUserID  = "trackpro_user_id"
	KeyRole    = "trackpro_role"
)

// RedirectParam carries the originally requested URL to the login page.
const RedirectParam = "redirect"

// RequireSession redirects anonymous requests to loginPath with the original
// URL in the redirect query parameter. Authenticated requests get the
// session snapshot stored in the Gin and request contexts.
func RequireSession(store trackpro.SessionStore, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := store.Snapshot()
		if !s.Authenticated() {
			redirectToLogin(c, loginPath)
			return
		}
		setSession(c, s)
		c.Next()
	}
}

// RequireRole answers 403 unless the session role is one of roles.
// Anonymous requests get 401.
func RequireRole(store trackpro.SessionStore, roles ...trackpro.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := GetSession(c)
		if !ok {
			s = store.Snapshot()
		}
		if !s.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		if !slices.Contains(roles, s.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not allowed"})
			return
		}
		setSession(c, s)
		c.Next()
	}
}

// AuthFailure inspects the errors handlers attached with c.Error. A
// terminal authentication failure clears the session and, unless the handler
// already wrote a response, redirects to loginPath.
func AuthFailure(store trackpro.SessionStore, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !hasAuthFailure(c) {
			return
		}
		_ = store.RemoveUser()
		c.Set(KeySession, trackpro.Session{})
		if !c.Writer.Written() {
			redirectToLogin(c, loginPath)
		}
	}
}

func hasAuthFailure(c *gin.Context) bool {
	for _, e := range c.Errors {
		var ae *trackpro.AuthenticationError
		if errors.As(e.Err, &ae) {
			return true
		}
	}
	return false
}

// RedirectTarget returns the URL a login handler should continue to:
// the redirect query parameter when it is a local path, otherwise fallback.
// Backslashes are rejected since browsers treat them as slashes.
func RedirectTarget(c *gin.Context, fallback string) string {
	target := c.Query(RedirectParam)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") ||
		strings.Contains(target, `\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}

// --- Context helpers ---

// GetSession returns the session stored by a guard.
func GetSession(c *gin.Context) (trackpro.Session, bool) {
	v, ok := c.Get(KeySession)
	if !ok {
		return trackpro.Session{}, false
	}
	s, ok := v.(trackpro.Session)
	return s, ok
}

// GetUserID returns the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

// GetRole returns the session role from the Gin context.
func GetRole(c *gin.Context) trackpro.Role {
	v, _ := c.Get(KeyRole)
	r, _ := v.(trackpro.Role)
	return r
}

// --- internal helpers ---

func setSession(c *gin.Context, s trackpro.Session) {
	c.Set(KeySession, s)
	c.Set(KeyUserID, s.UserID)
	c.Set(KeyRole, s.Role)
	c.Request = c.Request.WithContext(trackpro.WithSession(c.Request.Context(), s))
}

func redirectToLogin(c *gin.Context, loginPath string) {
	target := loginPath + "?" + url.Values{RedirectParam: {c.Request.URL.RequestURI()}}.Encode()
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
