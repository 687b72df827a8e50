// Package auth implements trackpro.AuthService over the TrackPro REST API.
//
// Login and signup are sent without credentials; a successful response
// replaces the session wholesale. Logout clears it.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/audit"
	"github.com/chimerakang/trackpro-go/internal/validation"
)

const (
	loginPath  = "/login"
	signupPath = "/signup"
)

// Service authenticates users and owns the session lifecycle.
type Service struct {
	rc     trackpro.Requester
	store  trackpro.SessionStore
	audit  *audit.Logger
	logger *slog.Logger
}

// compile-time check
var _ trackpro.AuthService = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithAudit emits login, signup and logout events.
func WithAudit(l *audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates an auth service. rc sends the requests and store receives
// the resulting session.
func New(rc trackpro.Requester, store trackpro.SessionStore, opts ...Option) *Service {
	s := &Service{rc: rc, store: store, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, user trackpro.LoginUser) (trackpro.Session, error) {
	if err := validation.Struct(user); err != nil {
		return trackpro.Session{}, fmt.Errorf("trackpro/auth: login: %w", err)
	}
	sess, err := s.authenticate(ctx, loginPath, user)
	s.record(ctx, audit.ActionLogin, loginPath, user.Username, sess, err)
	if err != nil {
		return trackpro.Session{}, fmt.Errorf("trackpro/auth: login: %w", err)
	}
	return sess, nil
}

// Signup registers a new account and starts its session.
func (s *Service) Signup(ctx context.Context, user trackpro.SignupUser) (trackpro.Session, error) {
	if err := validation.Struct(user); err != nil {
		return trackpro.Session{}, fmt.Errorf("trackpro/auth: signup: %w", err)
	}
	sess, err := s.authenticate(ctx, signupPath, user)
	s.record(ctx, audit.ActionSignup, signupPath, user.Username, sess, err)
	if err != nil {
		return trackpro.Session{}, fmt.Errorf("trackpro/auth: signup: %w", err)
	}
	return sess, nil
}

// Refresh exchanges the current token for a new one.
func (s *Service) Refresh(ctx context.Context) (trackpro.Session, error) {
	if _, err := s.rc.Refresh(ctx); err != nil {
		return trackpro.Session{}, fmt.Errorf("trackpro/auth: refresh: %w", err)
	}
	return s.store.Snapshot(), nil
}

// Logout clears the session. There is no server-side logout endpoint.
func (s *Service) Logout(ctx context.Context) error {
	prev := s.store.Snapshot()
	if err := s.store.RemoveUser(); err != nil {
		return fmt.Errorf("trackpro/auth: logout: %w", err)
	}
	s.logger.Info("logged out", "user_id", prev.UserID)
	s.auditor(ctx).Log(audit.NewEvent(ctx, audit.ActionLogout, prev, nil))
	return nil
}

func (s *Service) authenticate(ctx context.Context, path string, body any) (trackpro.Session, error) {
	resp, err := s.rc.DoAnonymous(ctx, &trackpro.PendingRequest{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return trackpro.Session{}, err
	}

	var ar trackpro.AuthResponse
	if err := resp.Decode(&ar); err != nil {
		return trackpro.Session{}, fmt.Errorf("decode: %w", err)
	}
	sess := ar.Session()
	if !sess.Authenticated() {
		return trackpro.Session{}, fmt.Errorf("response carries no access token")
	}
	if err := s.store.SetUser(sess.UserID, sess.Role, sess.AccessToken); err != nil {
		return trackpro.Session{}, err
	}
	return sess, nil
}

func (s *Service) record(ctx context.Context, action, path, username string, sess trackpro.Session, err error) {
	e := audit.NewEvent(ctx, action, sess, err)
	e.Path, e.Details = path, username
	if err != nil {
		s.logger.Warn("authentication rejected", "action", action, "username", username, "error", err)
	} else {
		s.logger.Info("authenticated", "action", action, "user_id", sess.UserID, "role", sess.Role)
	}
	s.auditor(ctx).Log(e)
}

// auditor returns the configured audit logger, else the one carried by ctx.
func (s *Service) auditor(ctx context.Context) *audit.Logger {
	if s.audit != nil {
		return s.audit
	}
	return audit.FromContext(ctx)
}
