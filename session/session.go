// Package session provides the process-wide SessionStore implementation.
//
// The session triple is held as an immutable versioned value behind an
// atomic pointer: readers take lock-free snapshots, writers replace the whole
// value. An optional Persister restores the session at construction and
// receives every replacement.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	trackpro "github.com/chimerakang/trackpro-go"
)

// ErrNotPersisted is returned by a Persister that holds no session.
var ErrNotPersisted = errors.New("trackpro/session: no persisted session")

//go:generate mockgen -destination=mocks/mock_persister.go -package=mocks github.com/chimerakang/trackpro-go/session Persister

// Persister stores the session outside the process.
type Persister interface {
	// Load returns the stored session, or ErrNotPersisted.
	Load(ctx context.Context) (trackpro.Session, error)

	// Save overwrites the stored session.
	Save(ctx context.Context, s trackpro.Session) error

	// Clear removes the stored session.
	Clear(ctx context.Context) error
}

// Observer is notified after every replacement, outside the write lock.
type Observer func(prev, next trackpro.Session)

type value struct {
	session trackpro.Session
	version uint64
}

// Store implements trackpro.SessionStore.
type Store struct {
	mu             sync.Mutex // serialises writers
	cur            atomic.Pointer[value]
	persister      Persister
	persistTimeout time.Duration
	logger         *slog.Logger
	observers      []Observer
}

// compile-time check
var _ trackpro.SessionStore = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithPersister restores from and writes through to p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithPersistTimeout bounds each write-through call. Default: 5 seconds.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) { s.persistTimeout = d }
}

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithObserver registers a callback invoked after each replacement.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// New creates a Store, restoring the session from the persister if one is set.
// A persisted session that violates the set-together invariant is discarded.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{
		persistTimeout: 5 * time.Second,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.cur.Store(&value{})

	if s.persister == nil {
		return s, nil
	}

	restored, err := s.persister.Load(ctx)
	switch {
	case errors.Is(err, ErrNotPersisted):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("trackpro/session: restore: %w", err)
	}

	if !restored.Consistent() {
		s.logger.Warn("discarding inconsistent persisted session", "user_id", restored.UserID)
		if err := s.persister.Clear(ctx); err != nil {
			return nil, fmt.Errorf("trackpro/session: clear: %w", err)
		}
		return s, nil
	}

	s.cur.Store(&value{session: restored, version: 1})
	return s, nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() trackpro.Session {
	return s.cur.Load().session
}

// Version returns the replacement counter.
func (s *Store) Version() uint64 {
	return s.cur.Load().version
}

// SetUser replaces the session. All three fields must be set, or all empty.
// Persistence failures are logged; the in-memory session stays authoritative.
func (s *Store) SetUser(userID string, role trackpro.Role, accessToken string) error {
	next := trackpro.Session{AccessToken: accessToken, UserID: userID, Role: role}
	if !next.Consistent() {
		return fmt.Errorf("trackpro/session: %w", trackpro.ErrInvalidSession)
	}
	s.replace(next)
	return nil
}

// RemoveUser clears the session.
func (s *Store) RemoveUser() error {
	s.replace(trackpro.Session{})
	return nil
}

func (s *Store) replace(next trackpro.Session) {
	s.mu.Lock()
	prev := s.cur.Load()
	s.cur.Store(&value{session: next, version: prev.version + 1})
	s.persist(next)
	s.mu.Unlock()

	for _, o := range s.observers {
		o(prev.session, next)
	}
}

func (s *Store) persist(next trackpro.Session) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	var err error
	if next.Authenticated() {
		err = s.persister.Save(ctx, next)
	} else {
		err = s.persister.Clear(ctx)
	}
	if err != nil {
		s.logger.Warn("session persistence failed", "error", err)
	}
}
