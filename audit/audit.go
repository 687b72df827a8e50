// Package audit records session lifecycle events: logins, signups, token
// refreshes, logouts and terminal authentication failures.
//
// Events are queued and handed to every handler on one background
// goroutine, so handlers never run concurrently with each other.
package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	trackpro "github.com/chimerakang/trackpro-go"
)

// Session lifecycle actions.
const (
	ActionLogin       = "login"
	ActionSignup      = "signup"
	ActionRefresh     = "refresh"
	ActionLogout      = "logout"
	ActionAuthFailure = "auth_failure"
)

// Results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// DefaultQueueSize bounds the number of events waiting for handlers.
const DefaultQueueSize = 256

// Event is one session lifecycle event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Action    string    `json:"action"`
	Result    string    `json:"result"`
	Path      string    `json:"path,omitempty"`
	Details   string    `json:"details,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewEvent builds an event for sess. A non-nil err makes it a failure.
func NewEvent(ctx context.Context, action string, sess trackpro.Session, err error) Event {
	e := Event{
		RequestID: trackpro.RequestIDFromContext(ctx),
		UserID:    sess.UserID,
		Role:      string(sess.Role),
		Action:    action,
		Result:    ResultSuccess,
	}
	if err != nil {
		e.Result = ResultFailure
		e.Error = err.Error()
	}
	return e
}

// Failed reports whether the event records a failure.
func (e Event) Failed() bool { return e.Result == ResultFailure }

// Handler consumes events. It runs on the logger's goroutine.
type Handler func(event Event)

// Logger queues events for its handlers. A nil *Logger discards events.
type Logger struct {
	handlers []Handler
	dropFull bool

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// Option configures a Logger.
type Option func(*Logger)

// WithWriterHandler writes each event to w as one JSON line.
func WithWriterHandler(w io.Writer) Option {
	return WithHandler(func(e Event) {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		_, _ = w.Write(append(data, '\n'))
	})
}

// WithSlogHandler logs each event as an "audit" record, at warn level for
// failures and info otherwise.
func WithSlogHandler(logger *slog.Logger) Option {
	return WithHandler(func(e Event) {
		level := slog.LevelInfo
		if e.Failed() {
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("action", e.Action),
			slog.String("result", e.Result),
			slog.String("user_id", e.UserID),
		}
		for _, kv := range [][2]string{
			{"role", e.Role}, {"request_id", e.RequestID}, {"path", e.Path},
			{"details", e.Details}, {"error", e.Error},
		} {
			if kv[1] != "" {
				attrs = append(attrs, slog.String(kv[0], kv[1]))
			}
		}
		logger.LogAttrs(context.Background(), level, "audit", attrs...)
	})
}

// WithHandler adds h.
func WithHandler(h Handler) Option {
	return func(l *Logger) { l.handlers = append(l.handlers, h) }
}

// WithDropWhenFull makes Log drop events instead of waiting when the queue
// is full. Dropped events are counted by Dropped.
func WithDropWhenFull() Option {
	return func(l *Logger) { l.dropFull = true }
}

// New starts a logger with room for queueSize pending events
// (DefaultQueueSize when queueSize <= 0).
func New(queueSize int, opts ...Option) *Logger {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	l := &Logger{queue: make(chan Event, queueSize)}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for e := range l.queue {
			for _, h := range l.handlers {
				h(e)
			}
		}
	}()
	return l
}

// Log queues event, stamping it with the current time when unset. Events
// logged after Close are dropped.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	if !l.dropFull {
		l.queue <- event
		return
	}
	select {
	case l.queue <- event:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns the number of events that never reached the handlers.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// ErrClosed is returned by a second Close.
var ErrClosed = errors.New("trackpro/audit: logger already closed")

// Close delivers every queued event, then stops the logger.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or nil.
func FromContext(ctx context.Context) *Logger {
	l, _ := ctx.Value(ctxKey{}).(*Logger)
	return l
}
