// Package app assembles a trackpro.Client from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/account"
	"github.com/chimerakang/trackpro-go/audit"
	"github.com/chimerakang/trackpro-go/auth"
	"github.com/chimerakang/trackpro-go/internal/config"
	"github.com/chimerakang/trackpro-go/metrics"
	"github.com/chimerakang/trackpro-go/payment"
	"github.com/chimerakang/trackpro-go/profile"
	"github.com/chimerakang/trackpro-go/project"
	"github.com/chimerakang/trackpro-go/rest"
	"github.com/chimerakang/trackpro-go/session"
)

// App owns the client and every resource it was built from.
type App struct {
	Client   *trackpro.Client
	Store    *session.Store
	Metrics  *metrics.Metrics
	Audit    *audit.Logger
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []io.Closer
}

// New builds the client described by cfg. The session is restored from the
// configured persister before New returns.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Logger: logger}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Metrics = metrics.New(a.Registry)
	} else {
		a.Metrics = metrics.New(nil)
	}

	if cfg.Audit.Enabled() {
		var (
			opts []audit.Option
			file *os.File
		)
		if cfg.Audit.File != "" {
			f, err := openAuditFile(cfg.Audit.File)
			if err != nil {
				return nil, err
			}
			file = f
			opts = append(opts, audit.WithWriterHandler(f))
		}
		if cfg.Audit.Log {
			opts = append(opts, audit.WithSlogHandler(logger))
		}
		a.Audit = audit.New(0, opts...)
		// Flush the queue before closing the file.
		a.closers = append(a.closers, a.Audit)
		if file != nil {
			a.closers = append(a.closers, file)
		}
	}

	persister, err := a.persister(cfg.Session)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	store, err := session.New(ctx,
		session.WithPersister(persister),
		session.WithLogger(logger),
		session.WithObserver(func(_, next trackpro.Session) {
			if next.Authenticated() {
				a.Metrics.RecordSessionChange("set")
			} else {
				a.Metrics.RecordSessionChange("clear")
			}
		}),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	a.Store = store

	restOpts := []rest.Option{
		rest.WithTimeout(cfg.API.Timeout),
		rest.WithRefreshPath(cfg.API.RefreshPath),
		rest.WithLogger(logger),
		rest.WithMetrics(a.Metrics),
		rest.WithAudit(a.Audit),
	}
	if cfg.API.SharedRefresh {
		restOpts = append(restOpts, rest.WithSharedRefresh())
	}
	rc := rest.NewClient(cfg.API.Endpoint, store, restOpts...)

	client, err := trackpro.NewClient(
		trackpro.Config{
			Endpoint:    cfg.API.Endpoint,
			RefreshPath: cfg.API.RefreshPath,
			Timeout:     cfg.API.Timeout,
		},
		trackpro.WithLogger(logger),
		trackpro.WithSessionStore(store),
		trackpro.WithRequester(rc),
		trackpro.WithAuthService(auth.New(rc, store, auth.WithAudit(a.Audit), auth.WithLogger(logger))),
		trackpro.WithProjectService(project.New(rc)),
		trackpro.WithPaymentService(payment.New(rc)),
		trackpro.WithProfileService(profile.New(rc)),
		trackpro.WithAccountService(account.New(rc)),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Client = client
	return a, nil
}

func (a *App) persister(cfg config.SessionConfig) (session.Persister, error) {
	if !cfg.UseRedis() {
		return session.NewFilePersister(cfg.File), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, rdb)
	return session.NewRedisPersister(rdb, cfg.Name, cfg.TTL), nil
}

func openAuditFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return f, nil
}

// MetricsHandler serves the collected metrics, or 404 when disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// Close releases the client, then the audit log and the persister.
func (a *App) Close() error {
	var errs []error
	if a.Client != nil {
		errs = append(errs, a.Client.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
