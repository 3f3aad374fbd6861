// Package registry resolves database aliases to open handles, with at most one delegation
// queue, and so one worker goroutine, per alias.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kubev2v/shareddb/internal/config"
	"github.com/kubev2v/shareddb/internal/settings"
	"github.com/kubev2v/shareddb/internal/store"
	"github.com/kubev2v/shareddb/pkg/delegate"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

// OpenFunc opens the database behind an alias.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

type Option func(*Registry)

func WithOpenFunc(open OpenFunc) Option {
	return func(r *Registry) {
		r.open = open
	}
}

func WithMetrics(m delegate.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Handle is an open alias.
type Handle struct {
	Alias  string
	Driver string
	Conn   store.Conn
	// Queue is nil for aliases that are not delegated.
	Queue *delegate.Queue

	db *sql.DB
}

func (h *Handle) close() error {
	var errs []error
	errs = append(errs, h.Conn.Close())
	if h.Queue != nil {
		errs = append(errs, h.Queue.Stop())
	}
	errs = append(errs, h.db.Close())
	return errors.Join(errs...)
}

// Registry is created once at startup and passed to whoever needs an alias.
type Registry struct {
	databases map[string]config.Database
	open      OpenFunc
	metrics   delegate.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// entry is an alias being opened or already open. ready is closed once h or err is set.
type entry struct {
	ready chan struct{}
	h     *Handle
	err   error
}

func (e *entry) wait(ctx context.Context) (*Handle, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.h, nil
}

func New(databases map[string]config.Database, opts ...Option) *Registry {
	r := &Registry{
		databases: databases,
		open:      store.NewDB,
		entries:   map[string]*entry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Aliases returns the configured aliases, sorted.
func (r *Registry) Aliases() []string {
	aliases := make([]string, 0, len(r.databases))
	for alias := range r.databases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Get returns the handle of alias, opening it on first use. Concurrent callers get the
// same handle. Opening one alias does not block callers of other aliases.
func (r *Registry) Get(ctx context.Context, alias string) (*Handle, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, srvErrors.ErrRegistryClosed
	}
	if e, ok := r.entries[alias]; ok {
		r.mu.Unlock()
		return e.wait(ctx)
	}
	dbCfg, ok := r.databases[alias]
	if !ok {
		r.mu.Unlock()
		return nil, srvErrors.NewAliasNotFoundError(alias)
	}
	e := &entry{ready: make(chan struct{})}
	r.entries[alias] = e
	r.mu.Unlock()

	// The handle is shared: it must not depend on this caller's cancellation.
	h, err := r.openHandle(context.WithoutCancel(ctx), alias, dbCfg)

	r.mu.Lock()
	switch {
	case err != nil:
		if !r.closed {
			delete(r.entries, alias)
		}
		e.err = err
	case r.closed:
		// Close is waiting on ready and closes h.
		e.h, e.err = h, srvErrors.ErrRegistryClosed
	default:
		e.h = h
	}
	r.mu.Unlock()
	close(e.ready)

	if e.err != nil {
		return nil, e.err
	}
	return h, nil
}

func (r *Registry) openHandle(ctx context.Context, alias string, dbCfg config.Database) (*Handle, error) {
	driver, delegated, err := settings.Resolve(alias, dbCfg)
	if err != nil {
		return nil, err
	}

	db, err := r.open(driver, dbCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", alias, err)
	}

	h := &Handle{Alias: alias, Driver: driver, db: db}
	if !delegated {
		h.Conn = store.NewQueryInterceptor(alias, store.NewDirectDB(db))
		zap.S().Named("registry").Infow("opened database", "alias", alias, "driver", driver, "delegated", false)
		return h, nil
	}

	q := delegate.New(
		delegate.WithName(alias),
		delegate.WithLogger(zap.L()),
		delegate.WithMetrics(r.metrics),
	)
	if err := q.Start(); err != nil {
		_ = db.Close()
		return nil, err
	}
	shared, err := store.NewSharedDB(ctx, q, db)
	if err != nil {
		_ = q.Stop()
		_ = db.Close()
		return nil, fmt.Errorf("failed to share database %q: %w", alias, err)
	}

	h.Queue = q
	h.Conn = store.NewQueryInterceptor(alias, shared)
	zap.S().Named("registry").Infow("opened database", "alias", alias, "driver", driver, "delegated", true)
	return h, nil
}

// Close stops every queue and closes every database, waiting for aliases still being
// opened. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = map[string]*entry{}
	r.mu.Unlock()

	var errs []error
	for alias, e := range entries {
		<-e.ready
		if e.h == nil {
			continue
		}
		if err := e.h.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database %q: %w", alias, err))
		}
	}
	return errors.Join(errs...)
}
