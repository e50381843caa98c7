package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"coalesce/internal/core/config"
	"coalesce/internal/core/errors"
	"coalesce/internal/core/ports"
	"coalesce/internal/data/history"
	"coalesce/internal/engine/fix"
	"coalesce/internal/engine/inspect"
	"coalesce/internal/engine/syntax"
	"coalesce/internal/shared/observability"
)

// App wires the engine to configuration, storage and outputs.
type App struct {
	Paths config.ResolvedPaths

	loader  *syntax.GrammarLoader
	history ports.HistoryStore

	// Guarded by mu; replaced on config reload.
	mu        sync.RWMutex
	cfg       *config.Config
	level     syntax.Level
	inspector *inspect.Inspector
	excludes  *config.ExcludeMatcher
	gen       uint64
	listeners map[int]func(*config.Config)
	nextID    int

	applicator *fix.Applicator
	tracing    func(context.Context) error
}

// New builds an App for cfg with paths resolved against cwd.
func New(ctx context.Context, cfg *config.Config, cwd string) (*App, error) {
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve paths")
	}

	loader := syntax.NewGrammarLoader(cfg.Extensions)
	a := &App{
		Paths:      paths,
		loader:     loader,
		applicator: fix.NewApplicator(loader),
	}
	if err := a.applyConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, paths.HistoryPath)
		}
		a.history = store
	}

	if cfg.Observability.Enabled && cfg.Observability.EnableTracing {
		shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
			Endpoint:    cfg.Observability.OTLPEndpoint,
			ServiceName: cfg.Observability.ServiceName,
			Insecure:    true,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			a.tracing = shutdown
		}
	}

	return a, nil
}

// WithHistory replaces the history store, mainly for tests.
func (a *App) WithHistory(store ports.HistoryStore) *App {
	a.history = store
	return a
}

func (a *App) applyConfig(cfg *config.Config) error {
	level, err := syntax.ParseLevel(cfg.PHPVersion)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "php_version")
	}
	excludes, err := config.NewExcludeMatcher(cfg.Exclude)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "exclude")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	a.level = level
	a.excludes = excludes
	a.inspector = inspect.New(cfg.Inspections.NullCoalescing.Options())
	a.gen++
	return nil
}

// Reload swaps in a new configuration and then notifies reload listeners.
// Paths, extensions and storage stay as they were at startup.
func (a *App) Reload(cfg *config.Config) error {
	if err := a.applyConfig(cfg); err != nil {
		return err
	}
	a.mu.RLock()
	notify := make([]func(*config.Config), 0, len(a.listeners))
	for _, fn := range a.listeners {
		notify = append(notify, fn)
	}
	a.mu.RUnlock()
	for _, fn := range notify {
		fn(cfg)
	}
	slog.Info("configuration applied", "php_version", cfg.PHPVersion, "options", fmt.Sprintf("%+v", cfg.Inspections.NullCoalescing.Options()))
	return nil
}

// onReload registers fn to run after every successful Reload. The returned
// func unregisters it.
func (a *App) onReload(fn func(*config.Config)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listeners == nil {
		a.listeners = make(map[int]func(*config.Config))
	}
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *App) snapshot() (syntax.Level, *inspect.Inspector, *config.ExcludeMatcher) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.level, a.inspector, a.excludes
}

// Config returns the configuration currently in effect. Callers must treat
// it as read-only; Reload swaps the pointer rather than mutating it.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// generation counts applied configurations.
func (a *App) generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// History returns the configured store, or nil when history is disabled.
func (a *App) History() ports.HistoryStore { return a.history }

func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			firstErr = err
		}
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
