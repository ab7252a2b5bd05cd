// Package application assembles a running linkbase instance from a Config:
// it opens the configured table store, applies its schema, loads the
// catalog and builds the core Service. All three entry points (HTTP
// server, CLI, MCP server) start through Open.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/linkbase/internal/catalog"
	"github.com/JonMunkholm/linkbase/internal/config"
	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
	"github.com/JonMunkholm/linkbase/internal/store/memory"
	"github.com/JonMunkholm/linkbase/internal/store/postgres"
	"github.com/JonMunkholm/linkbase/internal/store/sqlite"
)

// App is an opened store plus the service built on it.
type App struct {
	Config  *config.Config
	Backend store.Backend
	Service *core.Service
}

// Open connects to the configured store, ensures its schema and builds the
// service. The caller must Close the App.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureSchema(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	svc, err := NewService(ctx, cfg, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &App{Config: cfg, Backend: backend, Service: svc}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Backend.Close()
}

// OpenBackend opens the store selected by cfg.Driver.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (store.Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewService loads the catalog and builds a Service over backend, pinning
// the active table when ACTIVE_TABLE_ID is configured.
func NewService(ctx context.Context, cfg *config.Config, backend store.Backend) (*core.Service, error) {
	loc, err := cfg.Time.Location()
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Catalog.FetchTimeout)
	defer cancel()
	roots, err := catalog.Load(loadCtx, cfg.Catalog.Source, &http.Client{Timeout: cfg.Catalog.FetchTimeout})
	if err != nil {
		return nil, err
	}
	total, navigable := catalog.Count(roots)
	slog.Info("catalog loaded", "source", cfg.Catalog.Source, "nodes", total, "navigable", navigable)

	ts := store.PinActive(backend, cfg.Store.ActiveTableID)

	return core.NewService(ts, roots, core.ServiceConfig{
		TitleField:    cfg.Ingest.TitleField,
		URLField:      cfg.Ingest.URLField,
		MaxConcurrent: cfg.Ingest.MaxConcurrent,
		MaxWait:       cfg.Ingest.MaxWaitTime,
		IngestTimeout: cfg.Ingest.Timeout,
		MaxRecords:    cfg.Ingest.MaxRecords,
		MaxImportSize: cfg.Ingest.MaxFileSize,
		TimeZone:      loc,
		TimePattern:   cfg.Time.Format,
	}), nil
}
