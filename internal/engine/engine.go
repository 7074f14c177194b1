// Package engine provides the table engine behind the ranking pipeline.
// It loads the source files into an embedded database, validates their
// columns, runs the joins and builds the cleaned TMDb and IMDb tables.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/movierank/internal/movie"
	"github.com/leapstack-labs/movierank/pkg/adapter"
)

// Engine runs table operations against a lazily connected adapter.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	// Structured logger
	logger *slog.Logger

	columns movie.Columns
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig selects and configures the database adapter.
	// An empty Type defaults to duckdb, an empty Path to an in-memory database.
	AdapterConfig adapter.Config
	// Columns maps logical fields to source column names (defaults applied).
	Columns movie.Columns
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine with lazy database connection.
// The database adapter is only connected when a table operation runs.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dbConfig := cfg.AdapterConfig
	if dbConfig.Type == "" {
		dbConfig.Type = "duckdb"
	}

	logger.Debug("initializing engine", "adapter_type", dbConfig.Type, "path", dbConfig.Path)

	return &Engine{
		dbConfig: dbConfig,
		logger:   logger,
		columns:  cfg.Columns.WithDefaults(),
	}
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true
	return nil
}

// Close releases the database connection.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	if e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("errors closing engine: %w", err)
	}
	return nil
}

// Columns returns the resolved source column names.
func (e *Engine) Columns() movie.Columns {
	return e.columns
}
