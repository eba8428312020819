// Package contract provides interfaces and shared utilities for loadcompare's internal architecture.
package contract

import (
	"context"
	"database/sql"
	"time"

	"github.com/huangsam/loadcompare/schema"
)

// QueryEngine defines the query table operations the pipeline relies on.
// This allows the session to be tested against a mock engine.
type QueryEngine interface {
	// Initialize lazily provisions the database and returns the same handle on every call.
	Initialize(ctx context.Context) (*sql.DB, error)

	// CreateTable replaces the named table with the contents of the dataset.
	CreateTable(ctx context.Context, dataset schema.NormalizedDataset, tableName string) error

	// ExecuteQuery runs a read query and returns its rows.
	ExecuteQuery(ctx context.Context, query string) ([]schema.Record, error)

	// DropTable removes the named table if it exists.
	DropTable(ctx context.Context, tableName string) error

	// Status reports engine and table information.
	Status(ctx context.Context, tableName string) (schema.EngineStatus, error)

	// Close releases the database. It is safe to call more than once.
	Close() error
}

// Fetcher retrieves a text document by path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// DataLoader fetches documents and parses data files into raw rows.
type DataLoader interface {
	Fetcher
	Load(ctx context.Context, path string) ([]schema.RawRow, error)
}

// Observer receives pipeline events, e.g. to export them as metrics.
type Observer interface {
	// ObserveLoad is called after a scenario file was fetched, normalized and loaded.
	ObserveLoad(scenarioID string, rows int, duration time.Duration, err error)

	// ObserveQuery is called after a filter query ran.
	ObserveQuery(scenarioID string, rows int, duration time.Duration, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

var _ Observer = NopObserver{} // Compile-time check

// ObserveLoad does nothing.
func (NopObserver) ObserveLoad(string, int, time.Duration, error) {}

// ObserveQuery does nothing.
func (NopObserver) ObserveQuery(string, int, time.Duration, error) {}
