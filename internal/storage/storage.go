// Package storage persists engine state between runs. The engine only
// produces and consumes models.PortfolioState; this package decides where it lives.
package storage

import (
	"context"
	"fmt"

	"cypherx_sim/internal/models"
)

// Store loads and saves a serialized engine.
type Store interface {
	// Load returns the saved state. found is false when nothing was saved yet.
	Load(ctx context.Context) (state models.PortfolioState, found bool, err error)
	Save(ctx context.Context, state models.PortfolioState) error
	Close() error
}

// Open returns the store for backend ("json" or "sqlite").
func Open(backend, statePath, sqlitePath string) (Store, error) {
	switch backend {
	case "", "json":
		return NewJSONFileStore(statePath), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
