// Package backend selects and constructs the document store the binaries
// share, so the API server and the report worker cannot drift apart in how
// they open it.
package backend

import (
	"fmt"
	"log/slog"

	"giaingan/internal/config"
	"giaingan/internal/docstore"
)

// Type identifies a document store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

// IsValid reports whether the backend type is supported.
func (t Type) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

// NewStore builds the document store named by the configuration.
func NewStore(cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		store, err := docstore.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	default:
		logger.Info("Initialized memory backend")
		return docstore.NewMemory(), nil
	}
}
