// Package state keeps a registry of the directories dircrypt has set up.
// The registry is bookkeeping only: the kernel policy and keyring stay
// authoritative, and no key material is ever stored.
package state

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/TheMichaelB/dircrypt/internal/config"
	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

// Store manages container records.
type Store interface {
	// Load retrieves the record for an absolute directory path.
	Load(path string) (*models.Container, error)

	// Save creates or replaces a record.
	Save(c *models.Container) error

	// Remove deletes the record for path. Removing a missing record is not an error.
	Remove(path string) error

	// List returns all records ordered by path.
	List() ([]*models.Container, error)

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrStateNotFound = errors.New("state not found")
	ErrStateCorrupt  = errors.New("state file is corrupt")
)

// record wraps a container with store metadata.
type record struct {
	*models.Container

	SchemaVersion int       `json:"schema_version"`
	SavedAt       time.Time `json:"saved_at"`
	Checksum      string    `json:"checksum,omitempty"`
}

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// New opens the store selected by cfg. The "none" backend returns a nil
// Store, which callers treat as recording disabled.
func New(cfg *config.StateConfig, logger *events.Logger) (Store, error) {
	switch cfg.Backend {
	case "json":
		return NewJSONStore(cfg.Dir, logger)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(cfg.Dir, "dircrypt.db"), logger)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.Backend)
	}
}
