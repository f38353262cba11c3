package state

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

// SQLiteStore implements SQLite-based state storage.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite state store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_state_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS containers (
        path TEXT PRIMARY KEY,
        descriptor TEXT NOT NULL,
        contents_cipher TEXT NOT NULL,
        filename_cipher TEXT NOT NULL,
        padding INTEGER NOT NULL,
        created_at TIMESTAMP NOT NULL,
        last_attached_at TIMESTAMP,
        last_detached_at TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_containers_descriptor ON containers(descriptor);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Load retrieves a record from the database.
func (s *SQLiteStore) Load(path string) (*models.Container, error) {
	path = filepath.Clean(path)
	s.logger.WithField("dir", path).Debug("Loading state from SQLite")

	row := s.db.QueryRow(`
        SELECT path, descriptor, contents_cipher, filename_cipher, padding,
               created_at, last_attached_at, last_detached_at
        FROM containers
        WHERE path = ?
    `, path)

	c, err := scanContainer(row)
	if err == sql.ErrNoRows {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query container: %w", err)
	}
	return c, nil
}

// Save upserts a record.
func (s *SQLiteStore) Save(c *models.Container) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"dir":        c.Path,
		"descriptor": c.Descriptor,
	}).Debug("Saving state to SQLite")

	_, err := s.db.Exec(`
        INSERT INTO containers (path, descriptor, contents_cipher, filename_cipher, padding,
                                created_at, last_attached_at, last_detached_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(path) DO UPDATE SET
            descriptor = excluded.descriptor,
            contents_cipher = excluded.contents_cipher,
            filename_cipher = excluded.filename_cipher,
            padding = excluded.padding,
            created_at = excluded.created_at,
            last_attached_at = excluded.last_attached_at,
            last_detached_at = excluded.last_detached_at,
            updated_at = CURRENT_TIMESTAMP
    `, filepath.Clean(c.Path), c.Descriptor, c.ContentsCipher, c.FilenameCipher, c.Padding,
		c.CreatedAt, nullTime(c.LastAttachedAt), nullTime(c.LastDetachedAt))
	if err != nil {
		return fmt.Errorf("upsert container: %w", err)
	}

	return nil
}

// Remove deletes a record.
func (s *SQLiteStore) Remove(path string) error {
	s.logger.WithField("dir", path).Debug("Removing state from SQLite")

	if _, err := s.db.Exec("DELETE FROM containers WHERE path = ?", filepath.Clean(path)); err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	return nil
}

// List returns all records ordered by path.
func (s *SQLiteStore) List() ([]*models.Container, error) {
	rows, err := s.db.Query(`
        SELECT path, descriptor, contents_cipher, filename_cipher, padding,
               created_at, last_attached_at, last_detached_at
        FROM containers
        ORDER BY path
    `)
	if err != nil {
		return nil, fmt.Errorf("query containers: %w", err)
	}
	defer rows.Close()

	var containers []*models.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan container row: %w", err)
		}
		containers = append(containers, c)
	}

	return containers, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContainer(row scanner) (*models.Container, error) {
	var c models.Container
	var attached, detached sql.NullTime

	err := row.Scan(&c.Path, &c.Descriptor, &c.ContentsCipher, &c.FilenameCipher, &c.Padding,
		&c.CreatedAt, &attached, &detached)
	if err != nil {
		return nil, err
	}
	if attached.Valid {
		c.LastAttachedAt = attached.Time
	}
	if detached.Valid {
		c.LastDetachedAt = detached.Time
	}
	return &c, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
