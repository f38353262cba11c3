package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

// JSONStore keeps one JSON file per directory, named by the SHA-256 of
// its path.
type JSONStore struct {
	baseDir string
	logger  *events.Logger

	mu sync.RWMutex
}

// NewJSONStore creates a JSON-based state store.
func NewJSONStore(baseDir string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &JSONStore{
		baseDir: baseDir,
		logger:  logger.WithField("component", "json_state_store"),
	}, nil
}

// Load reads a record from its JSON file.
func (s *JSONStore) Load(path string) (*models.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file := s.recordPath(path)

	s.logger.WithFields(map[string]interface{}{
		"dir":  path,
		"file": file,
	}).Debug("Loading state")

	c, err := s.readRecord(file)
	if err == nil {
		return c, nil
	}
	if errors.Is(err, ErrStateNotFound) {
		return nil, err
	}

	if backup, berr := s.readRecord(file + ".backup"); berr == nil {
		s.logger.WithField("dir", path).Warn("Loaded state from backup due to corruption")
		return backup, nil
	}
	return nil, err
}

// Save writes a record atomically, keeping the previous version as a backup.
func (s *JSONStore) Save(c *models.Container) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.recordPath(c.Path)

	s.logger.WithFields(map[string]interface{}{
		"dir":        c.Path,
		"descriptor": c.Descriptor,
	}).Debug("Saving state")

	rec := record{
		Container:     c,
		SchemaVersion: CurrentSchemaVersion,
		SavedAt:       time.Now().UTC(),
	}
	sum, err := checksum(rec)
	if err != nil {
		return err
	}
	rec.Checksum = sum

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if _, err := os.Stat(file); err == nil {
		if err := copyFile(file, file+".backup"); err != nil {
			s.logger.WithError(err).Warn("Failed to create backup")
		}
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if f, err := os.Open(tmp); err == nil {
		_ = f.Sync()
		f.Close()
	}

	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// Remove deletes the record and its backup.
func (s *JSONStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("dir", path).Debug("Removing state")

	file := s.recordPath(path)
	for _, p := range []string{file, file + ".backup"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove state file: %w", err)
		}
	}
	return nil
}

// List returns all readable records. Corrupt files are logged and skipped.
func (s *JSONStore) List() ([]*models.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read state directory: %w", err)
	}

	var containers []*models.Container
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}

		c, err := s.readRecord(filepath.Join(s.baseDir, name))
		if err != nil {
			s.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable state file")
			continue
		}
		containers = append(containers, c)
	}

	sort.Slice(containers, func(i, j int) bool {
		return containers[i].Path < containers[j].Path
	})
	return containers, nil
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

// Helper methods

func (s *JSONStore) recordPath(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return filepath.Join(s.baseDir, hex.EncodeToString(hash[:])+".json")
}

func (s *JSONStore) readRecord(file string) (*models.Container, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Container == nil {
		return nil, ErrStateCorrupt
	}

	if rec.Checksum != "" {
		stored := rec.Checksum
		rec.Checksum = ""
		calculated, err := checksum(rec)
		if err != nil {
			return nil, err
		}
		if calculated != stored {
			s.logger.WithFields(map[string]interface{}{
				"expected": stored,
				"actual":   calculated,
			}).Error("State checksum mismatch")
			return nil, ErrStateCorrupt
		}
	}

	if rec.SchemaVersion != CurrentSchemaVersion {
		s.logger.WithField("version", rec.SchemaVersion).Warn("State schema version mismatch")
	}

	return rec.Container, nil
}

// checksum hashes rec with its Checksum field cleared.
func checksum(rec record) (string, error) {
	rec.Checksum = ""
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal state for checksum: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

