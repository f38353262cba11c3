package state_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dircrypt/internal/config"
	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/state"
)

func TestJSONStore(t *testing.T) {
	tmpDir := t.TempDir()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	store, err := state.NewJSONStore(tmpDir, logger)
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "state.db")
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	store, err := state.NewSQLiteStore(dbPath, logger)
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestMockStore(t *testing.T) {
	testStoreOperations(t, state.NewMockStore())
}

func newContainer(t *testing.T, path string, desc models.KeyDescriptor) *models.Container {
	t.Helper()
	policy, err := models.DefaultCryptOptions().Policy(desc)
	require.NoError(t, err)
	return models.NewContainer(path, policy, time.Now().UTC().Truncate(time.Second))
}

func testStoreOperations(t *testing.T, store state.Store) {
	path := "/mnt/data/private"

	t.Run("load non-existent", func(t *testing.T) {
		_, err := store.Load(path)
		assert.ErrorIs(t, err, state.ErrStateNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		c := newContainer(t, path, models.KeyDescriptor{1, 2, 3, 4, 5, 6, 7, 8})
		require.NoError(t, store.Save(c))

		loaded, err := store.Load(path)
		require.NoError(t, err)

		assert.Equal(t, c.Path, loaded.Path)
		assert.Equal(t, "0102030405060708", loaded.Descriptor)
		assert.Equal(t, "aes-256-xts", loaded.ContentsCipher)
		assert.Equal(t, "aes-256-cts", loaded.FilenameCipher)
		assert.Equal(t, 4, loaded.Padding)
		assert.Equal(t, c.CreatedAt.Unix(), loaded.CreatedAt.Unix())
		assert.True(t, loaded.LastDetachedAt.IsZero())
	})

	t.Run("update existing", func(t *testing.T) {
		loaded, err := store.Load(path)
		require.NoError(t, err)

		detached := time.Now().UTC().Truncate(time.Second)
		loaded.MarkDetached(detached)
		require.NoError(t, store.Save(loaded))

		again, err := store.Load(path)
		require.NoError(t, err)
		assert.Equal(t, detached.Unix(), again.LastDetachedAt.Unix())
	})

	t.Run("list ordered by path", func(t *testing.T) {
		require.NoError(t, store.Save(newContainer(t, "/home/alice/vault", models.KeyDescriptor{0xAA})))

		list, err := store.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "/home/alice/vault", list[0].Path)
		assert.Equal(t, path, list[1].Path)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Remove(path))
		_, err := store.Load(path)
		assert.ErrorIs(t, err, state.ErrStateNotFound)

		// Removing twice is fine.
		assert.NoError(t, store.Remove(path))

		list, err := store.List()
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("reject invalid record", func(t *testing.T) {
		c := newContainer(t, "relative", models.KeyDescriptor{})
		if _, ok := store.(*state.MockStore); ok {
			t.Skip("mock store does not validate")
		}
		assert.Error(t, store.Save(c))
	})
}

func TestJSONStoreCorruption(t *testing.T) {
	tmpDir := t.TempDir()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	store, err := state.NewJSONStore(tmpDir, logger)
	require.NoError(t, err)

	path := "/srv/secret"
	first := newContainer(t, path, models.KeyDescriptor{0x01})
	require.NoError(t, store.Save(first))

	second := newContainer(t, path, models.KeyDescriptor{0x02})
	require.NoError(t, store.Save(second))

	files, err := filepath.Glob(filepath.Join(tmpDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	t.Run("falls back to backup", func(t *testing.T) {
		require.NoError(t, os.WriteFile(files[0], []byte("{not json"), 0600))

		loaded, err := store.Load(path)
		require.NoError(t, err)
		assert.Equal(t, first.Descriptor, loaded.Descriptor)
		assert.Contains(t, buf.String(), "Loaded state from backup")
	})

	t.Run("corrupt without backup", func(t *testing.T) {
		require.NoError(t, os.Remove(files[0]+".backup"))

		_, err := store.Load(path)
		assert.ErrorIs(t, err, state.ErrStateCorrupt)
	})

	t.Run("list skips corrupt files", func(t *testing.T) {
		list, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestJSONStoreChecksumMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	store, err := state.NewJSONStore(tmpDir, logger)
	require.NoError(t, err)

	path := "/srv/tampered"
	require.NoError(t, store.Save(newContainer(t, path, models.KeyDescriptor{0x0F})))

	files, err := filepath.Glob(filepath.Join(tmpDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte("aes-256-cts"), []byte("aes-256-cbc"), 1)
	require.NoError(t, os.WriteFile(files[0], tampered, 0600))

	_, err = store.Load(path)
	assert.ErrorIs(t, err, state.ErrStateCorrupt)
	assert.Contains(t, buf.String(), "State checksum mismatch")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	tests := []struct {
		backend string
		wantNil bool
		wantErr bool
	}{
		{"json", false, false},
		{"sqlite", false, false},
		{"none", true, false},
		{"redis", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.StateConfig{Backend: tt.backend, Dir: t.TempDir()}
			store, err := state.New(cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, store)
				return
			}
			require.NotNil(t, store)
			assert.NoError(t, store.Close())
		})
	}
}
