//go:build linux

package ext4_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/TheMichaelB/dircrypt/internal/ext4"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

func onExt4(t *testing.T, path string) bool {
	t.Helper()
	var st unix.Statfs_t
	require.NoError(t, unix.Statfs(path, &st))
	return int64(st.Type) == ext4.SuperMagic
}

func TestOpenRejectsOtherFilesystems(t *testing.T) {
	dir := t.TempDir()
	if onExt4(t, dir) {
		t.Skip("temporary directory is on ext4")
	}

	_, err := ext4.NewOSFilesystem().Open(dir)
	assert.ErrorIs(t, err, models.ErrFilesystemMismatch)
}

func TestOpenMissingPath(t *testing.T) {
	_, err := ext4.NewOSFilesystem().Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, models.ErrIO)
	assert.ErrorIs(t, err, unix.ENOENT)
}

func TestOpenFileIsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	if !onExt4(t, dir) {
		t.Skip("temporary directory is not on ext4")
	}

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	_, err := ext4.NewOSFilesystem().Open(file)
	assert.ErrorIs(t, err, models.ErrNotADirectory)
}

func TestMarkerLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	if !onExt4(t, dir) {
		t.Skip("temporary directory is not on ext4")
	}

	d, err := ext4.NewOSFilesystem().Open(dir)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.CreateMarker("marker"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLookupMount(t *testing.T) {
	info, err := ext4.LookupMount(t.TempDir())
	if err != nil {
		t.Skipf("no mount table available: %v", err)
	}
	assert.NotEmpty(t, info.Mountpoint)
}
