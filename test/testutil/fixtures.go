package testutil

import (
	"io"
	"io/fs"
	"sync"

	"github.com/TheMichaelB/dircrypt/internal/ext4"
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/secure"
)

// FakeDirectory is the state of one directory in a FakeFilesystem.
type FakeDirectory struct {
	Policy  *models.EncryptionPolicy
	Entries int
	Markers []string

	// Unsupported simulates a kernel without encryption support.
	Unsupported bool
	// DropPolicy makes SetPolicy succeed without applying anything.
	DropPolicy bool
	// MarkerErr fails CreateMarker.
	MarkerErr error
}

// FakeFilesystem emulates ext4 policy semantics in memory.
type FakeFilesystem struct {
	mu    sync.Mutex
	dirs  map[string]*FakeDirectory
	files map[string]bool
	other map[string]bool

	// Opened counts handles opened; Closed counts handles closed.
	Opened int
	Closed int
}

func NewFakeFilesystem() *FakeFilesystem {
	return &FakeFilesystem{
		dirs:  make(map[string]*FakeDirectory),
		files: make(map[string]bool),
		other: make(map[string]bool),
	}
}

// AddDir adds an empty ext4 directory.
func (f *FakeFilesystem) AddDir(path string) *FakeDirectory {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &FakeDirectory{}
	f.dirs[path] = d
	return d
}

// RemoveDir deletes a directory.
func (f *FakeFilesystem) RemoveDir(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirs, path)
}

// AddFile adds a regular file on ext4.
func (f *FakeFilesystem) AddFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = true
}

// AddForeignDir adds a directory on a different filesystem.
func (f *FakeFilesystem) AddForeignDir(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.other[path] = true
}

// Dir returns the state of a directory.
func (f *FakeFilesystem) Dir(path string) *FakeDirectory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirs[path]
}

func (f *FakeFilesystem) Open(path string) (ext4.Dir, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.other[path]:
		return nil, models.NewOpError("open", path, models.ErrFilesystemMismatch, nil)
	case f.files[path]:
		return nil, models.NewOpError("open", path, models.ErrNotADirectory, nil)
	}

	d, ok := f.dirs[path]
	if !ok {
		return nil, models.NewOpError("statfs", path, models.ErrIO, fs.ErrNotExist)
	}
	f.Opened++
	return &fakeDir{fs: f, path: path, dir: d}, nil
}

type fakeDir struct {
	fs   *FakeFilesystem
	path string
	dir  *FakeDirectory
}

func (d *fakeDir) Path() string { return d.path }

func (d *fakeDir) GetPolicy() (*models.EncryptionPolicy, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if d.dir.Unsupported {
		return nil, models.NewOpError("get policy", d.path, models.ErrUnsupported, nil)
	}
	if d.dir.Policy == nil {
		return nil, nil
	}
	cp := *d.dir.Policy
	return &cp, nil
}

func (d *fakeDir) SetPolicy(policy *models.EncryptionPolicy) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	switch {
	case d.dir.Unsupported:
		return models.NewOpError("set policy", d.path, models.ErrUnsupported, nil)
	case d.dir.Policy != nil && *d.dir.Policy != *policy:
		return models.NewOpError("set policy", d.path, models.ErrInvalidParameters, nil)
	case d.dir.Policy == nil && d.dir.Entries > 0:
		return models.NewOpError("set policy", d.path, models.ErrNotEmpty, nil)
	case d.dir.DropPolicy:
		return nil
	}
	cp := *policy
	d.dir.Policy = &cp
	return nil
}

func (d *fakeDir) CreateMarker(name string) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if d.dir.MarkerErr != nil {
		return models.NewOpError("create marker inode in", d.path, models.ErrIO, d.dir.MarkerErr)
	}
	d.dir.Markers = append(d.dir.Markers, name)
	return nil
}

func (d *fakeDir) Close() error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()
	d.fs.Closed++
	return nil
}

// ScriptedReader replays passphrase lines.
type ScriptedReader struct {
	mu      sync.Mutex
	lines   []string
	Prompts []string
}

func NewScriptedReader(lines ...string) *ScriptedReader {
	return &ScriptedReader{lines: lines}
}

// Push appends more lines.
func (r *ScriptedReader) Push(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, lines...)
}

// Remaining returns the number of unread lines.
func (r *ScriptedReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func (r *ScriptedReader) ReadLine(prompt string) (*secure.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Prompts = append(r.Prompts, prompt)
	if len(r.lines) == 0 {
		return nil, io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return secure.BufferFrom([]byte(line)), nil
}
