// Package container orchestrates encrypted directory setup: it ties the
// filesystem policy, the passphrase, key derivation and the kernel
// keyring together.
package container

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/TheMichaelB/dircrypt/internal/crypto"
	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/ext4"
	"github.com/TheMichaelB/dircrypt/internal/keyring"
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/passphrase"
	"github.com/TheMichaelB/dircrypt/internal/secure"
	"github.com/TheMichaelB/dircrypt/internal/state"
)

// PassphraseSource supplies passphrases. *passphrase.Prompter implements it.
type PassphraseSource interface {
	Passphrase(prompt string, confirm bool) (*secure.Buffer, error)
}

// Manager runs directory operations. A directory moves from no policy,
// to a policy without a key, to a policy with a key registered.
type Manager struct {
	fs       ext4.Filesystem
	keys     *keyring.Bridge
	prompter PassphraseSource
	deriver  crypto.Deriver
	rng      *secure.Generator
	store    state.Store
	logger   *events.Logger

	now    func() time.Time
	mounts func(string) (*ext4.MountInfo, error)
}

// NewManager creates a manager. store may be nil to disable the registry.
func NewManager(
	fs ext4.Filesystem,
	keys *keyring.Bridge,
	prompter PassphraseSource,
	deriver crypto.Deriver,
	rng *secure.Generator,
	store state.Store,
	logger *events.Logger,
) *Manager {
	return &Manager{
		fs:       fs,
		keys:     keys,
		prompter: prompter,
		deriver:  deriver,
		rng:      rng,
		store:    store,
		logger:   logger.WithField("service", "container"),
		now:      time.Now,
		mounts:   ext4.LookupMount,
	}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// SetMountLookup replaces the mount lookup used by status reports. A nil
// lookup leaves mount information out.
func (m *Manager) SetMountLookup(lookup func(string) (*ext4.MountInfo, error)) {
	m.mounts = lookup
}

// Create sets up dir for encryption and registers its key. The directory
// must be empty and have no policy yet.
func (m *Manager) Create(ctx context.Context, dir string, opts models.CryptOptions) (*Report, error) {
	ctx, logger := m.begin(ctx, "create", dir)

	d, err := m.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	existing, err := d.GetPolicy()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewOpError("create", dir, models.ErrAlreadyEncrypted, nil)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	desc := m.rng.KeyDescriptor()
	if opts.KeyDescriptor != nil {
		desc = *opts.KeyDescriptor
	}
	policy, err := opts.Policy(desc)
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"contents":   policy.ContentsMode.String(),
		"filenames":  policy.FilenamesMode.String(),
		"padding":    policy.Padding(),
		"descriptor": desc.Hex(),
	}).Debug("Applying encryption policy")

	if err := d.SetPolicy(policy); err != nil {
		return nil, err
	}

	applied, err := d.GetPolicy()
	if err != nil {
		return nil, err
	}
	if applied == nil || applied.KeyDescriptor != desc {
		return nil, models.NewOpError("create", dir, models.ErrSetupFailed, nil)
	}

	if _, err := m.registerKey(logger, applied, true); err != nil {
		return nil, err
	}

	// The policy is only materialized on disk once an inode exists inside
	// the directory.
	marker := m.rng.Identifier(ext4.MarkerNameSize, true)
	if err := d.CreateMarker(string(marker)); err != nil {
		return nil, err
	}

	m.record(logger, dir, func(c *models.Container) *models.Container {
		return models.NewContainer(c.Path, applied, m.now())
	})

	logger.Info("Encrypted directory set up")
	return m.report(ctx, d, dir)
}

// Attach registers the key for an encrypted directory. Ciphers come from
// the directory's policy; opts only controls verbosity. Attaching an
// already attached directory replaces the key with an identical one.
func (m *Manager) Attach(ctx context.Context, dir string, opts models.CryptOptions) (*Report, error) {
	ctx, logger := m.begin(ctx, "attach", dir)

	d, err := m.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	policy, err := d.GetPolicy()
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, models.NewOpError("attach", dir, models.ErrNotEncrypted, nil)
	}

	serial, err := m.registerKey(logger, policy, false)
	if err != nil {
		return nil, err
	}

	m.record(logger, dir, func(c *models.Container) *models.Container {
		if c.Descriptor == "" {
			return nil
		}
		c.MarkAttached(m.now())
		return c
	})

	entry := logger.WithField("serial", serial)
	if opts.Verbose {
		entry.Info("Key attached")
	} else {
		entry.Debug("Key attached")
	}
	return m.report(ctx, d, dir)
}

// Detach removes the key of an encrypted directory from the keyring. Files
// already opened stay readable until the page and inode caches drop them.
func (m *Manager) Detach(ctx context.Context, dir string) error {
	_, logger := m.begin(ctx, "detach", dir)

	d, err := m.fs.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	policy, err := d.GetPolicy()
	if err != nil {
		return err
	}
	if policy == nil {
		return models.NewOpError("detach", dir, models.ErrNotEncrypted, nil)
	}

	if err := m.keys.Remove(policy.KeyDescriptor); err != nil {
		return err
	}

	m.record(logger, dir, func(c *models.Container) *models.Container {
		if c.Descriptor == "" {
			return nil
		}
		c.MarkDetached(m.now())
		return c
	})

	logger.Info("Key detached")
	return nil
}

// Status reports the encryption state of dir without changing anything.
func (m *Manager) Status(ctx context.Context, dir string) (*Report, error) {
	ctx, _ = m.begin(ctx, "status", dir)

	d, err := m.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return m.report(ctx, d, dir)
}

// List returns the registered directories with their key presence. It
// returns nothing when the registry is disabled.
func (m *Manager) List(ctx context.Context) ([]*Entry, error) {
	_, logger := m.begin(ctx, "list", "")

	if m.store == nil {
		return nil, nil
	}

	containers, err := m.store.List()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(containers))
	for _, c := range containers {
		entry := &Entry{Container: c}

		desc, err := c.KeyDescriptor()
		if err != nil {
			logger.WithError(err).WithField("dir", c.Path).Warn("Skipping record with bad descriptor")
			continue
		}
		serial, found, err := m.keys.Find(desc)
		if err != nil {
			return nil, err
		}
		entry.KeyPresent = found
		entry.KeySerial = serial

		entries = append(entries, entry)
	}

	return entries, nil
}

// Prune removes registry records for directories that no longer exist or
// no longer carry the recorded policy. It returns the removed paths.
func (m *Manager) Prune(ctx context.Context) ([]string, error) {
	_, logger := m.begin(ctx, "prune", "")

	if m.store == nil {
		return nil, nil
	}

	containers, err := m.store.List()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, c := range containers {
		stale, err := m.stale(c)
		if err != nil {
			logger.WithError(err).WithField("dir", c.Path).Warn("Keeping record that cannot be checked")
			continue
		}
		if !stale {
			continue
		}

		if err := m.store.Remove(c.Path); err != nil {
			return removed, err
		}
		logger.WithField("dir", c.Path).Info("Removed stale record")
		removed = append(removed, c.Path)
	}

	return removed, nil
}

// stale reports whether the directory behind c is gone or carries a
// different policy than the one recorded.
func (m *Manager) stale(c *models.Container) (bool, error) {
	d, err := m.fs.Open(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	defer d.Close()

	policy, err := d.GetPolicy()
	if err != nil {
		return false, err
	}
	return policy == nil || policy.KeyDescriptor.Hex() != c.Descriptor, nil
}

func (m *Manager) begin(ctx context.Context, op, dir string) (context.Context, *events.Logger) {
	ctx = events.WithLogger(ctx, m.logger.WithField("op", op))
	ctx = events.WithOperationID(ctx)
	if dir != "" {
		ctx = events.WithDirectory(ctx, dir)
	}
	return ctx, events.FromContext(ctx)
}

// registerKey prompts for the passphrase, derives the key for the policy's
// contents mode and adds it to the keyring. Secrets are wiped on return.
func (m *Manager) registerKey(logger *events.Logger, policy *models.EncryptionPolicy, confirm bool) (int, error) {
	pass, err := m.prompter.Passphrase(passphrase.EnterPrompt, confirm)
	if err != nil {
		return 0, err
	}
	defer pass.Zero()

	key, err := m.deriver.DeriveKey(pass, policy.ContentsMode)
	if err != nil {
		return 0, err
	}
	defer key.Zero()

	serial, err := m.keys.Add(policy.KeyDescriptor, key)
	if err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"descriptor": policy.KeyDescriptor.Hex(),
		"serial":     serial,
	}).Debug("Key registered")

	return serial, nil
}

func (m *Manager) report(ctx context.Context, d ext4.Dir, dir string) (*Report, error) {
	logger := events.FromContext(ctx)

	policy, err := d.GetPolicy()
	if err != nil {
		return nil, err
	}

	r := newReport(dir, policy)
	if policy != nil {
		serial, found, err := m.keys.Find(policy.KeyDescriptor)
		if err != nil {
			return nil, err
		}
		r.KeyPresent = found
		r.KeySerial = serial
	}

	if m.mounts != nil {
		mount, err := m.mounts(dir)
		if err != nil {
			logger.WithError(err).Debug("Mount lookup failed")
		} else {
			r.Mount = mount
		}
	}

	return r, nil
}

// record updates the registry entry for dir. update receives the stored
// record, or one holding only the path when none exists, and returns the
// record to save or nil to skip. Registry failures never fail the
// operation.
func (m *Manager) record(logger *events.Logger, dir string, update func(*models.Container) *models.Container) {
	if m.store == nil {
		return
	}

	path, err := filepath.Abs(dir)
	if err != nil {
		logger.WithError(err).Warn("Cannot resolve directory for state")
		return
	}

	current, err := m.store.Load(path)
	switch {
	case errors.Is(err, state.ErrStateNotFound):
		current = &models.Container{Path: path}
	case err != nil:
		logger.WithError(err).Warn("Failed to load state")
		current = &models.Container{Path: path}
	}

	next := update(current)
	if next == nil {
		return
	}
	if err := m.store.Save(next); err != nil {
		logger.WithError(err).Warn("Failed to save state")
	}
}
