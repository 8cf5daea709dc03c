// Package storage persists vaults in local files.
//
// Every access to a vault file is guarded by an advisory lock on a sibling ".lock" file,
// and writes replace the file atomically, so concurrent commands never observe or
// produce a partially written vault.
package storage

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/atomicfile"
	"github.com/tinyvault/tinyvault/internal/config"
	"github.com/tinyvault/tinyvault/vault/format"
	"github.com/tinyvault/tinyvault/vault/logging"
)

var log = logging.Module("vault/storage")

const (
	lockFileSuffix = ".lock"

	defaultLockRetryDelay = 50 * time.Millisecond
)

var (
	// ErrNotFound is returned when the vault file does not exist.
	ErrNotFound = errors.New("vault not found")

	// ErrAlreadyExists is returned when creating a vault over an existing file without overwrite.
	ErrAlreadyExists = errors.New("vault already exists")
)

// UpdateFunc computes the new state of a vault from the current one.
// Returning an error leaves the file untouched.
type UpdateFunc func(v *format.Vault) (*format.Vault, error)

// Storage provides access to a single vault file.
type Storage struct {
	path string

	// LockRetryDelay is the delay between attempts to acquire the lock.
	LockRetryDelay time.Duration
}

// New returns Storage for the vault at the provided path.
func New(path string) *Storage {
	return &Storage{path: path, LockRetryDelay: defaultLockRetryDelay}
}

// Path returns the path of the vault file.
func (s *Storage) Path() string {
	return s.path
}

// ConfigPath returns the path of the parameters file of the vault.
func (s *Storage) ConfigPath() string {
	return config.FileName(s.path)
}

// LockPath returns the path of the lock file of the vault.
func (s *Storage) LockPath() string {
	return s.path + lockFileSuffix
}

// Exists determines whether the vault file exists.
func (s *Storage) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, errors.Wrap(err, "unable to stat vault file")
}

func (s *Storage) lock(ctx context.Context, exclusive bool) (*flock.Flock, error) {
	fl := flock.New(s.LockPath())

	var (
		ok  bool
		err error
	)

	if exclusive {
		ok, err = fl.TryLockContext(ctx, s.LockRetryDelay)
	} else {
		ok, err = fl.TryRLockContext(ctx, s.LockRetryDelay)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to lock %v", s.LockPath())
	}

	if !ok {
		return nil, errors.Errorf("unable to lock %v", s.LockPath())
	}

	log(ctx).Debugw("acquired lock", "path", s.LockPath(), "exclusive", exclusive)

	return fl, nil
}

func unlock(ctx context.Context, fl *flock.Flock) {
	if err := fl.Unlock(); err != nil {
		log(ctx).Errorf("unable to release lock %v: %v", fl.Path(), err)
	}
}

func (s *Storage) read(ctx context.Context) (*format.Vault, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%v", s.path)
		}

		return nil, errors.Wrap(err, "unable to read vault file")
	}

	v, err := format.Unmarshal(b)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %v", s.path)
	}

	if err := s.checkConfig(v); err != nil {
		return nil, err
	}

	log(ctx).Debugw("read vault", "path", s.path, "id", v.IDString(), "records", len(v.Records), "bytes", len(b))

	return v, nil
}

func (s *Storage) write(ctx context.Context, v *format.Vault) error {
	b, err := format.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "unable to serialize vault")
	}

	if err := atomicfile.WriteBytes(s.path, b); err != nil {
		return err
	}

	log(ctx).Debugw("wrote vault", "path", s.path, "id", v.IDString(), "records", len(v.Records), "bytes", len(b))

	return nil
}

// Load reads the vault while holding a shared lock.
func (s *Storage) Load(ctx context.Context) (*format.Vault, error) {
	fl, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}

	defer unlock(ctx, fl)

	return s.read(ctx)
}

// Create writes a newly generated vault together with its parameters file.
// Unless overwrite is set, an existing vault file is never replaced.
func (s *Storage) Create(ctx context.Context, v *format.Vault, lc *config.LocalConfig, overwrite bool) error {
	fl, err := s.lock(ctx, true)
	if err != nil {
		return err
	}

	defer unlock(ctx, fl)

	exists, err := s.Exists()
	if err != nil {
		return err
	}

	if exists && !overwrite {
		return errors.Wrapf(ErrAlreadyExists, "%v", s.path)
	}

	var previous []byte

	if exists {
		if previous, err = os.ReadFile(s.path); err != nil {
			return errors.Wrap(err, "unable to read existing vault file")
		}
	}

	// the vault goes first so that a failed write never leaves new parameters next to the old vault
	if err := s.write(ctx, v); err != nil {
		return err
	}

	if lc == nil {
		if err := os.Remove(s.ConfigPath()); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "unable to remove stale vault parameters")
		}

		return nil
	}

	if err := lc.SaveToFile(s.ConfigPath()); err != nil {
		s.restore(ctx, previous)

		return errors.Wrap(err, "unable to write vault parameters")
	}

	return nil
}

// restore puts back the vault file contents that existed before a failed Create.
func (s *Storage) restore(ctx context.Context, previous []byte) {
	var err error

	if previous == nil {
		err = os.Remove(s.path)
	} else {
		err = atomicfile.WriteBytes(s.path, previous)
	}

	if err != nil {
		log(ctx).Errorf("unable to roll back %v: %v", s.path, err)
	}
}

// Update performs read-modify-write of the vault while holding an exclusive lock.
// The file is rewritten only if fn succeeds.
func (s *Storage) Update(ctx context.Context, fn UpdateFunc) (*format.Vault, error) {
	fl, err := s.lock(ctx, true)
	if err != nil {
		return nil, err
	}

	defer unlock(ctx, fl)

	v, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	nv, err := fn(v)
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, nv); err != nil {
		return nil, err
	}

	return nv, nil
}

// checkConfig verifies that the parameters file, if any, was written for v.
func (s *Storage) checkConfig(v *format.Vault) error {
	lc, err := s.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "unable to read vault parameters")
	}

	if lc == nil || lc.VaultID == "" {
		return nil
	}

	if lc.VaultID != v.IDString() {
		return errors.Wrapf(format.ErrCorrupt, "parameters file %v belongs to vault %v, not %v", s.ConfigPath(), lc.VaultID, v.IDString())
	}

	return nil
}

// LoadConfig reads the parameters file of the vault. It returns nil without error if the
// file does not exist, in which case default parameters apply.
func (s *Storage) LoadConfig() (*config.LocalConfig, error) {
	lc, err := config.LoadFromFile(s.ConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil //nolint:nilnil
		}

		return nil, err
	}

	return lc, nil
}
