// Package passwordpersist manages persistence of vault passwords between invocations.
package passwordpersist

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault/logging"
)

// ErrPasswordNotFound is returned when a password cannot be found in a persistent storage.
var ErrPasswordNotFound = errors.New("password not found")

// ErrUnsupported is returned when a password storage is not supported.
var ErrUnsupported = errors.New("password storage not supported")

var log = logging.Module("passwordpersist")

// Strategy encapsulates persisting and fetching passwords.
type Strategy interface {
	// GetPassword gets persisted password of a vault, returns ErrPasswordNotFound or fatal errors.
	GetPassword(ctx context.Context, vaultFile string) (string, error)

	// PersistPassword persists a password of a vault, returns ErrUnsupported or fatal errors.
	PersistPassword(ctx context.Context, vaultFile, password string) error

	// DeletePassword deletes any persisted password of a vault, returns fatal errors.
	DeletePassword(ctx context.Context, vaultFile string) error
}

// OnSuccess is a helper that persists the given (vaultFile,password) if the provided err is nil
// and deletes any persisted password otherwise.
func OnSuccess(ctx context.Context, err error, s Strategy, vaultFile, password string) error {
	if err != nil {
		if err2 := s.DeletePassword(ctx, vaultFile); err2 != nil {
			log(ctx).Infof("unable to delete persistent password: %v", err2)
		}

		return err
	}

	return errors.Wrap(s.PersistPassword(ctx, vaultFile, password), "unable to persist password")
}
