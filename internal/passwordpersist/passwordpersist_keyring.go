package passwordpersist

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const keyringService = "tinyvault"

// Keyring is a Strategy that persists the password in the OS-specific keyring.
func Keyring() Strategy {
	return keyringStrategy{}
}

type keyringStrategy struct{}

func (keyringStrategy) GetPassword(ctx context.Context, vaultFile string) (string, error) {
	pass, err := keyring.Get(getKeyringItemID(vaultFile), keyringUsername(ctx))

	switch {
	case err == nil:
		log(ctx).Debugf("password for %v retrieved from OS keyring", vaultFile)
		return pass, nil

	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrPasswordNotFound

	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return "", ErrPasswordNotFound

	default:
		return "", errors.Wrap(err, "error retrieving password from OS keyring")
	}
}

func (keyringStrategy) PersistPassword(ctx context.Context, vaultFile, password string) error {
	log(ctx).Debug("saving password to OS keyring...")

	err := keyring.Set(getKeyringItemID(vaultFile), keyringUsername(ctx), password)

	switch {
	case err == nil:
		log(ctx).Debug("saved password in OS keyring")
		return nil

	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return ErrUnsupported

	default:
		return errors.Wrap(err, "error saving password in key ring")
	}
}

func (keyringStrategy) DeletePassword(ctx context.Context, vaultFile string) error {
	err := keyring.Delete(getKeyringItemID(vaultFile), keyringUsername(ctx))

	switch {
	case err == nil:
		log(ctx).Infof("deleted vault password for %v", vaultFile)
		return nil

	case errors.Is(err, keyring.ErrNotFound), errors.Is(err, keyring.ErrUnsupportedPlatform):
		return nil

	default:
		return errors.Wrapf(err, "unable to delete keyring item %v", getKeyringItemID(vaultFile))
	}
}

// getKeyringItemID returns a keyring item name unique to the vault file path.
func getKeyringItemID(vaultFile string) string {
	if abs, err := filepath.Abs(vaultFile); err == nil {
		vaultFile = abs
	}

	h := sha256.Sum256([]byte(vaultFile))

	return fmt.Sprintf("%v-%v-%x", keyringService, filepath.Base(vaultFile), h[0:8])
}

func keyringUsername(ctx context.Context) string {
	currentUser, err := user.Current()
	if err != nil {
		log(ctx).Errorf("Cannot determine keyring username: %s", err)
		return "nobody"
	}

	u := currentUser.Username

	if runtime.GOOS == "windows" {
		if p := strings.Index(u, "\\"); p >= 0 {
			// On Windows ignore domain name.
			u = u[p+1:]
		}
	}

	return u
}
