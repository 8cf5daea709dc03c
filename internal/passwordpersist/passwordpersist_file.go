package passwordpersist

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/pkg/errors"
)

// File is a Strategy that persists the base64-encoded password in a file next to the vault file.
func File() Strategy {
	return filePasswordStorage{}
}

const passwordFileMode = 0o600

type filePasswordStorage struct{}

func (filePasswordStorage) GetPassword(ctx context.Context, vaultFile string) (string, error) {
	b, err := os.ReadFile(passwordFileName(vaultFile))
	if os.IsNotExist(err) {
		return "", ErrPasswordNotFound
	}

	if err != nil {
		return "", errors.Wrap(err, "error reading persisted password")
	}

	s, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return "", errors.Wrap(err, "error invalid persisted password")
	}

	log(ctx).Debugf("password for %v retrieved from password file", vaultFile)

	return string(s), nil
}

func (filePasswordStorage) PersistPassword(ctx context.Context, vaultFile, password string) error {
	fn := passwordFileName(vaultFile)
	log(ctx).Debugf("saving password to file %v", fn)

	if err := os.WriteFile(fn, []byte(base64.StdEncoding.EncodeToString([]byte(password))), passwordFileMode); err != nil {
		return errors.Wrap(err, "error writing password file")
	}

	return nil
}

func (filePasswordStorage) DeletePassword(ctx context.Context, vaultFile string) error {
	err := os.Remove(passwordFileName(vaultFile))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error deleting password file")
	}

	return nil
}

func passwordFileName(vaultFile string) string {
	return vaultFile + ".tinyvault-password"
}
