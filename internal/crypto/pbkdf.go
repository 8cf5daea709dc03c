package crypto

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 iteration count for new vaults.
const DefaultIterations = 100000

// DeriveKey derives keyBits bits from the password and salt using PBKDF2 with the named hash.
func DeriveKey(password, salt []byte, iterations, keyBits int, hashName string) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.Wrap(ErrInvalidKeyDerivationInput, "empty password")
	}

	if iterations <= 0 {
		return nil, errors.Wrapf(ErrInvalidKeyDerivationInput, "invalid iteration count %v", iterations)
	}

	if keyBits <= 0 || keyBits%8 != 0 {
		return nil, errors.Wrapf(ErrInvalidKeyDerivationInput, "invalid key size %v bits", keyBits)
	}

	h, err := lookupHash(hashName)
	if err != nil {
		return nil, err
	}

	return pbkdf2.Key(password, salt, iterations, keyBits/8, h), nil //nolint:mnd
}

// Wipe overwrites the contents of b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
