package vault

import (
	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault/format"
)

// Error categories returned by vault operations. Use errors.Is to test for them.
var (
	// ErrInvalidInput is returned for missing or malformed operation arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecryption is returned when the seed or a record field cannot be decrypted.
	ErrDecryption = errors.New("decryption failed")

	// ErrInvalidPassword is returned when the password does not unlock the vault.
	// It is also an ErrDecryption since a wrong password and a damaged seed are indistinguishable.
	ErrInvalidPassword = errors.Wrap(ErrDecryption, "invalid vault password")

	// ErrCorrupt is returned when the vault structure is malformed.
	ErrCorrupt = format.ErrCorrupt
)
