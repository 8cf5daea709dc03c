// Package crypto implements password-based key derivation used by the vault.
package crypto

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"

	"github.com/pkg/errors"
)

// Names of supported PBKDF2 hash primitives.
const (
	SHA1   = "SHA-1"
	SHA256 = "SHA-256"
	SHA384 = "SHA-384"
	SHA512 = "SHA-512"

	// DefaultHash is the hash used for new vaults.
	DefaultHash = SHA256
)

// ErrInvalidKeyDerivationInput is returned when key derivation parameters cannot produce a key.
var ErrInvalidKeyDerivationInput = errors.New("invalid key derivation input")

//nolint:gochecknoglobals
var hashes = map[string]func() hash.Hash{}

// RegisterHash registers a hash primitive usable for key derivation.
func RegisterHash(name string, newHash func() hash.Hash) {
	hashes[name] = newHash
}

// SupportedHashes returns the names of registered hash primitives.
func SupportedHashes() []string {
	var result []string

	for k := range hashes {
		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

func lookupHash(name string) (func() hash.Hash, error) {
	h := hashes[name]
	if h == nil {
		return nil, errors.Wrapf(ErrInvalidKeyDerivationInput, "unsupported hash: %q", name)
	}

	return h, nil
}

func init() {
	RegisterHash(SHA1, sha1.New)
	RegisterHash(SHA256, sha256.New)
	RegisterHash(SHA384, sha512.New384)
	RegisterHash(SHA512, sha512.New)
}
