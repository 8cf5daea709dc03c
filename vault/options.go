package vault

import (
	"crypto/rand"
	"io"
	"runtime"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/crypto"
	"github.com/tinyvault/tinyvault/internal/metrics"
	"github.com/tinyvault/tinyvault/vault/encryption"
)

// Default cryptographic parameters, which match vaults created by earlier versions of the tool.
const (
	DefaultIterations = crypto.DefaultIterations
	DefaultKeyBits    = 256
	DefaultMode       = encryption.DefaultBlockMode
	DefaultHash       = crypto.DefaultHash

	// PassMode always encrypts the password field, independent of Mode.
	PassMode = encryption.AES_CTR
)

// Options provides configuration parameters for the Engine.
//
// Mode and Hash are not recorded in the vault itself, so the values used when a vault
// is generated must be supplied for every later operation on that vault.
type Options struct {
	Iterations int    `json:"iterations,omitempty"`
	KeyBits    int    `json:"keyBits,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Hash       string `json:"hash,omitempty"`

	// Rand provides randomness for identifiers, salts, seeds and peppers. Defaults to crypto/rand.
	Rand io.Reader `json:"-"`

	// Metrics receives operation metrics, may be nil.
	Metrics *metrics.Registry `json:"-"`

	// Concurrency limits the number of records decrypted in parallel. Defaults to the number of CPUs.
	Concurrency int `json:"-"`
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Iterations: DefaultIterations,
		KeyBits:    DefaultKeyBits,
		Mode:       DefaultMode,
		Hash:       DefaultHash,
	}
}

func (o Options) withDefaults() Options {
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}

	if o.KeyBits == 0 {
		o.KeyBits = DefaultKeyBits
	}

	if o.Mode == "" {
		o.Mode = DefaultMode
	}

	if o.Hash == "" {
		o.Hash = DefaultHash
	}

	if o.Rand == nil {
		o.Rand = rand.Reader
	}

	if o.Concurrency <= 0 {
		o.Concurrency = runtime.NumCPU()
	}

	return o
}

func (o Options) validate() error {
	if o.Iterations < 1 {
		return errors.Errorf("invalid iteration count %v", o.Iterations)
	}

	switch o.KeyBits {
	case 128, 192, 256: //nolint:mnd
	default:
		return errors.Errorf("unsupported key size %v bits, must be 128, 192 or 256", o.KeyBits)
	}

	if !isVaultWideMode(o.Mode) {
		return errors.Errorf("unsupported block mode %q, supported: %v", o.Mode, encryption.SupportedAlgorithms(true))
	}

	if !isSupportedHash(o.Hash) {
		return errors.Errorf("unsupported hash %q, supported: %v", o.Hash, crypto.SupportedHashes())
	}

	return nil
}

func isVaultWideMode(mode string) bool {
	for _, m := range encryption.SupportedAlgorithms(true) {
		if m == mode {
			return true
		}
	}

	return false
}

func isSupportedHash(h string) bool {
	for _, s := range crypto.SupportedHashes() {
		if s == h {
			return true
		}
	}

	return false
}
