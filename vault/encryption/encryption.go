// Package encryption manages the symmetric cipher modes used to encrypt vault fields.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"sort"

	"github.com/pkg/errors"
)

// Encryptor performs encryption and decryption of a single field value.
type Encryptor interface {
	// Encrypt returns encrypted bytes corresponding to the given plaintext using the provided IV.
	// Must not clobber the input slice.
	Encrypt(plainText, iv []byte) ([]byte, error)

	// Decrypt returns unencrypted bytes corresponding to the given ciphertext.
	// Must not clobber the input slice. If IsAuthenticated() == true, Decrypt will perform
	// authenticity check before decrypting.
	Decrypt(cipherText, iv []byte) ([]byte, error)

	// IsAuthenticated returns true if encryption is authenticated.
	IsAuthenticated() bool
}

// EncryptorFactory creates new Encryptor for a given key.
type EncryptorFactory func(key []byte) (Encryptor, error)

// Names of supported algorithms.
const (
	AES_CBC = "AES-CBC" //nolint:revive
	AES_GCM = "AES-GCM" //nolint:revive
	AES_CTR = "AES-CTR" //nolint:revive
)

// DefaultBlockMode is the vault-wide mode used for new vaults.
const DefaultBlockMode = AES_CBC

// IVSize is the size of the IV or initial counter block expected by all encryptors.
const IVSize = aes.BlockSize

// ErrDecryptionFailed is returned when ciphertext cannot be decrypted with the given key and IV.
var ErrDecryptionFailed = errors.New("decryption failed")

type encryptorInfo struct {
	description  string
	vaultWide    bool
	newEncryptor EncryptorFactory
}

//nolint:gochecknoglobals
var encryptors = map[string]*encryptorInfo{}

// Register registers new encryption algorithm. Algorithms registered with vaultWide == true
// may be selected as the vault-wide block mode.
func Register(name, description string, vaultWide bool, newEncryptor EncryptorFactory) {
	encryptors[name] = &encryptorInfo{
		description,
		vaultWide,
		newEncryptor,
	}
}

// CreateEncryptor creates an Encryptor for given algorithm and key.
func CreateEncryptor(algorithm string, key []byte) (Encryptor, error) {
	e := encryptors[algorithm]
	if e == nil {
		return nil, errors.Errorf("unknown encryption algorithm: %v", algorithm)
	}

	return e.newEncryptor(key)
}

// SupportedAlgorithms returns the names of the supported encryption methods.
func SupportedAlgorithms(vaultWideOnly bool) []string {
	var result []string

	for k, e := range encryptors {
		if vaultWideOnly && !e.vaultWide {
			continue
		}

		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

// Description returns human-readable description of the algorithm.
func Description(algorithm string) string {
	if e := encryptors[algorithm]; e != nil {
		return e.description
	}

	return ""
}

func newAESBlock(key []byte) (cipher.Block, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create AES cipher with %v-bit key", len(key)*8) //nolint:mnd
	}

	return blk, nil
}

func checkIV(iv []byte) error {
	if len(iv) != IVSize {
		return errors.Errorf("invalid IV length %v, expected %v", len(iv), IVSize)
	}

	return nil
}
