package encryption

import (
	"crypto/cipher"

	"github.com/pkg/errors"
)

// gcmEncryptor implements AES-GCM with the full 16-byte IV used as nonce and a 128-bit tag appended
// to the ciphertext.
type gcmEncryptor struct {
	aead cipher.AEAD
}

func (e gcmEncryptor) Encrypt(plainText, iv []byte) ([]byte, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}

	return e.aead.Seal(nil, iv, plainText, nil), nil
}

func (e gcmEncryptor) Decrypt(cipherText, iv []byte) ([]byte, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}

	if len(cipherText) < e.aead.Overhead() {
		return nil, errors.Wrap(ErrDecryptionFailed, "ciphertext too short")
	}

	plainText, err := e.aead.Open(nil, iv, cipherText, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecryptionFailed, "message authentication failed")
	}

	return plainText, nil
}

func (e gcmEncryptor) IsAuthenticated() bool {
	return true
}

func init() {
	Register(AES_GCM, "AES in GCM mode with 128-bit tag", true, func(key []byte) (Encryptor, error) {
		blk, err := newAESBlock(key)
		if err != nil {
			return nil, err
		}

		aead, err := cipher.NewGCMWithNonceSize(blk, IVSize)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create GCM")
		}

		return gcmEncryptor{aead}, nil
	})
}
