package encryption

import (
	"bytes"
	"crypto/cipher"

	"github.com/pkg/errors"
)

// cbcEncryptor implements AES in CBC mode with PKCS#7 padding.
type cbcEncryptor struct {
	block cipher.Block
}

func (e cbcEncryptor) Encrypt(plainText, iv []byte) ([]byte, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}

	bs := e.block.BlockSize()
	padLen := bs - len(plainText)%bs

	result := make([]byte, len(plainText)+padLen)
	copy(result, plainText)
	copy(result[len(plainText):], bytes.Repeat([]byte{byte(padLen)}, padLen))

	cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(result, result)

	return result, nil
}

func (e cbcEncryptor) Decrypt(cipherText, iv []byte) ([]byte, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}

	bs := e.block.BlockSize()
	if len(cipherText) == 0 || len(cipherText)%bs != 0 {
		return nil, errors.Wrapf(ErrDecryptionFailed, "ciphertext length %v is not a multiple of block size", len(cipherText))
	}

	result := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(result, cipherText)

	padLen := int(result[len(result)-1])
	if padLen == 0 || padLen > bs {
		return nil, errors.Wrap(ErrDecryptionFailed, "invalid padding")
	}

	for _, b := range result[len(result)-padLen:] {
		if int(b) != padLen {
			return nil, errors.Wrap(ErrDecryptionFailed, "invalid padding")
		}
	}

	return result[:len(result)-padLen], nil
}

func (e cbcEncryptor) IsAuthenticated() bool {
	return false
}

func init() {
	Register(AES_CBC, "AES in CBC mode with PKCS#7 padding", true, func(key []byte) (Encryptor, error) {
		blk, err := newAESBlock(key)
		if err != nil {
			return nil, err
		}

		return cbcEncryptor{blk}, nil
	})
}
