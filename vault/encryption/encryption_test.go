package encryption_test

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tinyvault/tinyvault/vault/encryption"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)

	return b
}

func TestRoundTrip(t *testing.T) {
	iv1 := randomBytes(t, encryption.IVSize)
	iv2 := randomBytes(t, encryption.IVSize)

	for _, keySize := range []int{16, 24, 32} {
		key := randomBytes(t, keySize)

		for _, algo := range encryption.SupportedAlgorithms(false) {
			for _, dataLen := range []int{0, 1, 15, 16, 17, 100, 200} {
				data := randomBytes(t, dataLen)

				e, err := encryption.CreateEncryptor(algo, key)
				require.NoError(t, err)

				cipherText1, err := e.Encrypt(data, iv1)
				require.NoError(t, err, algo)

				plainText1, err := e.Decrypt(cipherText1, iv1)
				require.NoError(t, err, algo)
				require.True(t, bytes.Equal(data, plainText1), "%v does not round-trip %v bytes", algo, dataLen)

				if dataLen < 16 {
					continue
				}

				cipherText2, err := e.Encrypt(data, iv2)
				require.NoError(t, err)
				require.NotEqual(t, cipherText1, cipherText2, "ciphertexts should differ for different IVs")
			}
		}
	}
}

func TestSupportedAlgorithms(t *testing.T) {
	require.Equal(t, []string{"AES-CBC", "AES-CTR", "AES-GCM"}, encryption.SupportedAlgorithms(false))
	require.Equal(t, []string{"AES-CBC", "AES-GCM"}, encryption.SupportedAlgorithms(true))
	require.NotEmpty(t, encryption.Description(encryption.AES_GCM))
	require.Empty(t, encryption.Description("no-such-algorithm"))
}

func TestCreateEncryptorErrors(t *testing.T) {
	_, err := encryption.CreateEncryptor("no-such-algorithm", make([]byte, 32))
	require.ErrorContains(t, err, "unknown encryption algorithm")

	_, err = encryption.CreateEncryptor(encryption.AES_CBC, make([]byte, 20))
	require.Error(t, err)
}

func TestInvalidIV(t *testing.T) {
	for _, algo := range encryption.SupportedAlgorithms(false) {
		e, err := encryption.CreateEncryptor(algo, make([]byte, 32))
		require.NoError(t, err)

		_, err = e.Encrypt([]byte("data"), make([]byte, 12))
		require.ErrorContains(t, err, "invalid IV length", algo)

		_, err = e.Decrypt([]byte("data"), nil)
		require.ErrorContains(t, err, "invalid IV length", algo)
	}
}

// Test vectors from NIST SP 800-38A, F.2.1 and F.5.1.
func TestKnownVectors(t *testing.T) {
	key := mustDecodeHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	plainText := mustDecodeHex(t, "6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51")

	t.Run("CBC", func(t *testing.T) {
		e, err := encryption.CreateEncryptor(encryption.AES_CBC, key)
		require.NoError(t, err)

		ct, err := e.Encrypt(plainText, mustDecodeHex(t, "000102030405060708090a0b0c0d0e0f"))
		require.NoError(t, err)
		require.Len(t, ct, 48)
		require.Equal(t, "7649abac8119b246cee98e9b12e9197d5086cb9b507219ee95db113a917678b2", hex.EncodeToString(ct[:32]))
	})

	t.Run("CTR", func(t *testing.T) {
		e, err := encryption.CreateEncryptor(encryption.AES_CTR, key)
		require.NoError(t, err)

		ct, err := e.Encrypt(plainText, mustDecodeHex(t, "f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff"))
		require.NoError(t, err)
		require.Equal(t, "874d6191b620e3261bef6864990db6ce9806f66b7970fdff8617187bb9fffdff", hex.EncodeToString(ct))
	})
}

func TestCTRCounterWrapsWithinDataLengthBits(t *testing.T) {
	key := randomBytes(t, 32)

	// 17 bytes of data use a 17-bit counter; with all of those bits set, the second block
	// must wrap to zero without carrying into bit 17.
	iv := mustDecodeHex(t, "000000000000000000000000ff01ffff")
	wrapped := mustDecodeHex(t, "000000000000000000000000ff000000")

	blk, err := aes.NewCipher(key)
	require.NoError(t, err)

	ks0 := make([]byte, 16)
	ks1 := make([]byte, 16)
	blk.Encrypt(ks0, iv)
	blk.Encrypt(ks1, wrapped)

	e, err := encryption.CreateEncryptor(encryption.AES_CTR, key)
	require.NoError(t, err)

	ct, err := e.Encrypt(make([]byte, 17), iv)
	require.NoError(t, err)
	require.Equal(t, ks0, ct[:16])
	require.Equal(t, ks1[:1], ct[16:])
}

func TestCTRIsLengthPreserving(t *testing.T) {
	e, err := encryption.CreateEncryptor(encryption.AES_CTR, randomBytes(t, 32))
	require.NoError(t, err)
	require.False(t, e.IsAuthenticated())

	for _, n := range []int{1, 6, 33, 129, 300} {
		ct, err := e.Encrypt(randomBytes(t, n), randomBytes(t, 16))
		require.NoError(t, err)
		require.Len(t, ct, n)
	}
}

func TestCounterBits(t *testing.T) {
	require.Equal(t, 1, encryption.CounterBits(0))
	require.Equal(t, 1, encryption.CounterBits(1))
	require.Equal(t, 6, encryption.CounterBits(6))
	require.Equal(t, 128, encryption.CounterBits(128))
	require.Equal(t, 128, encryption.CounterBits(500))
}

func TestTamperedCiphertext(t *testing.T) {
	key := randomBytes(t, 32)
	iv := randomBytes(t, 16)

	t.Run("GCMDetectsTampering", func(t *testing.T) {
		e, err := encryption.CreateEncryptor(encryption.AES_GCM, key)
		require.NoError(t, err)
		require.True(t, e.IsAuthenticated())

		ct, err := e.Encrypt([]byte("example.com"), iv)
		require.NoError(t, err)

		ct[0] ^= 1

		_, err = e.Decrypt(ct, iv)
		require.True(t, errors.Is(err, encryption.ErrDecryptionFailed))
	})

	t.Run("CTRDecryptsToGarbage", func(t *testing.T) {
		e, err := encryption.CreateEncryptor(encryption.AES_CTR, key)
		require.NoError(t, err)

		ct, err := e.Encrypt([]byte("s3cr3t"), iv)
		require.NoError(t, err)

		ct[0] ^= 1

		pt, err := e.Decrypt(ct, iv)
		require.NoError(t, err)
		require.NotEqual(t, []byte("s3cr3t"), pt)
	})

	t.Run("CBCRejectsBadLength", func(t *testing.T) {
		e, err := encryption.CreateEncryptor(encryption.AES_CBC, key)
		require.NoError(t, err)

		_, err = e.Decrypt(make([]byte, 15), iv)
		require.True(t, errors.Is(err, encryption.ErrDecryptionFailed))

		_, err = e.Decrypt(nil, iv)
		require.True(t, errors.Is(err, encryption.ErrDecryptionFailed))
	})
}
