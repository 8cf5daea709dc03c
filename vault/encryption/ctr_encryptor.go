package encryption

import (
	"crypto/cipher"
	"encoding/binary"
	"math/bits"
)

const maxCounterBits = 128

// ctrEncryptor implements AES in CTR mode where only the rightmost n bits of the counter block
// are incremented, n being the length of the data in bytes clamped to [1,128].
// With n == 128 this is the standard CTR construction.
type ctrEncryptor struct {
	block cipher.Block
}

func (e ctrEncryptor) Encrypt(plainText, iv []byte) ([]byte, error) {
	return e.xorKeyStream(plainText, iv)
}

func (e ctrEncryptor) Decrypt(cipherText, iv []byte) ([]byte, error) {
	return e.xorKeyStream(cipherText, iv)
}

func (e ctrEncryptor) IsAuthenticated() bool {
	return false
}

func (e ctrEncryptor) xorKeyStream(input, iv []byte) ([]byte, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}

	width := CounterBits(len(input))
	result := make([]byte, len(input))
	keyStream := make([]byte, IVSize)
	counter := make([]byte, IVSize)

	for blk := 0; blk*IVSize < len(input); blk++ {
		counterBlock(counter, iv, width, uint64(blk))
		e.block.Encrypt(keyStream, counter)

		chunk := input[blk*IVSize:]
		out := result[blk*IVSize:]

		for i := 0; i < IVSize && i < len(chunk); i++ {
			out[i] = chunk[i] ^ keyStream[i]
		}
	}

	return result, nil
}

// CounterBits returns the number of counter bits used for data of a given length.
func CounterBits(dataLength int) int {
	switch {
	case dataLength < 1:
		return 1
	case dataLength > maxCounterBits:
		return maxCounterBits
	default:
		return dataLength
	}
}

// counterBlock writes into dst the counter block for block index n: the rightmost width bits
// of iv incremented by n modulo 2^width, the remaining bits unchanged.
func counterBlock(dst, iv []byte, width int, n uint64) {
	hi := binary.BigEndian.Uint64(iv[0:8])
	lo := binary.BigEndian.Uint64(iv[8:16])

	var maskHi, maskLo uint64

	switch {
	case width >= 128: //nolint:mnd
		maskHi, maskLo = ^uint64(0), ^uint64(0)
	case width > 64: //nolint:mnd
		maskHi, maskLo = (uint64(1)<<(width-64))-1, ^uint64(0)
	case width == 64: //nolint:mnd
		maskLo = ^uint64(0)
	default:
		maskLo = (uint64(1) << width) - 1
	}

	cLo, carry := bits.Add64(lo&maskLo, n, 0)
	cHi := (hi & maskHi) + carry

	lo = lo&^maskLo | cLo&maskLo
	hi = hi&^maskHi | cHi&maskHi

	binary.BigEndian.PutUint64(dst[0:8], hi)
	binary.BigEndian.PutUint64(dst[8:16], lo)
}

func init() {
	Register(AES_CTR, "AES in CTR mode with length-sized counter", false, func(key []byte) (Encryptor, error) {
		blk, err := newAESBlock(key)
		if err != nil {
			return nil, err
		}

		return ctrEncryptor{blk}, nil
	})
}
