package vault

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/crypto"
)

// fieldIVBits is the size of derived per-field IVs and initial counter blocks.
const fieldIVBits = 128

// fieldOffset selects which record field an IV is derived for. The offset is added to the
// iteration count so that each field of a record gets a distinct IV from the same pepper.
type fieldOffset int

const (
	fieldExtra fieldOffset = iota
	fieldUser
	fieldPass
)

func (f fieldOffset) String() string {
	switch f {
	case fieldExtra:
		return "extra"
	case fieldUser:
		return "user"
	case fieldPass:
		return "pass"
	default:
		return "field-" + strconv.Itoa(int(f))
	}
}

// seedPassphrase renders the plaintext seed as the key derivation password, which is its
// comma-separated decimal byte values (e.g. "12,0,255").
func seedPassphrase(seed []byte) []byte {
	var sb strings.Builder

	for i, b := range seed {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(strconv.Itoa(int(b)))
	}

	return []byte(sb.String())
}

// deriveFieldIV derives the IV for a single record field from the seed and record pepper.
func deriveFieldIV(seedPass, pepper []byte, iterations int, hashName string, f fieldOffset) ([]byte, error) {
	iv, err := crypto.DeriveKey(seedPass, pepper, iterations+int(f), fieldIVBits, hashName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to derive %v IV", f)
	}

	return iv, nil
}
