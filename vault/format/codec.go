package format

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"

	"github.com/tinyvault/tinyvault/internal/hexcodec"
)

// ErrCorrupt is returned when a serialized vault is malformed.
var ErrCorrupt = errors.New("corrupt vault structure")

// Wire tags of vault fields.
const (
	tagID      = "0"
	tagIV      = "1"
	tagSalt    = "2"
	tagSeed    = "3"
	tagRecords = "4"
)

// Wire tags of record fields.
const (
	tagPepper = "5"
	tagExtra  = "6"
	tagUser   = "7"
	tagPass   = "8"
)

const (
	vaultFieldCount  = 5
	recordFieldCount = 4
)

// Marshal serializes the vault.
func Marshal(v *Vault) ([]byte, error) {
	if v == nil {
		return nil, errors.Wrap(ErrCorrupt, "nil vault")
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	b := msgp.AppendMapHeader(nil, vaultFieldCount)
	b = appendHexField(b, tagID, v.ID)
	b = appendHexField(b, tagIV, v.IV)
	b = appendHexField(b, tagSalt, v.Salt)
	b = appendHexField(b, tagSeed, v.Seed)

	b = msgp.AppendString(b, tagRecords)
	b = msgp.AppendArrayHeader(b, uint32(len(v.Records))) //nolint:gosec

	for _, r := range v.Records {
		b = msgp.AppendMapHeader(b, recordFieldCount)
		b = appendHexField(b, tagPepper, r.Pepper)
		b = appendHexField(b, tagExtra, r.Extra)
		b = appendHexField(b, tagUser, r.User)
		b = appendHexField(b, tagPass, r.Pass)
	}

	return b, nil
}

// Unmarshal parses a serialized vault. Unknown fields are ignored.
func Unmarshal(b []byte) (*Vault, error) {
	v := &Vault{}

	sz, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "vault is not a map: %v", err)
	}

	seen := map[string]bool{}

	for range sz {
		var key string

		key, b, err = readKey(b)
		if err != nil {
			return nil, err
		}

		seen[key] = true

		switch key {
		case tagID:
			v.ID, b, err = readBinary(b, key)
		case tagIV:
			v.IV, b, err = readBinary(b, key)
		case tagSalt:
			v.Salt, b, err = readBinary(b, key)
		case tagSeed:
			v.Seed, b, err = readBinary(b, key)
		case tagRecords:
			v.Records, b, err = readRecords(b)
		default:
			b, err = msgp.Skip(b)
		}

		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "field %v: %v", key, err)
		}
	}

	for _, k := range []string{tagID, tagIV, tagSalt, tagSeed, tagRecords} {
		if !seen[k] {
			return nil, errors.Wrapf(ErrCorrupt, "missing field %v", k)
		}
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

// Validate verifies that all fixed-size values have the expected size and all records are complete.
func (v *Vault) Validate() error {
	checks := []struct {
		name string
		val  []byte
		size int
	}{
		{"id", v.ID, IDSize},
		{"iv", v.IV, IVSize},
		{"salt", v.Salt, SaltSize},
	}

	for _, c := range checks {
		if len(c.val) != c.size {
			return errors.Wrapf(ErrCorrupt, "invalid %v length %v, want %v", c.name, len(c.val), c.size)
		}
	}

	if len(v.Seed) == 0 {
		return errors.Wrap(ErrCorrupt, "missing seed")
	}

	for i, r := range v.Records {
		if r == nil {
			return errors.Wrapf(ErrCorrupt, "record %v is nil", i)
		}

		if len(r.Pepper) != PepperSize {
			return errors.Wrapf(ErrCorrupt, "record %v: invalid pepper length %v, want %v", i, len(r.Pepper), PepperSize)
		}
	}

	return nil
}

func appendHexField(b []byte, tag string, val []byte) []byte {
	b = msgp.AppendString(b, tag)
	return msgp.AppendString(b, hexcodec.Encode(val))
}

// readKey reads a map key, accepting both string and integer tags.
func readKey(b []byte) (string, []byte, error) {
	switch msgp.NextType(b) {
	case msgp.StrType:
		s, o, err := msgp.ReadStringBytes(b)
		if err != nil {
			return "", nil, errors.Wrapf(ErrCorrupt, "invalid key: %v", err)
		}

		return s, o, nil

	case msgp.IntType, msgp.UintType:
		i, o, err := msgp.ReadInt64Bytes(b)
		if err != nil {
			return "", nil, errors.Wrapf(ErrCorrupt, "invalid key: %v", err)
		}

		return strconv.FormatInt(i, 10), o, nil //nolint:mnd

	default:
		return "", nil, errors.Wrapf(ErrCorrupt, "unsupported key type %v", msgp.NextType(b))
	}
}

// fixedSizes lists the fields whose decoded length is fixed.
//
//nolint:gochecknoglobals
var fixedSizes = map[string]int{
	tagID:     IDSize,
	tagIV:     IVSize,
	tagSalt:   SaltSize,
	tagPepper: PepperSize,
}

// readBinary reads a hex string (or raw msgpack binary) value.
// Fields listed in fixedSizes must decode to exactly that many bytes.
func readBinary(b []byte, key string) ([]byte, []byte, error) {
	size, fixed := fixedSizes[key]

	switch msgp.NextType(b) {
	case msgp.StrType:
		s, o, err := msgp.ReadStringBytes(b)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid string")
		}

		var v []byte

		if fixed {
			v, err = hexcodec.DecodeFixed(s, size)
		} else {
			v, err = hexcodec.Decode(s)
		}

		if err != nil {
			return nil, nil, errors.Wrapf(err, "field %v", key)
		}

		return v, o, nil

	case msgp.BinType:
		v, o, err := msgp.ReadBytesBytes(b, nil)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid binary")
		}

		if fixed && len(v) != size {
			return nil, nil, errors.Errorf("field %v: unexpected length %v, want %v bytes", key, len(v), size)
		}

		return v, o, nil

	default:
		return nil, nil, errors.Errorf("unexpected value type %v", msgp.NextType(b))
	}
}

func readRecords(b []byte) ([]*Record, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, nil, errors.Wrap(err, "records are not an array")
	}

	// every record occupies at least one byte
	if uint64(n) > uint64(len(b)) {
		return nil, nil, errors.Errorf("record count %v exceeds remaining %v bytes", n, len(b))
	}

	records := make([]*Record, 0, n)

	for i := range n {
		var r *Record

		r, b, err = readRecord(b)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "record %v", i)
		}

		records = append(records, r)
	}

	return records, b, nil
}

func readRecord(b []byte) (*Record, []byte, error) {
	sz, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, nil, errors.Wrap(err, "record is not a map")
	}

	r := &Record{}
	seen := map[string]bool{}

	for range sz {
		var key string

		key, b, err = readKey(b)
		if err != nil {
			return nil, nil, err
		}

		seen[key] = true

		switch key {
		case tagPepper:
			r.Pepper, b, err = readBinary(b, key)
		case tagExtra:
			r.Extra, b, err = readBinary(b, key)
		case tagUser:
			r.User, b, err = readBinary(b, key)
		case tagPass:
			r.Pass, b, err = readBinary(b, key)
		default:
			b, err = msgp.Skip(b)
		}

		if err != nil {
			return nil, nil, errors.Wrapf(err, "field %v", key)
		}
	}

	for _, k := range []string{tagPepper, tagExtra, tagUser, tagPass} {
		if !seen[k] {
			return nil, nil, errors.Errorf("missing field %v", k)
		}
	}

	return r, b, nil
}
