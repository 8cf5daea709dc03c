// Package format defines the persisted vault data model and its wire encoding.
//
// A vault is persisted as a msgpack map whose keys are small decimal tags and whose
// binary values are lowercase hexadecimal strings:
//
//	Vault  := { "0": id, "1": iv, "2": salt, "3": seed, "4": [Record, ...] }
//	Record := { "5": pepper, "6": extra, "7": user, "8": pass }
package format

import (
	"github.com/tinyvault/tinyvault/internal/hexcodec"
)

// Sizes of the random values stored in a vault, in bytes.
const (
	IDSize     = 4
	IVSize     = 16
	SaltSize   = 4
	SeedSize   = 14
	PepperSize = 3
)

// Vault is the persisted state of a credential vault.
type Vault struct {
	// ID identifies the vault. Generated once and never changed.
	ID []byte
	// IV is used only to encrypt the seed.
	IV []byte
	// Salt is the key derivation salt of the master key.
	Salt []byte
	// Seed is the encrypted vault-wide secret.
	Seed []byte
	// Records are ordered most recently added first.
	Records []*Record
}

// Record is a single encrypted credential entry.
type Record struct {
	// Pepper is stored in clear and identifies the record.
	Pepper []byte
	Extra  []byte
	User   []byte
	Pass   []byte
}

// IDString returns the vault identifier as lowercase hex.
func (v *Vault) IDString() string {
	return hexcodec.Encode(v.ID)
}

// WithRecords returns a shallow copy of the vault with the provided records.
func (v *Vault) WithRecords(records []*Record) *Vault {
	return &Vault{
		ID:      v.ID,
		IV:      v.IV,
		Salt:    v.Salt,
		Seed:    v.Seed,
		Records: records,
	}
}

// PepperString returns the record pepper as lowercase hex, which is the external record identifier.
func (r *Record) PepperString() string {
	return hexcodec.Encode(r.Pepper)
}
