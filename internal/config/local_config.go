// Package config manages the parameters file stored next to a vault.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/atomicfile"
)

// FileSuffix is appended to the vault file name to get the name of its parameters file.
const FileSuffix = ".config"

// LocalConfig holds the cryptographic parameters a vault was generated with.
// They are not recoverable from the vault itself and must be reused for every operation.
type LocalConfig struct {
	VaultID    string `json:"vaultId,omitempty"`
	Iterations int    `json:"iterations"`
	KeyBits    int    `json:"keyBits"`
	Mode       string `json:"mode"`
	Hash       string `json:"hash"`
}

// FileName returns the name of the parameters file for the provided vault file.
func FileName(vaultFile string) string {
	return vaultFile + FileSuffix
}

// Load reads local configuration from the specified reader.
func (lc *LocalConfig) Load(r io.Reader) error {
	*lc = LocalConfig{}

	return errors.Wrap(json.NewDecoder(r).Decode(lc), "error decoding config")
}

// Save writes the configuration to the specified writer.
func (lc *LocalConfig) Save(w io.Writer) error {
	b, err := json.MarshalIndent(lc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	_, err = w.Write(b)

	return errors.Wrap(err, "error writing config")
}

// LoadFromFile reads the local configuration from the specified file.
// The returned error satisfies errors.Is(err, os.ErrNotExist) if the file does not exist.
func LoadFromFile(fileName string) (*LocalConfig, error) {
	f, err := os.Open(fileName) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "error loading config file")
	}
	defer f.Close() //nolint:errcheck

	var lc LocalConfig

	if err := lc.Load(f); err != nil {
		return nil, errors.Wrapf(err, "error loading config file %v", fileName)
	}

	return &lc, nil
}

// SaveToFile atomically writes the configuration to the specified file.
func (lc *LocalConfig) SaveToFile(fileName string) error {
	var b bytes.Buffer

	if err := lc.Save(&b); err != nil {
		return err
	}

	return atomicfile.Write(fileName, &b)
}
