package vault_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyvault/tinyvault/internal/testlogging"
	"github.com/tinyvault/tinyvault/vault"
	"github.com/tinyvault/tinyvault/vault/format"
)

// Vaults in testdata/original-*.vault were written by the original JavaScript tinyvault
// (generate followed by addpass) with the password "correct horse".
const originalPassword = "correct horse"

func loadOriginalVault(t *testing.T, name string) (*format.Vault, []byte) {
	t.Helper()

	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	v, err := format.Unmarshal(b)
	require.NoError(t, err)

	return v, b
}

func TestViewPassOriginalVaults(t *testing.T) {
	cases := []struct {
		file    string
		opts    vault.Options
		id      string
		records []vault.PlainRecord
	}{
		{
			file: "original-cbc-sha256.vault",
			opts: vault.Options{Iterations: 1000, KeyBits: 256, Mode: "AES-CBC", Hash: "SHA-256"},
			id:   "a197afd5",
			records: []vault.PlainRecord{
				{ID: "db5e13", Extra: "café.example", User: "bob", Pass: "battery staple 123"},
				{ID: "d5a45b", Extra: "mail.example.com", User: "alice@example.com", Pass: "hunter2"},
			},
		},
		{
			file: "original-gcm-sha512.vault",
			opts: vault.Options{Iterations: 1000, KeyBits: 128, Mode: "AES-GCM", Hash: "SHA-512"},
			id:   "3f959074",
			records: []vault.PlainRecord{
				{ID: "73785c", Extra: "bank", User: "dave", Pass: "a rather long password of more than thirty two bytes"},
				{ID: "cf16fd", Extra: "git.example.org", User: "carol", Pass: "x"},
			},
		},
		{
			file: "original-defaults.vault",
			opts: vault.DefaultOptions(),
			id:   "bb63a327",
			records: []vault.PlainRecord{
				{ID: "39d192", Extra: "example.net", User: "erin", Pass: "s3cret"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			ctx := testlogging.Context(t)
			e := newTestEngine(t, tc.opts)

			v, raw := loadOriginalVault(t, tc.file)
			require.Equal(t, tc.id, v.IDString())

			recs, err := e.ViewPass(ctx, originalPassword, v)
			require.NoError(t, err)
			require.Equal(t, tc.records, recs)

			_, err = e.ViewPass(ctx, "correct horse battery", v)
			require.ErrorIs(t, err, vault.ErrInvalidPassword)

			// re-encoding must reproduce the file byte for byte
			b, err := format.Marshal(v)
			require.NoError(t, err)
			require.Equal(t, raw, b)
		})
	}
}

func TestAddPassToOriginalVault(t *testing.T) {
	ctx := testlogging.Context(t)
	e := newTestEngine(t, vault.Options{Iterations: 1000, KeyBits: 256, Mode: "AES-CBC", Hash: "SHA-256"})

	v, _ := loadOriginalVault(t, "original-cbc-sha256.vault")

	nv, err := e.AddPass(ctx, originalPassword, v, "new.example", "frank", "pw")
	require.NoError(t, err)
	require.Len(t, nv.Records, 3)

	recs, err := e.ViewPass(ctx, originalPassword, nv)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, vault.PlainRecord{ID: nv.Records[0].PepperString(), Extra: "new.example", User: "frank", Pass: "pw"}, recs[0])
	require.Equal(t, "db5e13", recs[1].ID)
	require.Equal(t, "d5a45b", recs[2].ID)

	dv, removed, err := e.DellPass(ctx, "d5a45b", nv)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Len(t, dv.Records, 2)
}
