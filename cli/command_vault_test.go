package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyvault/tinyvault/internal/config"
	"github.com/tinyvault/tinyvault/tests/testenv"
)

type viewedRecord struct {
	ID    string `json:"ID"`
	Extra string `json:"EXTRA"`
	User  string `json:"USER"`
	Pass  string `json:"PASS"`
}

type infoOutput struct {
	ID         string   `json:"id"`
	Iterations int      `json:"iterations"`
	KeyBits    int      `json:"keyBits"`
	Mode       string   `json:"mode"`
	Hash       string   `json:"hash"`
	Records    int      `json:"records"`
	RecordIDs  []string `json:"recordIds"`
}

func viewRecords(t *testing.T, e *testenv.CLITest) []viewedRecord {
	t.Helper()

	var records []viewedRecord

	lines := e.RunAndExpectSuccess(t, "viewpass", "--json")
	require.NoError(t, json.Unmarshal([]byte(strings.Join(lines, "\n")), &records))

	return records
}

func vaultInfo(t *testing.T, e *testenv.CLITest) infoOutput {
	t.Helper()

	var info infoOutput

	lines := e.RunAndExpectSuccess(t, "info", "--json")
	require.NoError(t, json.Unmarshal([]byte(strings.Join(lines, "\n")), &info))

	return info
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}

	return false
}

func TestVaultLifecycle(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	lines := e.RunAndExpectSuccess(t, "generate")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "Generated vault")

	require.Empty(t, viewRecords(t, e))

	e.RunAndExpectSuccess(t, "addpass", "--extra", "example.com", "--user", "alice", "--newpass", "hunter2")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "mail.example.com", "--user", "bob", "--newpass", "correct horse")

	records := viewRecords(t, e)
	require.Len(t, records, 2)

	// most recent first
	require.Equal(t, "mail.example.com", records[0].Extra)
	require.Equal(t, "bob", records[0].User)
	require.Equal(t, "correct horse", records[0].Pass)
	require.Equal(t, "example.com", records[1].Extra)
	require.Equal(t, "alice", records[1].User)
	require.Equal(t, "hunter2", records[1].Pass)
	require.Len(t, records[0].ID, 6)

	// text output has a header and one line per record
	e.RunAndVerifyOutputLineCount(t, 3, "viewpass")

	lines = e.RunAndExpectSuccess(t, "dellpass", "--idpass", strings.ToUpper(records[1].ID))
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "Deleted 1 record(s)")

	remaining := viewRecords(t, e)
	require.Equal(t, records[:1], remaining)

	info := vaultInfo(t, e)
	require.Equal(t, 1, info.Records)
	require.Equal(t, []string{records[0].ID}, info.RecordIDs)
}

func TestGenerateWithParameters(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, []string{"--mode", "AES-GCM", "--hash", "SHA-512", "--key-bits", "128"}, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "host", "--user", "root", "--newpass", "toor")

	records := viewRecords(t, e)
	require.Len(t, records, 1)
	require.Equal(t, "toor", records[0].Pass)

	info := vaultInfo(t, e)
	require.Equal(t, "AES-GCM", info.Mode)
	require.Equal(t, "SHA-512", info.Hash)
	require.Equal(t, 128, info.KeyBits)
	require.Equal(t, testenv.TestIterations, info.Iterations)
	require.Len(t, info.ID, 8)

	_, err := os.Stat(e.VaultFile + ".config")
	require.NoError(t, err)
}

func TestGenerateInvalidParameters(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectFailure(t, "generate", "--mode", "AES-CTR")
	e.RunAndExpectFailure(t, "generate", "--key-bits", "512")
	e.RunAndExpectFailure(t, "generate", "--hash", "MD5")

	_, err := os.Stat(e.VaultFile)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")

	_, stderr := e.RunAndExpectFailure(t, "generate")
	require.True(t, containsLine(stderr, "already exists"), "stderr: %v", stderr)
	require.Len(t, viewRecords(t, e), 1)

	e.RunAndExpectSuccess(t, "generate", "--overwrite")
	require.Empty(t, viewRecords(t, e))
}

func TestWrongPassword(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")

	before, err := os.ReadFile(e.VaultFile)
	require.NoError(t, err)

	e.Environment["TINYVAULT_PASSWORD"] = "not-the-password"

	_, stderr := e.RunAndExpectFailure(t, "viewpass")
	require.True(t, containsLine(stderr, "invalid vault password"), "stderr: %v", stderr)

	e.RunAndExpectFailure(t, "addpass", "--extra", "a", "--user", "b", "--newpass", "c")

	after, err := os.ReadFile(e.VaultFile)
	require.NoError(t, err)
	require.Equal(t, before, after, "vault must not change after failed addpass")
}

func TestMismatchedParametersFile(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")

	lc, err := config.LoadFromFile(config.FileName(e.VaultFile))
	require.NoError(t, err)

	lc.VaultID = "00000000"
	require.NoError(t, lc.SaveToFile(config.FileName(e.VaultFile)))

	before, err := os.ReadFile(e.VaultFile)
	require.NoError(t, err)

	_, stderr := e.RunAndExpectFailure(t, "viewpass")
	require.True(t, containsLine(stderr, "corrupt vault structure"), "stderr: %v", stderr)

	e.RunAndExpectFailure(t, "addpass", "--extra", "a", "--user", "b", "--newpass", "c")
	e.RunAndExpectFailure(t, "dellpass", "--idpass", "000000")

	after, err := os.ReadFile(e.VaultFile)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestViewPassOriginalVaultWithoutParametersFile(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	b, err := os.ReadFile(filepath.Join("..", "vault", "testdata", "original-defaults.vault"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.VaultFile, b, 0o600))

	e.Environment["TINYVAULT_PASSWORD"] = "correct horse"

	require.Equal(t, []viewedRecord{
		{ID: "39d192", Extra: "example.net", User: "erin", Pass: "s3cret"},
	}, viewRecords(t, e))

	info := vaultInfo(t, e)
	require.Equal(t, "bb63a327", info.ID)
	require.Equal(t, 100000, info.Iterations)
}

func TestMissingPassword(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")

	delete(e.Environment, "TINYVAULT_PASSWORD")

	_, stderr := e.RunAndExpectFailure(t, "viewpass")
	require.True(t, containsLine(stderr, "password is required"), "stderr: %v", stderr)
	require.True(t, containsLine(stderr, "Use --help"), "stderr: %v", stderr)

	e.RunAndExpectSuccess(t, "viewpass", "--password", testenv.TestVaultPassword)
}

func TestPasswordFromStdin(t *testing.T) {
	t.Parallel()

	runner := testenv.NewInProcRunner(t)
	e := testenv.NewCLITest(t, nil, runner)

	delete(e.Environment, "TINYVAULT_PASSWORD")

	runner.SetNextStdin(strings.NewReader("stdin-password\n"))
	e.RunAndExpectSuccess(t, "generate")

	runner.SetNextStdin(strings.NewReader("stdin-password\n"))
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")

	runner.SetNextStdin(strings.NewReader("wrong-password\n"))
	e.RunAndExpectFailure(t, "viewpass")
}

func TestAddPassRequiresFlags(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")

	e.RunAndExpectFailure(t, "addpass", "--user", "y", "--newpass", "z")
	e.RunAndExpectFailure(t, "addpass", "--extra", "x", "--newpass", "z")

	_, stderr := e.RunAndExpectFailure(t, "addpass", "--extra", "x", "--user", "y")
	require.True(t, containsLine(stderr, "missing --newpass"), "stderr: %v", stderr)

	e.Environment["TINYVAULT_NEWPASS"] = "from-env"
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y")

	records := viewRecords(t, e)
	require.Len(t, records, 1)
	require.Equal(t, "from-env", records[0].Pass)
}

func TestAddPassMissingVault(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectFailure(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")
	e.RunAndExpectFailure(t, "viewpass")
	e.RunAndExpectFailure(t, "info")
}

func TestDellPassWithoutPassword(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate")
	e.RunAndExpectSuccess(t, "addpass", "--extra", "x", "--user", "y", "--newpass", "z")

	id := vaultInfo(t, e).RecordIDs[0]

	delete(e.Environment, "TINYVAULT_PASSWORD")

	_, stderr := e.RunAndExpectSuccessWithErrOut(t, "dellpass", "--idpass", "000000")
	require.True(t, containsLine(stderr, "No record with id 000000"), "stderr: %v", stderr)

	e.RunAndExpectSuccess(t, "dellpass", "--idpass", "  "+id+"  ")
	require.Zero(t, vaultInfo(t, e).Records)

	e.RunAndExpectFailure(t, "dellpass", "--idpass", "   ")
	e.RunAndExpectFailure(t, "dellpass")
}

func TestPersistCredentials(t *testing.T) {
	t.Parallel()

	e := testenv.NewCLITest(t, nil, testenv.NewInProcRunner(t))

	e.RunAndExpectSuccess(t, "generate", "--persist-credentials")

	_, err := os.Stat(e.VaultFile + ".tinyvault-password")
	require.NoError(t, err)

	delete(e.Environment, "TINYVAULT_PASSWORD")

	e.RunAndExpectSuccess(t, "addpass", "--persist-credentials", "--extra", "x", "--user", "y", "--newpass", "z")
	e.RunAndVerifyOutputLineCount(t, 2, "viewpass", "--persist-credentials")

	// without the flag the persisted password is not consulted
	e.RunAndExpectFailure(t, "viewpass")

	// a rejected password is forgotten
	e.RunAndExpectFailure(t, "viewpass", "--persist-credentials", "--password", "wrong")

	_, err = os.Stat(e.VaultFile + ".tinyvault-password")
	require.ErrorIs(t, err, os.ErrNotExist)
}
