package logfile_test

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyvault/tinyvault/internal/logfile"
	"github.com/tinyvault/tinyvault/internal/testutil"
	"github.com/tinyvault/tinyvault/tests/testenv"
)

var cliLogFormat = regexp.MustCompile(`^\d{4}-\d\d\-\d\dT\d\d:\d\d:\d\d\.\d{6}Z (DEBUG|INFO) [a-z/]+ .*$`)

func TestLoggingFlags(t *testing.T) {
	runner := testenv.NewInProcRunner(t)
	runner.CustomizeApp = logfile.Attach

	env := testenv.NewCLITest(t, nil, runner)

	tmpLogDir := testutil.TempDirectory(t)

	// run command that produces debug logs.
	_, stderr, err := env.Run(t, false, "generate",
		"--console-timestamps", "--log-level=debug", "--force-color", "--log-dir", tmpLogDir)
	require.NoError(t, err)
	require.NotEmpty(t, stderr)

	for _, l := range stderr {
		require.NotContains(t, l, "INFO") // INFO is omitted

		if strings.Contains(l, "DEBUG") {
			require.Contains(t, l, "\x1b[35mDEBUG\x1b")
		}

		// make sure each line is prefixed with a timestamp.
		_, perr := time.Parse("15:04:05.000 ", strings.Split(l, " ")[0])
		require.NoError(t, perr)
	}

	verifyFileLogFormat(t, filepath.Join(tmpLogDir, "latest.log"), cliLogFormat)

	_, stderr, err = env.Run(t, false, "viewpass", "--log-level=debug", "--disable-color", "--log-dir", tmpLogDir)
	require.NoError(t, err)
	require.NotEmpty(t, stderr)

	for _, l := range stderr {
		require.NotContains(t, l, "INFO") // INFO is omitted

		if strings.Contains(l, "DEBUG") {
			require.NotContains(t, l, "\x1b[35mDEBUG")
		}

		// make sure each line is NOT prefixed with a timestamp.
		_, perr := time.Parse("15:04:05.000 ", strings.Split(l, " ")[0])
		require.Error(t, perr)
	}

	entries, err := os.ReadDir(tmpLogDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	require.True(t, hasLogFileFor(names, "generate"), "log files: %v", names)
	require.True(t, hasLogFileFor(names, "viewpass"), "log files: %v", names)
	require.Contains(t, names, "latest.log")

	// with --log-level=warning nothing is written to the console
	_, stderr, err = env.Run(t, false, "addpass", "--extra", "x", "--user", "y", "--newpass", "z", "--log-level=warning")
	require.NoError(t, err)
	require.Empty(t, stderr)

	_, stderr, err = env.Run(t, false, "viewpass", "--log-level=error")
	require.NoError(t, err)
	require.Empty(t, stderr)
}

func TestLogFileOverride(t *testing.T) {
	runner := testenv.NewInProcRunner(t)
	runner.CustomizeApp = logfile.Attach

	env := testenv.NewCLITest(t, nil, runner)
	logFile := filepath.Join(testutil.TempDirectory(t), "custom.log")

	env.RunAndExpectSuccess(t, "generate", "--log-file", logFile, "--log-level=error")

	verifyFileLogFormat(t, logFile, cliLogFormat)

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(b), "generated vault")
	require.NotContains(t, string(b), testenv.TestVaultPassword)
}

func TestLogFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

	require.Equal(t, "tinyvault-20240305-070809-42-addpass.log", logfile.LogFileName(now, 42, "addpass"))
}

func hasLogFileFor(names []string, command string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, "tinyvault-") && strings.HasSuffix(n, "-"+command+".log") {
			return true
		}
	}

	return false
}

func verifyFileLogFormat(t *testing.T, fname string, re *regexp.Regexp) {
	t.Helper()

	f, err := os.Open(fname)
	require.NoError(t, err)

	defer f.Close()

	s := bufio.NewScanner(f)

	lines := 0

	for s.Scan() {
		lines++

		require.True(t, re.MatchString(s.Text()), "log line does not match the format: %v", s.Text())
	}

	require.Positive(t, lines)
}
