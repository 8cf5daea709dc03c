// Package testenv contains Environment for use in testing.
package testenv

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyvault/tinyvault/internal/testlogging"
	"github.com/tinyvault/tinyvault/internal/testutil"
)

const (
	// TestVaultPassword is a password for vaults created in tests.
	TestVaultPassword = "qWQPJ2hiiLgWRRCr"

	// TestIterations keeps key derivation fast in tests.
	TestIterations = 10
)

// CLIRunner encapsulates running tinyvault subcommands for testing purposes.
type CLIRunner interface {
	Start(tb testing.TB, ctx context.Context, args []string, env map[string]string) (stdout, stderr io.Reader, wait func() error)
}

// CLITest encapsulates state for a CLI-based test.
type CLITest struct {
	// context in which all subcommands are running
	//nolint:containedctx
	RunContext context.Context

	VaultFile string

	Runner CLIRunner

	fixedArgs   []string
	Environment map[string]string

	// DefaultGenerateFlags are appended to every 'generate' invocation.
	DefaultGenerateFlags []string

	logMu sync.RWMutex
	// +checklocks:logMu
	logOutputEnabled bool
}

// NewCLITest creates a new instance of *CLITest.
func NewCLITest(tb testing.TB, generateFlags []string, runner CLIRunner) *CLITest {
	tb.Helper()

	vaultFile := testutil.TempVaultFile(tb)

	fixedArgs := []string{
		// use per-test vault file, to avoid clobbering current user's vault.
		"--vault-file", vaultFile,
	}

	// disable the use of keyring
	switch runtime.GOOS {
	case "darwin":
		fixedArgs = append(fixedArgs, "--no-use-keychain")
	case "windows":
		fixedArgs = append(fixedArgs, "--no-use-credential-manager")
	case "linux":
		fixedArgs = append(fixedArgs, "--no-use-keyring")
	}

	return &CLITest{
		RunContext:           testlogging.Context(tb),
		VaultFile:            vaultFile,
		fixedArgs:            fixedArgs,
		DefaultGenerateFlags: append([]string{"--iterations", strconv.Itoa(TestIterations)}, generateFlags...),
		Environment: map[string]string{
			"TINYVAULT_PASSWORD": TestVaultPassword,
		},
		Runner: runner,
	}
}

// SetLogOutput enables logging of stdout and stderr of subcommands.
func (e *CLITest) SetLogOutput(enable bool) {
	e.logMu.Lock()
	defer e.logMu.Unlock()

	e.logOutputEnabled = enable
}

func (e *CLITest) logOutput() bool {
	e.logMu.RLock()
	defer e.logMu.RUnlock()

	return os.Getenv("TINYVAULT_TEST_LOG_OUTPUT") != "" || e.logOutputEnabled
}

// RunAndExpectSuccess runs the given command, expects it to succeed and returns its output lines.
func (e *CLITest) RunAndExpectSuccess(tb testing.TB, args ...string) []string {
	tb.Helper()

	stdout, _, err := e.Run(tb, false, args...)
	require.NoError(tb, err, "'tinyvault %v' failed", strings.Join(args, " "))

	return stdout
}

// RunAndExpectSuccessWithErrOut runs the given command, expects it to succeed and returns its stdout and stderr lines.
func (e *CLITest) RunAndExpectSuccessWithErrOut(tb testing.TB, args ...string) (stdout, stderr []string) {
	tb.Helper()

	stdout, stderr, err := e.Run(tb, false, args...)
	require.NoError(tb, err, "'tinyvault %v' failed", strings.Join(args, " "))

	return stdout, stderr
}

// RunAndExpectFailure runs the given command, expects it to fail and returns its output lines.
func (e *CLITest) RunAndExpectFailure(tb testing.TB, args ...string) (stdout, stderr []string) {
	tb.Helper()

	var err error

	stdout, stderr, err = e.Run(tb, true, args...)
	require.Error(tb, err, "'tinyvault %v' succeeded, but expected failure", strings.Join(args, " "))

	return stdout, stderr
}

// RunAndVerifyOutputLineCount runs the given command and asserts it returns the given number of output lines, then returns them.
func (e *CLITest) RunAndVerifyOutputLineCount(tb testing.TB, wantLines int, args ...string) []string {
	tb.Helper()

	lines := e.RunAndExpectSuccess(tb, args...)
	require.Len(tb, lines, wantLines, "unexpected output lines for 'tinyvault %v', lines:\n %s", strings.Join(args, " "), strings.Join(lines, "\n "))

	return lines
}

func (e *CLITest) cmdArgs(args []string) []string {
	var suffix []string

	if len(args) >= 1 && args[0] == "generate" {
		suffix = e.DefaultGenerateFlags
	}

	return append(append(append([]string(nil), e.fixedArgs...), args...), suffix...)
}

// Run executes tinyvault with given arguments and returns the output lines.
func (e *CLITest) Run(tb testing.TB, expectedError bool, args ...string) (stdout, stderr []string, err error) {
	tb.Helper()

	args = e.cmdArgs(args)
	logOutput := e.logOutput()
	tb.Logf("running 'tinyvault %v'", strings.Join(args, " "))

	start := time.Now()

	stdoutReader, stderrReader, wait := e.Runner.Start(tb, e.RunContext, args, e.Environment)

	var wg sync.WaitGroup

	wg.Go(func() {
		scanner := bufio.NewScanner(stdoutReader)
		for scanner.Scan() {
			if logOutput {
				tb.Logf("[stdout] %v", scanner.Text())
			}

			stdout = append(stdout, scanner.Text())
		}
	})

	wg.Go(func() {
		scanner := bufio.NewScanner(stderrReader)
		for scanner.Scan() {
			if logOutput {
				tb.Logf("[stderr] %v", scanner.Text())
			}

			stderr = append(stderr, scanner.Text())
		}
	})

	wg.Wait()

	gotErr := wait()

	if expectedError {
		require.Error(tb, gotErr, "unexpected success when running 'tinyvault %v' (stdout:\n%v\nstderr:\n%v", strings.Join(args, " "), strings.Join(stdout, "\n"), strings.Join(stderr, "\n"))
	} else {
		require.NoError(tb, gotErr, "unexpected error when running 'tinyvault %v' (stdout:\n%v\nstderr:\n%v", strings.Join(args, " "), strings.Join(stdout, "\n"), strings.Join(stderr, "\n"))
	}

	tb.Logf("finished in %v: 'tinyvault %v'", time.Since(start).Milliseconds(), strings.Join(args, " "))

	return stdout, stderr, gotErr
}
