// Package cli implements command-line commands for the vault.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/metrics"
	"github.com/tinyvault/tinyvault/vault"
	"github.com/tinyvault/tinyvault/vault/logging"
	"github.com/tinyvault/tinyvault/vault/storage"
)

var log = logging.Module("tinyvault/cli")

//nolint:gochecknoglobals
var (
	errorColor   = color.New(color.FgHiRed)
	warningColor = color.New(color.FgYellow)
)

const defaultVaultFile = "vault.dat"

// appServices are the methods of *App that command handles are allowed to call.
type appServices interface {
	EnvName(s string) string
	Stderr() io.Writer

	stdout() io.Writer
	stdin() io.Reader
	isTerminal() bool

	baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error
	vaultStorage() *storage.Storage
	newEngine(opts vault.Options) (*vault.Engine, error)
	engineForVault(ctx context.Context, st *storage.Storage) (*vault.Engine, error)
	getPassword(ctx context.Context, isCreate bool) (string, error)
	onPasswordUsed(ctx context.Context, err error, password string) error
	printStderr(msg string, args ...any)
}

type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// App contains per-invocation flags and state of the vault CLI.
type App struct {
	vaultFile          string
	password           string
	persistCredentials bool
	keyRingEnabled     bool

	generate commandGenerate
	addPass  commandAddPass
	viewPass commandViewPass
	dellPass commandDellPass
	info     commandInfo

	observability observabilityFlags

	envNamePrefix string

	// testability hooks
	isInProcessTest bool
	exitWithError   func(err error) // os.Exit() with 1 or 0 based on err
	stdinReader     io.Reader
	stdoutWriter    io.Writer
	stderrWriter    io.Writer
	rootctx         context.Context //nolint:containedctx
	loggerFactory   logging.LoggerFactory
	metrics         *metrics.Registry
}

// NewApp creates a new instance of App.
func NewApp() *App {
	return &App{
		exitWithError: func(err error) {
			if err != nil {
				os.Exit(1)
			}

			os.Exit(0)
		},
		stdinReader:  os.Stdin,
		stdoutWriter: colorable.NewColorableStdout(),
		stderrWriter: colorable.NewColorableStderr(),
		rootctx:      context.Background(),
	}
}

// SetLoggerFactory sets the logger factory to be used by the app.
func (c *App) SetLoggerFactory(loggerForModule logging.LoggerFactory) {
	c.loggerFactory = loggerForModule
}

// EnvName overrides the provided environment variable name for testability.
func (c *App) EnvName(n string) string {
	return c.envNamePrefix + n
}

// SetEnvNamePrefixForTesting sets the name prefix to be used for all environment variables.
func (c *App) SetEnvNamePrefixForTesting(prefix string) {
	c.envNamePrefix = prefix
}

// Stderr returns the stderr writer.
func (c *App) Stderr() io.Writer {
	return c.stderrWriter
}

func (c *App) stdout() io.Writer {
	return c.stdoutWriter
}

func (c *App) stdin() io.Reader {
	return c.stdinReader
}

// Attach attaches the CLI parser to the application.
func (c *App) Attach(app *kingpin.Application) {
	c.setup(app)
}

func (c *App) setup(app *kingpin.Application) {
	app.Flag("vault-file", "Path of the vault file.").Short('f').Default(defaultVaultFile).Envar(c.EnvName("TINYVAULT_FILE")).StringVar(&c.vaultFile)
	app.Flag("password", "Vault password.").Envar(c.EnvName("TINYVAULT_PASSWORD")).Short('p').StringVar(&c.password)
	app.Flag("persist-credentials", "Persist the vault password after successful use.").Envar(c.EnvName("TINYVAULT_PERSIST_CREDENTIALS")).BoolVar(&c.persistCredentials)

	c.setupOSSpecificKeychainFlags(c, app)
	c.observability.setup(c, app)

	c.generate.setup(c, app)
	c.addPass.setup(c, app)
	c.viewPass.setup(c, app)
	c.dellPass.setup(c, app)
	c.info.setup(c, app)
}

func (c *App) vaultStorage() *storage.Storage {
	return storage.New(c.vaultFile)
}

func (c *App) newEngine(opts vault.Options) (*vault.Engine, error) {
	opts.Metrics = c.metrics

	e, err := vault.NewEngine(opts)
	if err != nil {
		return nil, errors.Wrap(err, "invalid vault parameters")
	}

	return e, nil
}

// engineForVault returns the engine configured with the parameters the vault was generated with.
func (c *App) engineForVault(ctx context.Context, st *storage.Storage) (*vault.Engine, error) {
	lc, err := st.LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read vault parameters")
	}

	opts := vault.DefaultOptions()

	if lc != nil {
		opts.Iterations = lc.Iterations
		opts.KeyBits = lc.KeyBits
		opts.Mode = lc.Mode
		opts.Hash = lc.Hash
	} else {
		log(ctx).Debugf("parameters file %v not found, using defaults", st.ConfigPath())
	}

	return c.newEngine(opts)
}

func (c *App) printStderr(msg string, args ...any) {
	fmt.Fprintf(c.stderrWriter, msg, args...) //nolint:errcheck
}

func (c *App) rootContext() context.Context {
	ctx := c.rootctx

	if c.loggerFactory != nil {
		ctx = logging.WithLogger(ctx, c.loggerFactory)
	}

	return ctx
}

func (c *App) baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error {
	return func(_ *kingpin.ParseContext) error {
		return c.runAppWithContext(act)
	}
}

func (c *App) runAppWithContext(cb func(ctx context.Context) error) error {
	ctx := c.rootContext()

	c.metrics = metrics.NewRegistry()

	err := cb(ctx)

	c.metrics.Log(ctx)

	if merr := c.observability.writeMetrics(ctx, c.metrics); merr != nil {
		log(ctx).Errorf("unable to write metrics: %v", merr)
	}

	if err != nil {
		errorColor.Fprintf(c.stderrWriter, "ERROR: %v\n", err) //nolint:errcheck

		if errors.Is(err, vault.ErrInvalidInput) {
			warningColor.Fprintf(c.stderrWriter, "Use --help to see usage.\n") //nolint:errcheck
		}

		c.exitWithError(err)
	}

	return nil
}
