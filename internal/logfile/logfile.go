// Package logfile configures console and file logging for the tinyvault CLI.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tinyvault/tinyvault/cli"
	"github.com/tinyvault/tinyvault/vault/logging"
)

const (
	logsDirMode  = 0o700
	logsFileMode = 0o600

	logFileNamePrefix = "tinyvault-"
	logFileNameSuffix = ".log"
	latestLogName     = "latest.log"
)

var logLevels = []string{"debug", "info", "warning", "error"}

type loggingFlags struct {
	logFile              string
	logDir               string
	logLevel             string
	fileLogLevel         string
	forceColor           bool
	disableColor         bool
	consoleLogTimestamps bool

	cliApp *cli.App
}

func (c *loggingFlags) setup(cliApp *cli.App, app *kingpin.Application) {
	app.Flag("log-file", "Write logs to this file.").StringVar(&c.logFile)
	app.Flag("log-dir", "Directory where a log file per command is written, none by default.").Envar(cliApp.EnvName("TINYVAULT_LOG_DIR")).StringVar(&c.logDir)
	app.Flag("log-level", "Console log level").Default("info").EnumVar(&c.logLevel, logLevels...)
	app.Flag("file-log-level", "File log level").Default("debug").EnumVar(&c.fileLogLevel, logLevels...)
	app.Flag("force-color", "Force color output").Hidden().Envar(cliApp.EnvName("TINYVAULT_FORCE_COLOR")).BoolVar(&c.forceColor)
	app.Flag("disable-color", "Disable color output").Hidden().Envar(cliApp.EnvName("TINYVAULT_DISABLE_COLOR")).BoolVar(&c.disableColor)
	app.Flag("console-timestamps", "Log timestamps to stderr.").Hidden().Default("false").Envar(cliApp.EnvName("TINYVAULT_CONSOLE_TIMESTAMPS")).BoolVar(&c.consoleLogTimestamps)

	app.PreAction(c.initialize)
	c.cliApp = cliApp
}

// Attach attaches logging flags to the provided application.
func Attach(cliApp *cli.App, app *kingpin.Application) {
	lf := &loggingFlags{}
	lf.setup(cliApp, app)
}

// initialize installs the logger factory once the command is known, so file names carry the command.
func (c *loggingFlags) initialize(ctx *kingpin.ParseContext) error {
	command := "unknown"
	if sc := ctx.SelectedCommand; sc != nil {
		command = strings.ReplaceAll(sc.FullCommand(), " ", "-")
	}

	cores := []zapcore.Core{c.setupConsoleCore()}

	if c.logDir != "" || c.logFile != "" {
		cores = append(cores, c.setupLogFileCore(time.Now().UTC(), command))
	}

	rootLogger := zap.New(zapcore.NewTee(cores...))

	c.cliApp.SetLoggerFactory(func(module string) logging.Logger {
		return rootLogger.Named(module).Sugar()
	})

	if c.forceColor {
		color.NoColor = false
	}

	if c.disableColor {
		color.NoColor = true
	}

	return nil
}

func (c *loggingFlags) setupConsoleCore() zapcore.Core {
	ec := zapcore.EncoderConfig{
		LevelKey:         "l",
		MessageKey:       "m",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
		EncodeLevel: func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			if l == zap.InfoLevel {
				// info log does not have a prefix.
				return
			}

			if c.disableColor {
				zapcore.CapitalLevelEncoder(l, pae)
			} else {
				zapcore.CapitalColorLevelEncoder(l, pae)
			}
		},
	}

	if c.consoleLogTimestamps {
		ec.TimeKey = "t"
		ec.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(t.Local().Format("15:04:05.000"))
		}
	}

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(ec),
		zapcore.AddSync(c.cliApp.Stderr()),
		logLevelFromFlag(c.logLevel),
	)
}

func (c *loggingFlags) setupLogFileCore(now time.Time, command string) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "t",
			MessageKey:       "m",
			NameKey:          "n",
			LevelKey:         "l",
			EncodeName:       zapcore.FullNameEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000000Z07:00"),
			EncodeDuration:   zapcore.StringDurationEncoder,
			ConsoleSeparator: " ",
		}),
		c.logFileWriter(now, command),
		logLevelFromFlag(c.fileLogLevel),
	)
}

// logFileWriter returns the writer for --log-file, or for a fresh per-command file in --log-dir.
func (c *loggingFlags) logFileWriter(now time.Time, command string) zapcore.WriteSyncer {
	var logFileName, symlinkName string

	if c.logFile != "" {
		var err error

		logFileName, err = filepath.Abs(c.logFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to resolve logs path", err) //nolint:errcheck
		}
	}

	if logFileName == "" {
		logFileName = filepath.Join(c.logDir, LogFileName(now, os.Getpid(), command))
		symlinkName = latestLogName
	}

	logDir := filepath.Dir(logFileName)

	if err := os.MkdirAll(logDir, logsDirMode); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to create logs directory:", err) //nolint:errcheck
	}

	return &onDemandFile{
		logDir:          logDir,
		logFileBaseName: filepath.Base(logFileName),
		symlinkName:     symlinkName,
	}
}

// LogFileName returns the base name of the log file written to --log-dir for one command execution.
func LogFileName(now time.Time, pid int, command string) string {
	return fmt.Sprintf("%v%v-%v-%v%v", logFileNamePrefix, now.Format("20060102-150405"), pid, command, logFileNameSuffix)
}

func logLevelFromFlag(levelString string) zapcore.LevelEnabler {
	switch levelString {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.FatalLevel
	}
}

// onDemandFile opens the log file on first write, so commands that log nothing leave no file behind.
type onDemandFile struct {
	logDir          string
	logFileBaseName string
	symlinkName     string

	f *os.File

	once sync.Once
}

func (w *onDemandFile) Sync() error {
	if w.f == nil {
		return nil
	}

	//nolint:wrapcheck
	return w.f.Sync()
}

func (w *onDemandFile) Write(b []byte) (int, error) {
	w.once.Do(func() {
		lf := filepath.Join(w.logDir, w.logFileBaseName)

		f, err := os.OpenFile(lf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logsFileMode) //nolint:gosec
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open log file: %v\n", err) //nolint:errcheck
			return
		}

		w.f = f

		if w.symlinkName != "" {
			symlink := filepath.Join(w.logDir, w.symlinkName)
			_ = os.Remove(symlink)
			_ = os.Symlink(w.logFileBaseName, symlink)
		}
	})

	if w.f == nil {
		return 0, nil
	}

	//nolint:wrapcheck
	return w.f.Write(b)
}
