package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/metrics"
)

// DirMode is the directory mode for output directories.
const DirMode = 0o700

type observabilityFlags struct {
	metricsOutput    string
	metricsOutputDir string
	outputFilePrefix string
}

func (c *observabilityFlags) setup(svc appServices, app *kingpin.Application) {
	app.Flag("metrics-output", "Write metrics in Prometheus text format to the given file when the command exits").Envar(svc.EnvName("TINYVAULT_METRICS_OUTPUT")).StringVar(&c.metricsOutput)
	app.Flag("metrics-directory", "Directory where the metrics should be saved when the command exits. A file per process execution will be created in this directory").Hidden().StringVar(&c.metricsOutputDir)

	app.PreAction(c.initialize)
}

func (c *observabilityFlags) initialize(ctx *kingpin.ParseContext) error {
	if c.metricsOutputDir == "" {
		return nil
	}

	// write to a separate file per command and process execution to avoid
	// conflicts with previously created files
	command := "unknown"
	if cmd := ctx.SelectedCommand; cmd != nil {
		command = strings.ReplaceAll(cmd.FullCommand(), " ", "-")
	}

	c.outputFilePrefix = time.Now().Format("20060102-150405-") + command

	return nil
}

// metricsFiles returns the names of files the metrics should be written to.
func (c *observabilityFlags) metricsFiles() []string {
	var result []string

	if c.metricsOutput != "" {
		result = append(result, c.metricsOutput)
	}

	if c.metricsOutputDir != "" {
		result = append(result, filepath.Join(filepath.Clean(c.metricsOutputDir), c.outputFilePrefix+".prom"))
	}

	return result
}

func (c *observabilityFlags) writeMetrics(ctx context.Context, reg *metrics.Registry) error {
	if c.metricsOutputDir != "" {
		// ensure the metrics output dir can be created
		if err := os.MkdirAll(c.metricsOutputDir, DirMode); err != nil {
			return errors.Wrapf(err, "could not create metrics output directory: %s", c.metricsOutputDir)
		}
	}

	for _, fname := range c.metricsFiles() {
		if err := reg.WriteToTextfile(fname); err != nil {
			return errors.Wrapf(err, "unable to write metrics to %v", fname)
		}

		log(ctx).Debugf("wrote metrics to %v", fname)
	}

	return nil
}
