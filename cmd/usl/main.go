// Command usl fits the Universal Scalability Law to measured throughput,
// evaluates coefficient sets over a load grid and reports peak concurrency.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexshd/usl/internal/config"
	"github.com/alexshd/usl/internal/logging"
	"github.com/alexshd/usl/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdout, os.Stderr)
	if err := a.command().ExecuteContext(ctx); err != nil {
		a.logger().Error(err.Error())
		stop()
		os.Exit(1)
	}
	stop()
}

// app carries the state shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer

	// flag values, applied over cfg when set on the command line
	logLevel    string
	logJSON     bool
	format      string
	out         string
	metricsFile string
	fitter      string
	points      int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "usl",
		Short: "Universal Scalability Law fitting and evaluation",
		Long: `usl fits X(N) = γN / (1 + α(N-1) + βN(N-1)) to measured
(load, throughput) pairs, evaluates coefficient sets over a load grid and
reports the peak concurrency sqrt((1-α)/β).

Configuration is read from the YAML file named by USL_CONFIG, then USL_*
environment variables, then command line flags.

Examples:
  usl fit data.csv
  usl fit data.csv 0.02 0.0001 1000 --format csv --out curves.csv
  usl eval 0.05 0.0002 1000 --to 200 --points 50
  usl peak 0.05 0.0002
  usl measure --levels 1,2,4,8 --duration 500ms --out data.csv`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON lines")
	pf.StringVarP(&a.format, "format", "f", "text", "report format: text, csv, json")
	pf.StringVarP(&a.out, "out", "o", "", "write output to file instead of stdout")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write coefficients as a Prometheus textfile")
	pf.StringVar(&a.fitter, "fitter", "linear", "fitting algorithm: linear, gradient")
	pf.IntVar(&a.points, "points", 0, "number of grid points (0 = two per measurement)")

	root.AddCommand(a.fitCommand(), a.evalCommand(), a.peakCommand(), a.measureCommand())
	return root
}

// setup loads configuration, applies flags given on the command line and
// builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = a.logJSON
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.metricsFile
	}
	if flags.Changed("fitter") {
		cfg.Fitter = a.fitter
	}
	if flags.Changed("points") {
		cfg.GridPoints = a.points
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(a.stderr, logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// logger returns the configured logger, or a default tint logger when setup
// never ran (for example on a flag parse error).
func (a *app) logger() *slog.Logger {
	if a.log != nil {
		return a.log
	}
	log, _ := logging.New(a.stderr, logging.Options{})
	return log
}

func (a *app) display() report.Display {
	return report.Display{
		EfficiencyScale:   a.cfg.EfficiencyScale,
		ResponseTimeScale: a.cfg.ResponseTimeScale,
	}
}

// output opens --out, or returns stdout with a no-op close.
func (a *app) output() (io.Writer, func() error, error) {
	if a.out == "" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// writeReport renders r to the configured output.
func (a *app) writeReport(r *report.Report) (err error) {
	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return report.Write(w, r, a.cfg.Format)
}
