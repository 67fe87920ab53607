package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexshd/usl"
	"github.com/alexshd/usl/internal/dataset"
	"github.com/alexshd/usl/internal/metrics"
	"github.com/alexshd/usl/internal/report"
)

func (a *app) fitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fit <data-file> [alpha beta gamma]",
		Short: "Fit measurements and compare against optional supplied coefficients",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 4 {
				return fmt.Errorf("fit takes a data file and optionally alpha beta gamma, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFit(cmd.Context(), args)
		},
	}
}

func (a *app) runFit(ctx context.Context, args []string) error {
	ms, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	a.log.Debug("measurements loaded", "file", args[0], "count", len(ms))

	fitted, err := a.fit(ctx, ms)
	if err != nil {
		return err
	}
	a.log.Info("fit complete",
		"fitter", a.cfg.Fitter,
		"alpha", fitted.Alpha,
		"beta", fitted.Beta,
		"gamma", fitted.Gamma,
		"r_squared", fitted.RSquared)

	sources := []report.Source{{Name: "fit", Coefficients: fitted}}
	if len(args) == 4 {
		supplied, err := parseCoefficients(args[1:])
		if err != nil {
			return err
		}
		supplied.Err = usl.MeanSquaredError(supplied, ms)
		supplied.RSquared = usl.RSquared(supplied, ms)
		sources = append(sources, report.Source{Name: "supplied", Coefficients: supplied})
	}

	grid, err := usl.DefaultGrid(ms, a.cfg.GridPoints)
	if err != nil {
		return err
	}

	r, err := report.Build(ms, sources, grid, a.display())
	if err != nil {
		return err
	}
	for _, c := range r.Curves {
		if c.PeakError != "" {
			a.log.Warn("peak undefined", "source", c.Source, "err", c.PeakError)
		}
	}

	if err := a.writeMetrics(ms, sources); err != nil {
		return err
	}
	return a.writeReport(r)
}

// fit runs the configured fitter, honouring ctx when the fitter supports it.
func (a *app) fit(ctx context.Context, ms []usl.Measurement) (usl.Coefficients, error) {
	f, err := usl.NewFitter(a.cfg.Fitter,
		usl.WithIterations(a.cfg.Iterations),
		usl.WithSeed(a.cfg.Seed))
	if err != nil {
		return usl.Coefficients{}, err
	}

	var c usl.Coefficients
	if g, ok := f.(*usl.GradientFitter); ok {
		c, err = g.FitContext(ctx, ms)
	} else {
		c, err = f.Fit(ms)
	}
	if err != nil {
		return usl.Coefficients{}, fmt.Errorf("fit %s: %w", a.cfg.Fitter, err)
	}
	return c, nil
}

func (a *app) writeMetrics(ms []usl.Measurement, sources []report.Source) error {
	if a.cfg.MetricsFile == "" {
		return nil
	}

	rec := metrics.New()
	for _, src := range sources {
		rec.Observe(src.Name, src.Coefficients)
	}
	rec.SetMeasurements(len(ms))

	if err := rec.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return err
	}
	a.log.Debug("metrics written", "path", a.cfg.MetricsFile)
	return nil
}

// parseCoefficients reads alpha, beta, gamma in that order.
func parseCoefficients(args []string) (usl.Coefficients, error) {
	if len(args) != 3 {
		return usl.Coefficients{}, fmt.Errorf("need alpha beta gamma, got %d values", len(args))
	}

	names := [3]string{"alpha", "beta", "gamma"}
	var v [3]float64
	for i, s := range args {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return usl.Coefficients{}, fmt.Errorf("%s: %w", names[i], err)
		}
		v[i] = f
	}
	return usl.Coefficients{Alpha: v[0], Beta: v[1], Gamma: v[2]}, nil
}
