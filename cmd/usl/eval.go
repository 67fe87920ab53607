package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexshd/usl"
	"github.com/alexshd/usl/internal/metrics"
	"github.com/alexshd/usl/internal/report"
)

const defaultEvalPoints = 100

func (a *app) evalCommand() *cobra.Command {
	var from, to float64

	cmd := &cobra.Command{
		Use:   "eval <alpha> <beta> <gamma>",
		Short: "Evaluate supplied coefficients over a load grid",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runEval(args, from, to)
		},
	}
	cmd.Flags().Float64Var(&from, "from", 1, "first load of the grid")
	cmd.Flags().Float64Var(&to, "to", 100, "last load of the grid")
	return cmd
}

func (a *app) runEval(args []string, from, to float64) error {
	c, err := parseCoefficients(args)
	if err != nil {
		return err
	}
	if to < from {
		return fmt.Errorf("%w: --to %g is below --from %g", usl.ErrInvalidGrid, to, from)
	}

	points := a.cfg.GridPoints
	if points == 0 {
		points = defaultEvalPoints
	}
	grid, err := usl.LinearGrid(from, to, points)
	if err != nil {
		return err
	}

	sources := []report.Source{{Name: "supplied", Coefficients: c}}
	r, err := report.Build(nil, sources, grid, a.display())
	if err != nil {
		return err
	}

	if a.cfg.MetricsFile != "" {
		rec := metrics.New()
		rec.Observe("supplied", c)
		if err := rec.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return err
		}
	}
	return a.writeReport(r)
}
