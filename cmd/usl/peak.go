package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexshd/usl"
)

func (a *app) peakCommand() *cobra.Command {
	var gamma float64

	cmd := &cobra.Command{
		Use:   "peak <alpha> <beta>",
		Short: "Print the load at which throughput peaks",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := parseCoefficients([]string{args[0], args[1], "0"})
			if err != nil {
				return err
			}
			c.Gamma = gamma
			return a.runPeak(c)
		},
	}
	cmd.Flags().Float64Var(&gamma, "gamma", 0, "when set, also print throughput at the peak")
	return cmd
}

func (a *app) runPeak(c usl.Coefficients) (err error) {
	peak, ok, err := c.Peak()
	if err != nil {
		return err
	}

	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()

	if !ok {
		_, err = fmt.Fprintln(w, "no peak")
		return err
	}
	if _, err := fmt.Fprintf(w, "peak concurrency: %.2f\n", peak); err != nil {
		return err
	}
	if c.Gamma > 0 {
		_, err = fmt.Fprintf(w, "peak throughput: %.2f\n", c.Throughput(peak))
	}
	return err
}
