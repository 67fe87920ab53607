package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Write renders r in the named format: text, csv or json.
func Write(w io.Writer, r *Report, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return WriteText(w, r)
	case "csv":
		return WriteCSV(w, r)
	case "json":
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV renders r as long-form rows: source, series, load, value.
// Measured points use the source "measured".
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"source", "series", "load", "value"}); err != nil {
		return err
	}
	for _, m := range r.Measurements {
		if err := cw.Write([]string{"measured", "throughput", formatFloat(m.Load), formatFloat(m.Throughput)}); err != nil {
			return err
		}
	}

	for _, c := range r.Curves {
		series := []struct {
			name   string
			values Series
		}{
			{"throughput", c.Throughput},
			{"efficiency", c.Efficiency},
			{"response_time", c.ResponseTime},
		}
		for _, s := range series {
			for i, load := range r.Grid {
				if err := cw.Write([]string{c.Source, s.name, formatFloat(load), formatFloat(s.values[i])}); err != nil {
					return err
				}
			}
		}
		if c.Peak != nil {
			if err := cw.Write([]string{c.Source, "peak", formatFloat(*c.Peak), formatFloat(*c.PeakThroughput)}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteText renders a human-readable summary followed by the curve table.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "=== USL Report ===\n")
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Generated:\t%s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Measurements:\t%d\n", len(r.Measurements))
	fmt.Fprintf(tw, "Display scales:\tefficiency ×%g, response time ×%g\n\n",
		r.Display.EfficiencyScale, r.Display.ResponseTimeScale)

	fmt.Fprintf(tw, "SOURCE\tGAMMA\tALPHA\tBETA\tR²\tMSE\tPEAK\tX(PEAK)\n")
	for _, c := range r.Curves {
		peak, xPeak := "none", "-"
		switch {
		case c.PeakError != "":
			peak = "undefined"
		case c.Peak != nil:
			peak = fmt.Sprintf("%.2f", *c.Peak)
			xPeak = fmt.Sprintf("%.2f", *c.PeakThroughput)
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t%.4f\t%.4f\t%s\t%s\n",
			c.Source, c.Coefficients.Gamma, c.Coefficients.Alpha, c.Coefficients.Beta,
			c.Coefficients.RSquared, c.Err, peak, xPeak)
	}
	for _, c := range r.Curves {
		if c.PeakError != "" {
			fmt.Fprintf(tw, "  %s: %s\n", c.Source, c.PeakError)
		}
	}

	if len(r.Measurements) > 0 {
		fmt.Fprintf(tw, "\nLOAD\tMEASURED")
		for _, c := range r.Curves {
			fmt.Fprintf(tw, "\t%s", strings.ToUpper(c.Source))
		}
		fmt.Fprintln(tw)
		for _, m := range r.Measurements {
			fmt.Fprintf(tw, "%g\t%.2f", m.Load, m.Throughput)
			for _, c := range r.Curves {
				fmt.Fprintf(tw, "\t%.2f", c.Coefficients.Throughput(m.Load))
			}
			fmt.Fprintln(tw)
		}
	}

	fmt.Fprintf(tw, "\nLOAD")
	for _, c := range r.Curves {
		fmt.Fprintf(tw, "\t%s X\t%s EFF\t%s RT", c.Source, c.Source, c.Source)
	}
	fmt.Fprintln(tw)
	for i, load := range r.Grid {
		fmt.Fprintf(tw, "%.2f", load)
		for _, c := range r.Curves {
			fmt.Fprintf(tw, "\t%.2f\t%.2f\t%.2f", c.Throughput[i], c.Efficiency[i], c.ResponseTime[i])
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
