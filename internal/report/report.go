// Package report composes one or more coefficient sources into the series
// a plotting tool needs, and renders them as text, CSV or JSON.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/alexshd/usl"
	"github.com/google/uuid"
)

// Sentinel errors for this package.
var (
	ErrNoSources     = errors.New("no coefficient sources")
	ErrEmptyGrid     = errors.New("empty load grid")
	ErrUnknownFormat = errors.New("unknown report format")
)

// Display holds presentation-only multipliers for the derived series.
type Display struct {
	EfficiencyScale   float64 `json:"efficiency_scale"`
	ResponseTimeScale float64 `json:"response_time_scale"`
}

// DefaultDisplay returns the scales the charts have always used.
func DefaultDisplay() Display {
	return Display{EfficiencyScale: 10, ResponseTimeScale: 1000}
}

// Source names one set of coefficients, e.g. "fit" or "supplied".
type Source struct {
	Name         string
	Coefficients usl.Coefficients
}

// Series is a sequence of values in which non-finite entries encode as null.
type Series []float64

// MarshalJSON implements json.Marshaler.
func (s Series) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 2+len(s)*8)
	b = append(b, '[')
	for i, v := range s {
		if i > 0 {
			b = append(b, ',')
		}
		enc, _ := Float(v).MarshalJSON()
		b = append(b, enc...)
	}
	return append(b, ']'), nil
}

// Curve is everything derived from one source over the grid.
type Curve struct {
	Source         string           `json:"source"`
	Coefficients   usl.Coefficients `json:"coefficients"`
	Throughput     Series           `json:"throughput"`
	Efficiency     Series           `json:"efficiency"`
	ResponseTime   Series           `json:"response_time"`
	Peak           *float64         `json:"peak,omitempty"`
	PeakThroughput *float64         `json:"peak_throughput,omitempty"`
	PeakError      string           `json:"peak_error,omitempty"`
	Err            float64          `json:"mse"`
}

// Report is the composed output of one run.
type Report struct {
	RunID        string            `json:"run_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Display      Display           `json:"display"`
	Measurements []usl.Measurement `json:"measurements"`
	Grid         Series            `json:"grid"`
	Curves       []Curve           `json:"curves"`
}

// Option configures Build.
type Option func(*Report)

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(r *Report) {
		if id != "" {
			r.RunID = id
		}
	}
}

// WithTime overrides the generation timestamp.
func WithTime(t time.Time) Option {
	return func(r *Report) { r.GeneratedAt = t }
}

// Build evaluates every source over grid. Measurements may be empty when
// the coefficients were supplied without data. A source whose peak is
// outside its domain gets PeakError instead of failing the build.
func Build(ms []usl.Measurement, sources []Source, grid []float64, display Display, opts ...Option) (*Report, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}

	r := &Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Display:      display,
		Measurements: ms,
		Grid:         Series(grid),
		Curves:       make([]Curve, 0, len(sources)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, src := range sources {
		r.Curves = append(r.Curves, buildCurve(src, ms, grid, display))
	}
	return r, nil
}

func buildCurve(src Source, ms []usl.Measurement, grid []float64, display Display) Curve {
	c := src.Coefficients

	eff := usl.EfficiencyGrid(grid, c.Alpha, c.Beta, c.Gamma)
	rt := usl.ResponseTimeGrid(grid, c.Alpha, c.Beta)
	for i := range grid {
		eff[i] *= display.EfficiencyScale
		rt[i] *= display.ResponseTimeScale
	}

	curve := Curve{
		Source:       src.Name,
		Coefficients: c,
		Throughput:   Series(c.Curve(grid)),
		Efficiency:   Series(eff),
		ResponseTime: Series(rt),
		Err:          usl.MeanSquaredError(c, ms),
	}

	peak, ok, err := c.Peak()
	switch {
	case err != nil:
		curve.PeakError = err.Error()
	case ok:
		xPeak := c.Throughput(peak)
		curve.Peak = &peak
		curve.PeakThroughput = &xPeak
	}
	return curve
}

// Curve returns the curve for the named source.
func (r *Report) Curve(name string) (Curve, bool) {
	for _, c := range r.Curves {
		if c.Source == name {
			return c, true
		}
	}
	return Curve{}, false
}

// Float is a float64 that encodes non-finite values as null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type coefficientsJSON struct {
	Alpha    Float `json:"alpha"`
	Beta     Float `json:"beta"`
	Gamma    Float `json:"gamma"`
	RSquared Float `json:"r_squared"`
	FitErr   Float `json:"fit_mse"`
}

// MarshalJSON encodes coefficients with snake_case keys, and every float
// including the peak markers as Float, so non-finite values become null
// instead of an encoding error.
func (c Curve) MarshalJSON() ([]byte, error) {
	type alias Curve
	return json.Marshal(struct {
		alias
		Coefficients   coefficientsJSON `json:"coefficients"`
		Peak           *Float           `json:"peak,omitempty"`
		PeakThroughput *Float           `json:"peak_throughput,omitempty"`
		Err            Float            `json:"mse"`
	}{
		alias:          alias(c),
		Peak:           floatPtr(c.Peak),
		PeakThroughput: floatPtr(c.PeakThroughput),
		Coefficients: coefficientsJSON{
			Alpha:    Float(c.Coefficients.Alpha),
			Beta:     Float(c.Coefficients.Beta),
			Gamma:    Float(c.Coefficients.Gamma),
			RSquared: Float(c.Coefficients.RSquared),
			FitErr:   Float(c.Coefficients.Err),
		},
		Err: Float(c.Err),
	})
}

func floatPtr(v *float64) *Float {
	if v == nil {
		return nil
	}
	f := Float(*v)
	return &f
}

type measurementJSON struct {
	Load       Float `json:"load"`
	Throughput Float `json:"throughput"`
}

// MarshalJSON encodes measurements through Float so a non-finite value
// read from a data source renders as null.
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	ms := make([]measurementJSON, len(r.Measurements))
	for i, m := range r.Measurements {
		ms[i] = measurementJSON{Load: Float(m.Load), Throughput: Float(m.Throughput)}
	}
	return json.Marshal(struct {
		alias
		Measurements []measurementJSON `json:"measurements"`
	}{
		alias:        alias(r),
		Measurements: ms,
	})
}

func (r *Report) String() string {
	return fmt.Sprintf("report %s: %d measurements, %d grid points, %d curves",
		r.RunID, len(r.Measurements), len(r.Grid), len(r.Curves))
}
