package usl

import (
	"fmt"
	"math"
)

// Measurement is one observed (load, throughput) pair.
type Measurement struct {
	Load       float64 `json:"load"`       // Concurrency or number of users (N)
	Throughput float64 `json:"throughput"` // Observed work rate at that load
}

// Coefficients holds the Universal Scalability Law parameters.
//
// Coefficients are produced by a Fitter (or supplied by hand) and are
// never modified afterwards.
type Coefficients struct {
	Alpha float64 // α: Contention coefficient (serialization)
	Beta  float64 // β: Coherency coefficient (crosstalk)
	Gamma float64 // γ: Throughput of a single unit (linear slope)

	RSquared float64 // R²: Goodness of fit, 0 when not fitted
	Err      float64 // Mean squared error of the fit, 0 when not fitted
}

// Evaluate returns the predicted throughput at load:
//
//	X(N) = γN / (1 + α(N-1) + βN(N-1))
//
// The result is only meaningful for load > 0, α, β ≥ 0 and γ > 0. Outside
// that range the formula is still computed; a zero or negative denominator
// yields ±Inf or NaN rather than a panic.
func Evaluate(load, alpha, beta, gamma float64) float64 {
	return (gamma * load) / ResponseTimeFactor(load, alpha, beta)
}

// EvaluateGrid applies Evaluate to every load in grid, preserving order.
func EvaluateGrid(grid []float64, alpha, beta, gamma float64) []float64 {
	out := make([]float64, len(grid))
	for i, n := range grid {
		out[i] = Evaluate(n, alpha, beta, gamma)
	}
	return out
}

// ResponseTimeFactor is the USL denominator 1 + α(N-1) + βN(N-1), the
// response time at load N relative to a single unit.
func ResponseTimeFactor(load, alpha, beta float64) float64 {
	return 1 + alpha*(load-1) + beta*load*(load-1)
}

// ResponseTimeGrid applies ResponseTimeFactor to every load in grid.
func ResponseTimeGrid(grid []float64, alpha, beta float64) []float64 {
	out := make([]float64, len(grid))
	for i, n := range grid {
		out[i] = ResponseTimeFactor(n, alpha, beta)
	}
	return out
}

// Efficiency returns throughput per unit of load, X(N)/N.
func Efficiency(load, alpha, beta, gamma float64) float64 {
	return Evaluate(load, alpha, beta, gamma) / load
}

// EfficiencyGrid applies Efficiency to every load in grid.
func EfficiencyGrid(grid []float64, alpha, beta, gamma float64) []float64 {
	out := make([]float64, len(grid))
	for i, n := range grid {
		out[i] = Efficiency(n, alpha, beta, gamma)
	}
	return out
}

// PeakConcurrency returns the load at which throughput is maximal:
//
//	N_peak = sqrt((1-α)/β)
//
// When β ≤ 0 the curve has no maximum and ok is false with a nil error.
// When (1-α)/β is negative (α > 1) a *DomainError wrapping
// ErrNegativeRadicand is returned so callers can skip the peak marker.
func PeakConcurrency(alpha, beta float64) (peak float64, ok bool, err error) {
	if beta <= 0 {
		return 0, false, nil
	}

	radicand := (1 - alpha) / beta
	if !(radicand >= 0) { // also catches NaN
		return 0, false, &DomainError{Op: "PeakConcurrency", Alpha: alpha, Beta: beta, Err: ErrNegativeRadicand}
	}

	return math.Sqrt(radicand), true, nil
}

// Throughput predicts throughput at load.
func (c Coefficients) Throughput(load float64) float64 {
	return Evaluate(load, c.Alpha, c.Beta, c.Gamma)
}

// Curve predicts throughput at every load in grid.
func (c Coefficients) Curve(grid []float64) []float64 {
	return EvaluateGrid(grid, c.Alpha, c.Beta, c.Gamma)
}

// Efficiency returns X(N)/N at load.
func (c Coefficients) Efficiency(load float64) float64 {
	return Efficiency(load, c.Alpha, c.Beta, c.Gamma)
}

// NormalizedEfficiency returns the ratio of predicted to ideal throughput,
// X(N)/(γN). 1.0 is perfect linear scaling.
func (c Coefficients) NormalizedEfficiency(load float64) float64 {
	ideal := c.Gamma * load
	if ideal == 0 {
		return 0
	}
	return c.Throughput(load) / ideal
}

// Peak returns the peak concurrency for these coefficients.
func (c Coefficients) Peak() (float64, bool, error) {
	return PeakConcurrency(c.Alpha, c.Beta)
}

// PeakThroughput returns the throughput at the peak concurrency.
// ok is false when there is no peak.
func (c Coefficients) PeakThroughput() (float64, bool, error) {
	peak, ok, err := c.Peak()
	if err != nil || !ok {
		return 0, ok, err
	}
	return c.Throughput(peak), true, nil
}

func (c Coefficients) String() string {
	return fmt.Sprintf("gamma=%.6f, alpha=%.6f, beta=%.6f", c.Gamma, c.Alpha, c.Beta)
}

// LinearGrid returns n evenly spaced loads from start to stop inclusive.
func LinearGrid(start, stop float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least 1 point, got %d", ErrInvalidGrid, n)
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil, fmt.Errorf("%w: bounds must be finite", ErrInvalidGrid)
	}

	grid := make([]float64, n)
	if n == 1 {
		grid[0] = start
		return grid, nil
	}

	step := (stop - start) / float64(n-1)
	for i := range grid {
		grid[i] = start + float64(i)*step
	}
	grid[n-1] = stop
	return grid, nil
}

// DefaultGrid spans 1 to twice the largest measured load. When points ≤ 0
// it uses two points per measurement.
func DefaultGrid(ms []Measurement, points int) ([]float64, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: no measurements to derive a grid from", ErrInvalidGrid)
	}

	maxLoad := ms[0].Load
	for _, m := range ms[1:] {
		if m.Load > maxLoad {
			maxLoad = m.Load
		}
	}
	if points <= 0 {
		points = 2 * len(ms)
	}

	stop := 2 * maxLoad
	if stop < 1 {
		stop = 1
	}
	return LinearGrid(1, stop, points)
}
