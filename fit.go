package usl

import (
	"fmt"
	"math"
	"strings"
)

// Fitter derives USL coefficients from measurements.
// The evaluator never depends on a particular fitting algorithm.
type Fitter interface {
	Fit(ms []Measurement) (Coefficients, error)
}

// FitterFunc adapts a function to the Fitter interface.
type FitterFunc func(ms []Measurement) (Coefficients, error)

// Fit calls f(ms).
func (f FitterFunc) Fit(ms []Measurement) (Coefficients, error) { return f(ms) }

// NewFitter resolves a fitter by name: "linear" or "gradient".
func NewFitter(name string, opts ...GradientOption) (Fitter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return LinearFitter{}, nil
	case "gradient", "gd":
		return NewGradientFitter(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFitter, name)
	}
}

// LinearFitter performs least squares on the linearised USL.
//
// For X(N) = γN / (1 + α(N-1) + βN(N-1)), rearrange to:
//
//	N/X(N) = 1/γ + (α/γ)(N-1) + (β/γ)N(N-1)
//
// This is linear in 1/γ, α/γ, β/γ. Solve via least squares, then recover γ, α, β.
type LinearFitter struct{}

// Fit implements Fitter. Points with non-positive load or throughput are
// ignored; at least 3 usable points are required.
func (LinearFitter) Fit(ms []Measurement) (Coefficients, error) {
	usable := usablePoints(ms)
	if len(usable) < 3 {
		return Coefficients{}, fmt.Errorf("%w: need at least 3 points with positive load and throughput, got %d",
			ErrInsufficientData, len(usable))
	}

	// Y = N/X(N), X1 = (N-1), X2 = N(N-1)
	// Solve: Y = b0 + b1*X1 + b2*X2
	var sumY, sumX1, sumX2, sumX1X1, sumX2X2, sumX1X2, sumYX1, sumYX2 float64
	var sumOne float64

	for _, m := range usable {
		N := m.Load
		Y := N / m.Throughput
		X1 := N - 1
		X2 := N * (N - 1)

		sumY += Y
		sumX1 += X1
		sumX2 += X2
		sumX1X1 += X1 * X1
		sumX2X2 += X2 * X2
		sumX1X2 += X1 * X2
		sumYX1 += Y * X1
		sumYX2 += Y * X2
		sumOne++
	}

	// Cramer's rule on the normal equations
	// [n     sumX1   sumX2  ] [b0]   [sumY  ]
	// [sumX1 sumX1X1 sumX1X2] [b1] = [sumYX1]
	// [sumX2 sumX1X2 sumX2X2] [b2]   [sumYX2]
	det := sumOne*(sumX1X1*sumX2X2-sumX1X2*sumX1X2) -
		sumX1*(sumX1*sumX2X2-sumX1X2*sumX2) +
		sumX2*(sumX1*sumX1X2-sumX1X1*sumX2)

	if math.Abs(det) < 1e-10 {
		// Loads too few or too clustered to separate α from β.
		// Fall back to linear scaling from the smallest load.
		first := smallestLoad(usable)
		c := Coefficients{Gamma: first.Throughput / first.Load}
		return withQuality(c, usable), nil
	}

	det0 := sumY*(sumX1X1*sumX2X2-sumX1X2*sumX1X2) -
		sumX1*(sumYX1*sumX2X2-sumX1X2*sumYX2) +
		sumX2*(sumYX1*sumX1X2-sumX1X1*sumYX2)

	det1 := sumOne*(sumYX1*sumX2X2-sumX1X2*sumYX2) -
		sumY*(sumX1*sumX2X2-sumX1X2*sumX2) +
		sumX2*(sumX1*sumYX2-sumYX1*sumX2)

	det2 := sumOne*(sumX1X1*sumYX2-sumYX1*sumX1X2) -
		sumX1*(sumX1*sumYX2-sumYX1*sumX2) +
		sumY*(sumX1*sumX1X2-sumX1X1*sumX2)

	b0 := det0 / det
	b1 := det1 / det
	b2 := det2 / det

	c := Coefficients{
		Gamma: 1.0 / b0,
		Alpha: b1 / b0,
		Beta:  b2 / b0,
	}

	// β < 0 is a linearisation artifact from noise (or superlinear caching).
	// Refit the contention-only model with β clamped to 0.
	if c.Beta < 0 && c.Alpha > 0 {
		if refit, ok := fitContentionOnly(usable); ok {
			c = refit
		}
	}

	return withQuality(c, usable), nil
}

// fitContentionOnly solves Y = b0 + b1*(N-1), i.e. the USL with β = 0.
func fitContentionOnly(ms []Measurement) (Coefficients, bool) {
	var sumY, sumX1, sumX1X1, sumYX1, sumOne float64
	for _, m := range ms {
		N := m.Load
		Y := N / m.Throughput
		X1 := N - 1
		sumY += Y
		sumX1 += X1
		sumX1X1 += X1 * X1
		sumYX1 += Y * X1
		sumOne++
	}

	det := sumOne*sumX1X1 - sumX1*sumX1
	if math.Abs(det) <= 1e-10 {
		return Coefficients{}, false
	}

	b0 := (sumX1X1*sumY - sumX1*sumYX1) / det
	b1 := (sumOne*sumYX1 - sumX1*sumY) / det
	return Coefficients{Gamma: 1.0 / b0, Alpha: b1 / b0}, true
}

// MeanSquaredError returns the mean of squared residuals of c against ms.
func MeanSquaredError(c Coefficients, ms []Measurement) float64 {
	if len(ms) == 0 {
		return 0
	}
	var sum float64
	for _, m := range ms {
		d := c.Throughput(m.Load) - m.Throughput
		sum += d * d
	}
	return sum / float64(len(ms))
}

// RSquared returns the coefficient of determination of c against ms.
// It is 0 when the measured throughput has no variance.
func RSquared(c Coefficients, ms []Measurement) float64 {
	if len(ms) == 0 {
		return 0
	}

	var mean float64
	for _, m := range ms {
		mean += m.Throughput
	}
	mean /= float64(len(ms))

	var ssRes, ssTot float64
	for _, m := range ms {
		predicted := c.Throughput(m.Load)
		ssRes += (m.Throughput - predicted) * (m.Throughput - predicted)
		ssTot += (m.Throughput - mean) * (m.Throughput - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func withQuality(c Coefficients, ms []Measurement) Coefficients {
	c.Err = MeanSquaredError(c, ms)
	c.RSquared = RSquared(c, ms)
	return c
}

func usablePoints(ms []Measurement) []Measurement {
	out := make([]Measurement, 0, len(ms))
	for _, m := range ms {
		if m.Load > 0 && m.Throughput > 0 {
			out = append(out, m)
		}
	}
	return out
}

func smallestLoad(ms []Measurement) Measurement {
	first := ms[0]
	for _, m := range ms[1:] {
		if m.Load < first.Load {
			first = m
		}
	}
	return first
}
