package usl

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
)

// GradientFitter minimises the mean squared error of the USL against the
// measurements directly, without linearisation.
//
// Each iteration takes a diagonally scaled gradient step. When the step does
// not improve the error, or leaves the bounds 0 ≤ α ≤ 1, β ≥ 0, γ ≥ 0, a
// random perturbation is tried instead. Only improvements are kept, so the
// error never increases.
type GradientFitter struct {
	iterations int
	step       float64
	seed       uint64
	initial    *Coefficients
}

// GradientOption configures a GradientFitter.
type GradientOption func(*GradientFitter)

// WithIterations sets the number of iterations (default 20000).
func WithIterations(n int) GradientOption {
	return func(g *GradientFitter) {
		if n > 0 {
			g.iterations = n
		}
	}
}

// WithStep sets the relative size of random perturbations (default 0.001).
func WithStep(step float64) GradientOption {
	return func(g *GradientFitter) {
		if step > 0 {
			g.step = step
		}
	}
}

// WithSeed makes the random perturbations reproducible.
func WithSeed(seed uint64) GradientOption {
	return func(g *GradientFitter) { g.seed = seed }
}

// WithInitial starts the search from c instead of the default guess.
func WithInitial(c Coefficients) GradientOption {
	return func(g *GradientFitter) { g.initial = &c }
}

// NewGradientFitter returns a GradientFitter with defaults applied.
func NewGradientFitter(opts ...GradientOption) *GradientFitter {
	g := &GradientFitter{
		iterations: 20000,
		step:       0.001,
		seed:       1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit implements Fitter.
func (g *GradientFitter) Fit(ms []Measurement) (Coefficients, error) {
	return g.FitContext(context.Background(), ms)
}

// FitContext is Fit with cancellation checked between iterations.
func (g *GradientFitter) FitContext(ctx context.Context, ms []Measurement) (Coefficients, error) {
	usable := usablePoints(ms)
	if len(usable) < 3 {
		return Coefficients{}, fmt.Errorf("%w: need at least 3 points with positive load and throughput, got %d",
			ErrInsufficientData, len(usable))
	}

	cur := g.start(usable)
	if !inBounds(cur) {
		return Coefficients{}, &DomainError{Op: "GradientFitter", Alpha: cur.Alpha, Beta: cur.Beta,
			Err: fmt.Errorf("initial coefficients out of bounds")}
	}
	curErr := MeanSquaredError(cur, usable)

	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	rate := 1.0

	for i := 0; i < g.iterations; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Coefficients{}, err
			}
		}
		if curErr == 0 {
			break
		}

		next := g.gradientStep(cur, usable, rate)
		if nextErr := MeanSquaredError(next, usable); inBounds(next) && nextErr < curErr {
			cur, curErr = next, nextErr
			rate = math.Min(rate*2, 1)
			continue
		}
		rate = math.Max(rate/2, 1e-6)

		// That was worse, so try something random.
		next = g.perturb(cur, rng)
		if nextErr := MeanSquaredError(next, usable); inBounds(next) && nextErr < curErr {
			cur, curErr = next, nextErr
		}
	}

	return withQuality(cur, usable), nil
}

func (g *GradientFitter) start(ms []Measurement) Coefficients {
	if g.initial != nil {
		return Coefficients{Alpha: g.initial.Alpha, Beta: g.initial.Beta, Gamma: g.initial.Gamma}
	}
	first := smallestLoad(ms)
	return Coefficients{
		Alpha: 0.01,
		Beta:  0.001,
		Gamma: first.Throughput / first.Load,
	}
}

// gradientStep moves against the error gradient, each coordinate scaled by
// the Gauss-Newton diagonal so α, β and γ move at comparable rates.
func (g *GradientFitter) gradientStep(c Coefficients, ms []Measurement, rate float64) Coefficients {
	var ga, gb, gg float64 // gradient
	var ha, hb, hg float64 // diagonal curvature
	for _, m := range ms {
		n := m.Load
		d := ResponseTimeFactor(n, c.Alpha, c.Beta)
		dist := c.Throughput(n) - m.Throughput

		dXa := -(n * c.Gamma) * (n - 1) / (d * d)
		dXb := -(n * c.Gamma) * n * (n - 1) / (d * d)
		dXg := n / d

		ga += dist * dXa
		gb += dist * dXb
		gg += dist * dXg
		ha += dXa * dXa
		hb += dXb * dXb
		hg += dXg * dXg
	}

	return Coefficients{
		Alpha: c.Alpha - rate*scaled(ga, ha),
		Beta:  c.Beta - rate*scaled(gb, hb),
		Gamma: c.Gamma - rate*scaled(gg, hg),
	}
}

func scaled(grad, curvature float64) float64 {
	if curvature == 0 || math.IsNaN(curvature) || math.IsInf(curvature, 0) {
		return 0
	}
	return grad / curvature
}

func (g *GradientFitter) perturb(c Coefficients, rng *rand.Rand) Coefficients {
	jitter := func(v, floor float64) float64 {
		scale := math.Max(math.Abs(v), floor)
		return v + float64(rng.IntN(11)-5)*g.step*scale
	}
	return Coefficients{
		Alpha: jitter(c.Alpha, 1e-3),
		Beta:  jitter(c.Beta, 1e-6),
		Gamma: jitter(c.Gamma, 1e-3),
	}
}

func inBounds(c Coefficients) bool {
	return c.Alpha >= 0 && c.Alpha <= 1 && c.Beta >= 0 && c.Gamma >= 0
}
