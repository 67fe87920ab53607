package usl

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestEvaluate_LinearWithoutOverhead verifies X(N) = γN when α = β = 0.
func TestEvaluate_LinearWithoutOverhead(t *testing.T) {
	gamma := 3.5
	for _, load := range []float64{0.5, 1, 2, 10, 100, 12345} {
		if got := Evaluate(load, 0, 0, gamma); got != gamma*load {
			t.Errorf("load=%g: expected %g, got %g", load, gamma*load, got)
		}
	}
}

// TestEvaluate_GammaScaling verifies X is homogeneous of degree 1 in γ.
func TestEvaluate_GammaScaling(t *testing.T) {
	alpha, beta, gamma := 0.03, 0.0004, 250.0
	for _, k := range []float64{0.5, 2, 10, 1e3} {
		for _, load := range []float64{1, 7, 50, 300} {
			want := k * Evaluate(load, alpha, beta, gamma)
			got := Evaluate(load, alpha, beta, k*gamma)
			if !approx(got, want, 1e-12*math.Abs(want)) {
				t.Errorf("k=%g load=%g: expected %g, got %g", k, load, want, got)
			}
		}
	}
}

// TestEvaluate_ConcreteScenario checks one hand-computed point.
func TestEvaluate_ConcreteScenario(t *testing.T) {
	got := Evaluate(10, 0.02, 0.0001, 1000)

	// (1000·10) / (1 + 0.02·9 + 0.0001·10·9) = 10000 / 1.189
	if !approx(got, 10000/1.189, 1e-2) || !approx(got, 8410.43, 1e-2) {
		t.Errorf("Expected X(10) ≈ 8410.43, got %.4f", got)
	}

	t.Logf("✓ X(10) = %.2f", got)
}

// TestEvaluate_RisesThenFallsAroundPeak verifies the curve brackets its maximum.
func TestEvaluate_RisesThenFallsAroundPeak(t *testing.T) {
	alpha, beta, gamma := 0.05, 0.0002, 1000.0

	peak, ok, err := PeakConcurrency(alpha, beta)
	if err != nil || !ok {
		t.Fatalf("Expected a peak, got ok=%v err=%v", ok, err)
	}

	grid := []float64{1, peak / 4, peak / 2, peak - 5, peak, peak + 5, 2 * peak, 4 * peak}
	x := EvaluateGrid(grid, alpha, beta, gamma)

	peakIdx := 4
	for i := 1; i <= peakIdx; i++ {
		if x[i] <= x[i-1] {
			t.Errorf("Throughput should rise up to the peak: X(%.2f)=%.2f ≤ X(%.2f)=%.2f",
				grid[i], x[i], grid[i-1], x[i-1])
		}
	}
	for i := peakIdx + 1; i < len(x); i++ {
		if x[i] >= x[i-1] {
			t.Errorf("Throughput should fall after the peak: X(%.2f)=%.2f ≥ X(%.2f)=%.2f",
				grid[i], x[i], grid[i-1], x[i-1])
		}
	}

	t.Logf("✓ peak=%.2f, X(peak)=%.2f", peak, x[peakIdx])
}

// TestEvaluate_NonFiniteDenominator verifies a zero denominator propagates
// as Inf or NaN instead of panicking.
func TestEvaluate_NonFiniteDenominator(t *testing.T) {
	// 1 + (-1)(2-1) = 0
	if got := Evaluate(2, -1, 0, 100); !math.IsInf(got, 1) {
		t.Errorf("Expected +Inf, got %g", got)
	}
	if got := Evaluate(2, -1, 0, 0); !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %g", got)
	}
	// Negative denominator gives a negative, finite throughput.
	if got := Evaluate(3, -1, 0, 100); got >= 0 {
		t.Errorf("Expected negative throughput, got %g", got)
	}
}

func TestEvaluateGrid_PreservesLengthAndOrder(t *testing.T) {
	grid := []float64{40, 1, 7, 3, 100}
	out := EvaluateGrid(grid, 0.02, 0.0001, 1000)

	if len(out) != len(grid) {
		t.Fatalf("Expected %d values, got %d", len(grid), len(out))
	}
	for i, n := range grid {
		if want := Evaluate(n, 0.02, 0.0001, 1000); out[i] != want {
			t.Errorf("out[%d]: expected X(%g)=%g, got %g", i, n, want, out[i])
		}
	}

	empty := EvaluateGrid(nil, 0.02, 0.0001, 1000)
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", empty)
	}
}

func TestEvaluateGrid_Idempotent(t *testing.T) {
	grid, err := LinearGrid(1, 200, 64)
	if err != nil {
		t.Fatal(err)
	}

	first := EvaluateGrid(grid, 0.07, 0.00031, 812.5)
	second := EvaluateGrid(grid, 0.07, 0.00031, 812.5)
	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(second[i]) {
			t.Errorf("N=%g: %v != %v", grid[i], first[i], second[i])
		}
	}
}

func TestPeakConcurrency(t *testing.T) {
	tests := []struct {
		name      string
		alpha     float64
		beta      float64
		wantPeak  float64
		wantOK    bool
		wantError bool
	}{
		{"typical", 0.05, 0.0002, math.Sqrt(0.95 / 0.0002), true, false},
		{"no coherency", 0.1, 0, 0, false, false},
		{"negative coherency", 0.1, -0.001, 0, false, false},
		{"alpha one", 1, 0.01, 0, true, false},
		{"alpha above one", 1.5, 0.01, 0, false, true},
		{"nan alpha", math.NaN(), 0.01, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peak, ok, err := PeakConcurrency(tt.alpha, tt.beta)

			if tt.wantError {
				if !errors.Is(err, ErrNegativeRadicand) {
					t.Fatalf("Expected ErrNegativeRadicand, got %v", err)
				}
				var de *DomainError
				if !errors.As(err, &de) || de.Op != "PeakConcurrency" {
					t.Errorf("Expected *DomainError from PeakConcurrency, got %#v", err)
				}
				if ok {
					t.Error("Expected ok=false with a domain error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !approx(peak, tt.wantPeak, 1e-9) {
				t.Errorf("Expected peak %g, got %g", tt.wantPeak, peak)
			}
		})
	}

	peak, _, _ := PeakConcurrency(0.05, 0.0002)
	if !approx(peak, 68.92, 1e-2) {
		t.Errorf("Expected peak ≈ 68.92, got %.4f", peak)
	}
}

func TestEfficiencyAndResponseTime(t *testing.T) {
	alpha, beta, gamma := 0.02, 0.0001, 1000.0
	grid := []float64{1, 10, 100}

	eff := EfficiencyGrid(grid, alpha, beta, gamma)
	rt := ResponseTimeGrid(grid, alpha, beta)
	if len(eff) != 3 || len(rt) != 3 {
		t.Fatalf("Expected 3 values each, got %d and %d", len(eff), len(rt))
	}

	for i, n := range grid {
		x := Evaluate(n, alpha, beta, gamma)
		if !approx(eff[i], x/n, 1e-9) {
			t.Errorf("N=%g: efficiency expected %g, got %g", n, x/n, eff[i])
		}
		if !approx(gamma*n/rt[i], x, 1e-9) {
			t.Errorf("N=%g: γN/RT expected %g, got %g", n, x, gamma*n/rt[i])
		}
	}

	// A single unit has no overhead.
	if got := ResponseTimeFactor(1, alpha, beta); got != 1 {
		t.Errorf("Expected RT(1) = 1, got %g", got)
	}
	if got := Efficiency(1, alpha, beta, gamma); got != gamma {
		t.Errorf("Expected efficiency(1) = γ, got %g", got)
	}
}

func TestCoefficients_Methods(t *testing.T) {
	c := Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000}

	if c.Throughput(20) != Evaluate(20, c.Alpha, c.Beta, c.Gamma) {
		t.Error("Throughput should delegate to Evaluate")
	}
	if !slices.Equal(c.Curve([]float64{1, 2}), EvaluateGrid([]float64{1, 2}, c.Alpha, c.Beta, c.Gamma)) {
		t.Error("Curve should delegate to EvaluateGrid")
	}
	if got := c.NormalizedEfficiency(1); got != 1 {
		t.Errorf("Expected normalized efficiency 1 at N=1, got %g", got)
	}
	if got := c.NormalizedEfficiency(50); got >= 1 {
		t.Errorf("Expected normalized efficiency < 1 at N=50, got %g", got)
	}
	if got := (Coefficients{}).NormalizedEfficiency(10); got != 0 {
		t.Errorf("Expected 0 for γ=0, got %g", got)
	}

	peak, ok, err := c.Peak()
	if err != nil || !ok {
		t.Fatalf("Expected a peak, got ok=%v err=%v", ok, err)
	}

	xPeak, ok, err := c.PeakThroughput()
	if err != nil || !ok {
		t.Fatalf("Expected peak throughput, got ok=%v err=%v", ok, err)
	}
	if xPeak <= c.Throughput(peak-1) || xPeak <= c.Throughput(peak+1) {
		t.Errorf("X(peak)=%.4f should exceed its neighbours", xPeak)
	}

	if _, ok, err := (Coefficients{Alpha: 0.1, Gamma: 10}).PeakThroughput(); err != nil || ok {
		t.Errorf("Expected no peak without coherency, got ok=%v err=%v", ok, err)
	}

	if s := c.String(); !strings.Contains(s, "alpha=0.050000") {
		t.Errorf("Unexpected String(): %s", s)
	}
}

func TestLinearGrid(t *testing.T) {
	tests := []struct {
		name        string
		start, stop float64
		n           int
		want        []float64
	}{
		{"integers", 1, 10, 10, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"fractional", 1, 2, 3, []float64{1, 1.5, 2}},
		{"single point", 5, 9, 1, []float64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := LinearGrid(tt.start, tt.stop, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(grid, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, grid)
			}
		})
	}

	grid, err := LinearGrid(1, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 4 || grid[0] != 1 || grid[3] != 2 {
		t.Errorf("Expected 4 points from 1 to 2 inclusive, got %v", grid)
	}

	if _, err := LinearGrid(1, 10, 0); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Expected ErrInvalidGrid for n=0, got %v", err)
	}
	if _, err := LinearGrid(math.NaN(), 10, 5); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Expected ErrInvalidGrid for NaN start, got %v", err)
	}
}

func TestDefaultGrid(t *testing.T) {
	ms := []Measurement{{1, 100}, {3, 280}, {5, 430}, {2, 190}, {4, 350}}

	grid, err := DefaultGrid(ms, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}; !slices.Equal(grid, want) {
		t.Errorf("Expected %v, got %v", want, grid)
	}

	grid, err = DefaultGrid(ms, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 5.5, 10}; !slices.Equal(grid, want) {
		t.Errorf("Expected %v, got %v", want, grid)
	}

	if _, err := DefaultGrid(nil, 10); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Expected ErrInvalidGrid without measurements, got %v", err)
	}
}
