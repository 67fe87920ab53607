package usl

import (
	"fmt"
	"strings"
	"testing"
)

// AssertionConfig contains thresholds for scalability properties.
type AssertionConfig struct {
	// Contention threshold (α < this value passes)
	MaxContention float64

	// Coherency threshold (β < this value passes)
	MaxCoherency float64

	// Minimum R² for model fit quality
	MinRSquared float64

	// Linear scaling tolerance (1.0 = perfect)
	MinEfficiency float64

	// Maximum load to check
	MaxLoad float64

	// Fitter used to derive coefficients (nil = LinearFitter)
	Fitter Fitter
}

// DefaultAssertionConfig returns conservative thresholds.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		MaxContention: 0.01, // 1% contention
		MaxCoherency:  0.01, // 1% coherency overhead
		MinRSquared:   0.95, // 95% model fit
		MinEfficiency: 0.95, // 95% of ideal throughput
		MaxLoad:       16,
	}
}

func fitFor(t testing.TB, ms []Measurement, cfg AssertionConfig) Coefficients {
	t.Helper()

	f := cfg.Fitter
	if f == nil {
		f = LinearFitter{}
	}
	c, err := f.Fit(ms)
	if err != nil {
		t.Fatalf("Failed to fit USL model: %v", err)
	}
	return c
}

// AssertZeroContention verifies α is below cfg.MaxContention and the model
// explains the data.
func AssertZeroContention(t testing.TB, ms []Measurement, cfg AssertionConfig) {
	t.Helper()

	c := fitFor(t, ms, cfg)

	if c.Alpha > cfg.MaxContention {
		t.Errorf("Contention too high: α = %.6f (max: %.6f)", c.Alpha, cfg.MaxContention)
	}
	if c.RSquared < cfg.MinRSquared {
		t.Errorf("Poor model fit: R² = %.4f (min: %.4f)", c.RSquared, cfg.MinRSquared)
	}

	t.Logf("✓ Contention: α = %.6f (threshold: %.6f), R² = %.4f", c.Alpha, cfg.MaxContention, c.RSquared)
}

// AssertZeroCoherency verifies β is below cfg.MaxCoherency.
func AssertZeroCoherency(t testing.TB, ms []Measurement, cfg AssertionConfig) {
	t.Helper()

	c := fitFor(t, ms, cfg)

	if c.Beta > cfg.MaxCoherency {
		t.Errorf("Coherency overhead too high: β = %.6f (max: %.6f)", c.Beta, cfg.MaxCoherency)
	}

	t.Logf("✓ Coherency: β = %.6f (threshold: %.6f)", c.Beta, cfg.MaxCoherency)
}

// AssertLinearScaling verifies X(N)/(γN) ≥ cfg.MinEfficiency for every
// measured load up to cfg.MaxLoad.
func AssertLinearScaling(t testing.TB, ms []Measurement, cfg AssertionConfig) {
	t.Helper()

	c := fitFor(t, ms, cfg)

	var failures []string
	for _, m := range ms {
		if m.Load > cfg.MaxLoad {
			continue
		}
		eff := c.NormalizedEfficiency(m.Load)
		if eff < cfg.MinEfficiency {
			failures = append(failures, fmt.Sprintf("  N=%g: efficiency=%.2f%% (min: %.2f%%)",
				m.Load, eff*100, cfg.MinEfficiency*100))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Scaling not linear:\n%s\nα=%.6f, β=%.6f", strings.Join(failures, "\n"), c.Alpha, c.Beta)
	}
}

// AssertNoRetrograde verifies predicted throughput never decreases between
// consecutive measured loads up to cfg.MaxLoad.
func AssertNoRetrograde(t testing.TB, ms []Measurement, cfg AssertionConfig) {
	t.Helper()

	c := fitFor(t, ms, cfg)

	var failures []string
	for i := 1; i < len(ms); i++ {
		if ms[i].Load > cfg.MaxLoad {
			break
		}
		prev := c.Throughput(ms[i-1].Load)
		curr := c.Throughput(ms[i].Load)
		if curr < prev {
			failures = append(failures, fmt.Sprintf("  N=%g→%g: %.2f → %.2f (retrograde)",
				ms[i-1].Load, ms[i].Load, prev, curr))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Retrograde scaling detected:\n%s\nα=%.6f, β=%.6f", strings.Join(failures, "\n"), c.Alpha, c.Beta)
	}
}

// AssertPeakBeyond verifies the fitted peak concurrency is at least load.
// Curves without a peak pass.
func AssertPeakBeyond(t testing.TB, ms []Measurement, load float64, cfg AssertionConfig) {
	t.Helper()

	c := fitFor(t, ms, cfg)

	peak, ok, err := c.Peak()
	switch {
	case err != nil:
		t.Errorf("Peak concurrency undefined: %v", err)
	case !ok:
		t.Logf("✓ No peak: β = %.6f", c.Beta)
	case peak < load:
		t.Errorf("Peak concurrency %.2f is below required load %.2f", peak, load)
	default:
		t.Logf("✓ Peak concurrency %.2f ≥ %.2f", peak, load)
	}
}

// PrintAnalysis logs the fitted coefficients and measured vs predicted throughput.
func PrintAnalysis(t testing.TB, ms []Measurement) {
	t.Helper()

	c := fitFor(t, ms, DefaultAssertionConfig())

	t.Logf("=== USL Analysis ===")
	t.Logf("  γ (gamma) = %.2f", c.Gamma)
	t.Logf("  α (alpha) = %.6f (contention)", c.Alpha)
	t.Logf("  β (beta)  = %.6f (coherency)", c.Beta)
	t.Logf("  R²        = %.4f", c.RSquared)

	if peak, ok, err := c.Peak(); err == nil && ok {
		t.Logf("  peak      = %.2f", peak)
	}

	t.Logf("  N        Measured      Predicted  Efficiency")
	for _, m := range ms {
		t.Logf("  %-6g %12.2f  %12.2f  %8.1f%%",
			m.Load, m.Throughput, c.Throughput(m.Load), c.NormalizedEfficiency(m.Load)*100)
	}
}
