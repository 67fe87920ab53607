package usl

import (
	"math"
	"testing"
)

func TestIsRetrograde(t *testing.T) {
	tests := []struct {
		name  string
		load  float64
		alpha float64
		beta  float64
		want  bool
	}{
		{"before peak", 5, 0.05, 0.01, false}, // peak ≈ 9.75
		{"beyond peak", 50, 0.05, 0.01, true},
		{"no coherency", 1e6, 0.05, 0, false},
		{"alpha above one", 2, 1.2, 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetrograde(tt.load, tt.alpha, tt.beta); got != tt.want {
				t.Errorf("IsRetrograde(%g, %g, %g) = %v, want %v", tt.load, tt.alpha, tt.beta, got, tt.want)
			}
		})
	}
}

func TestHeadroom(t *testing.T) {
	c := Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000}
	peak, _, _ := c.Peak()

	if got := Headroom(c, 10); math.Abs(got-(peak-10)) > 1e-9 {
		t.Errorf("Headroom at 10 = %.4f, want %.4f", got, peak-10)
	}
	if got := Headroom(c, 500); got != 0 {
		t.Errorf("Headroom beyond peak = %.4f, want 0", got)
	}
	if got := Headroom(Coefficients{Alpha: 0.1, Gamma: 1}, 500); !math.IsInf(got, 1) {
		t.Errorf("Headroom without peak = %.4f, want +Inf", got)
	}
	if got := Headroom(Coefficients{Alpha: 2, Beta: 0.1, Gamma: 1}, 1); got != 0 {
		t.Errorf("Headroom outside domain = %.4f, want 0", got)
	}

	t.Logf("✓ peak=%.2f, headroom at N=10: %.2f", peak, Headroom(c, 10))
}

func TestCapacityPlan(t *testing.T) {
	c := Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000}
	loads := []float64{1, 32, 64, 128}

	plan := CapacityPlan(c, loads)
	if len(plan) != len(loads) {
		t.Fatalf("Expected %d plan points, got %d", len(loads), len(plan))
	}

	for i, p := range plan {
		if p.Load != loads[i] {
			t.Errorf("plan[%d].Load = %g, want %g", i, p.Load, loads[i])
		}
		if p.Throughput != c.Throughput(loads[i]) {
			t.Errorf("plan[%d].Throughput = %.2f, want %.2f", i, p.Throughput, c.Throughput(loads[i]))
		}
		t.Logf("  N=%-4g X=%10.2f efficiency=%5.1f%% retrograde=%v",
			p.Load, p.Throughput, p.NormalizedEfficiency*100, p.Retrograde)
	}

	if plan[0].NormalizedEfficiency != 1 {
		t.Errorf("Expected efficiency 1 at N=1, got %.4f", plan[0].NormalizedEfficiency)
	}
	if plan[1].Retrograde || !plan[3].Retrograde {
		t.Errorf("Retrograde flags wrong: N=32 %v, N=128 %v", plan[1].Retrograde, plan[3].Retrograde)
	}
}
