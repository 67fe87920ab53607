package usl

import (
	"math"
)

// PlanPoint is the predicted behaviour at one planning load.
type PlanPoint struct {
	Load                 float64
	Throughput           float64 // Predicted X(N)
	NormalizedEfficiency float64 // X(N)/(γN), 1.0 = linear
	Retrograde           bool    // True when N ≥ N_peak
}

// IsRetrograde reports whether load is at or beyond the peak, where adding
// load reduces throughput. Coefficients without a peak are never retrograde;
// coefficients outside the peak's domain (α > 1) are always retrograde
// since throughput falls from the first unit.
func IsRetrograde(load, alpha, beta float64) bool {
	peak, ok, err := PeakConcurrency(alpha, beta)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return load >= peak
}

// Headroom returns how much load can be added before the peak.
// It is +Inf when there is no peak and never negative.
func Headroom(c Coefficients, load float64) float64 {
	peak, ok, err := c.Peak()
	if err != nil {
		return 0
	}
	if !ok {
		return math.Inf(1)
	}
	return math.Max(peak-load, 0)
}

// CapacityPlan predicts throughput and efficiency at each planning load.
func CapacityPlan(c Coefficients, loads []float64) []PlanPoint {
	plan := make([]PlanPoint, len(loads))
	for i, n := range loads {
		plan[i] = PlanPoint{
			Load:                 n,
			Throughput:           c.Throughput(n),
			NormalizedEfficiency: c.NormalizedEfficiency(n),
			Retrograde:           IsRetrograde(n, c.Alpha, c.Beta),
		}
	}
	return plan
}
