// Package usl evaluates and fits the Universal Scalability Law.
//
// # Overview
//
// Dr. Neil Gunther's USL models throughput as a function of concurrency:
//
//	X(N) = γN / (1 + α(N-1) + βN(N-1))
//
// Where:
//   - γ (gamma): Serial throughput (X at N=1)
//   - α (alpha): Contention coefficient (queueing on a shared resource)
//   - β (beta): Coherency coefficient (crosstalk between workers)
//   - N: Load, the number of concurrent workers or clients
//
// The package components:
//
//   - model.go      - Evaluate, PeakConcurrency, Efficiency and grids
//   - fit.go        - Fitter interface and the linearised least squares fit
//   - gradient.go   - Seeded gradient descent fitter
//   - capacity.go   - Headroom and capacity planning from coefficients
//   - benchmark.go  - Measure an Operation at several concurrency levels
//   - spans.go      - Derive measurements from recorded work spans
//   - assertions.go - Test helpers for scalability properties
//
// # Quick Start
//
// Fit measurements and find the peak:
//
//	c, err := usl.LinearFitter{}.Fit(ms)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	peak, ok, err := c.Peak()
//	switch {
//	case err != nil:
//	    // α > 1: the radicand is negative, peak undefined
//	case !ok:
//	    // β = 0: throughput never falls, no peak
//	default:
//	    fmt.Printf("peak at N=%.1f, X=%.0f\n", peak, c.Throughput(peak))
//	}
//
// The evaluator never depends on a fitter. Coefficients from anywhere
// (a fit, a previous run, a colleague's spreadsheet) evaluate the same way:
//
//	grid, _ := usl.LinearGrid(1, 200, 100)
//	curve := usl.Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000}.Curve(grid)
//
// # Measuring
//
//	op := func(ctx context.Context) error {
//	    return doWork()
//	}
//
//	results, err := usl.Run(ctx, op, usl.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := usl.LinearFitter{}.Fit(usl.Measurements(results))
//
// # Testing
//
//	func TestMyOperation(t *testing.T) {
//	    ms := usl.Measurements(results)
//
//	    usl.AssertZeroContention(t, ms, usl.DefaultAssertionConfig())
//	    usl.AssertNoRetrograde(t, ms, usl.DefaultAssertionConfig())
//	}
//
// # See Also
//
//   - cmd/usl - fit, eval, peak and measure from the command line
//   - examples/ - Working code samples
package usl
