package usl

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"
)

// Operation is one unit of benchmarked work.
// Implementations must be safe for concurrent execution.
type Operation func(ctx context.Context) error

// Result is what one load level produced.
type Result struct {
	N          int             // Load: concurrent workers
	Duration   time.Duration   // Wall time of the measured phase
	Operations int64           // Successful operations
	Throughput float64         // Successful operations per second
	Latencies  []time.Duration // Latency of every successful operation
	Errors     int64           // Failed operations, excluding ones cut short by the deadline
}

// Measurement converts r into a (load, throughput) pair.
func (r Result) Measurement() Measurement {
	return Measurement{Load: float64(r.N), Throughput: r.Throughput}
}

// Measurements converts results in order.
func Measurements(results []Result) []Measurement {
	ms := make([]Measurement, len(results))
	for i, r := range results {
		ms[i] = r.Measurement()
	}
	return ms
}

// ErrorRate returns the fraction of finished operations that failed.
func (r Result) ErrorRate() float64 {
	total := r.Operations + r.Errors
	if total == 0 {
		return 0
	}
	return float64(r.Errors) / float64(total)
}

// Statistics summarises the latency of successful operations at one level.
type Statistics struct {
	Mean   time.Duration
	Stddev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

// Config controls a measurement run.
//
// Contention measured with N > GOMAXPROCS includes Go scheduler context
// switching, not only application lock contention.
type Config struct {
	Duration time.Duration // Measured time per load level
	Warmup   time.Duration // Unmeasured time per load level, 0 to skip
	Levels   []int         // Load levels, in the order they run
	MaxProcs int           // GOMAXPROCS during the run, 0 leaves it alone
}

// DefaultConfig measures five doubling load levels for two seconds each.
func DefaultConfig() Config {
	return Config{
		Duration: 2 * time.Second,
		Warmup:   500 * time.Millisecond,
		Levels:   []int{1, 2, 4, 8, 16},
	}
}

func (c Config) validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidLevel, c.Duration)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: no load levels", ErrInvalidLevel)
	}
	for _, n := range c.Levels {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidLevel, n)
		}
	}
	return nil
}

// Run drives op with each load level in turn and returns one Result per
// level, ready for Measurements and a Fitter. The configuration is checked
// before anything runs.
func Run(ctx context.Context, op Operation, cfg Config) ([]Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxProcs > 0 {
		prev := runtime.GOMAXPROCS(cfg.MaxProcs)
		defer runtime.GOMAXPROCS(prev)
	}

	results := make([]Result, 0, len(cfg.Levels))
	for _, n := range cfg.Levels {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load %d: %w", n, err)
		}
		if cfg.Warmup > 0 {
			warm, cancel := context.WithTimeout(ctx, cfg.Warmup)
			runLevel(warm, op, n)
			cancel()
		}

		measure, cancel := context.WithTimeout(ctx, cfg.Duration)
		results = append(results, runLevel(measure, op, n))
		cancel()
	}
	return results, nil
}

// worker tallies one goroutine's operations. Each worker owns its tally,
// so nothing is shared until the level ends.
type worker struct {
	ops       int64
	errs      int64
	latencies []time.Duration
}

// runLevel keeps n workers calling op until ctx is done. An operation cut
// short by ctx is neither a success nor an error.
func runLevel(ctx context.Context, op Operation, n int) Result {
	workers := make([]*worker, n)
	var wg sync.WaitGroup

	start := time.Now()
	for i := range workers {
		w := &worker{latencies: make([]time.Duration, 0, 1024)}
		workers[i] = w

		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				began := time.Now()
				err := op(ctx)
				switch {
				case err == nil:
					w.ops++
					w.latencies = append(w.latencies, time.Since(began))
				case ctx.Err() != nil:
					// interrupted by the end of the level
				default:
					w.errs++
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	r := Result{N: n, Duration: elapsed}
	for _, w := range workers {
		r.Operations += w.ops
		r.Errors += w.errs
		r.Latencies = append(r.Latencies, w.latencies...)
	}
	if elapsed > 0 {
		r.Throughput = float64(r.Operations) / elapsed.Seconds()
	}
	return r
}

// BottleneckOperation returns a synthetic workload in which every task
// passes through one shared channel of the given capacity. It produces
// contention that grows with the number of workers.
func BottleneckOperation(queue, tasks int) Operation {
	if queue < 1 {
		queue = 1
	}
	ch := make(chan struct{}, queue)

	return func(ctx context.Context) error {
		for i := 0; i < tasks; i++ {
			select {
			case ch <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			runtime.Gosched()
			<-ch
		}
		return nil
	}
}

// CalculateStatistics returns nearest-rank latency percentiles of result.
func CalculateStatistics(result Result) Statistics {
	n := len(result.Latencies)
	if n == 0 {
		return Statistics{}
	}

	sorted := slices.Clone(result.Latencies)
	slices.Sort(sorted)

	var sum float64
	for _, d := range sorted {
		sum += float64(d)
	}
	mean := sum / float64(n)

	var sq float64
	for _, d := range sorted {
		sq += (float64(d) - mean) * (float64(d) - mean)
	}

	rank := func(p float64) time.Duration {
		i := int(math.Ceil(p*float64(n))) - 1
		return sorted[max(i, 0)]
	}

	return Statistics{
		Mean:   time.Duration(mean),
		Stddev: time.Duration(math.Sqrt(sq / float64(n))),
		P50:    rank(0.50),
		P95:    rank(0.95),
		P99:    rank(0.99),
	}
}
