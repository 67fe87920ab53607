// Package metrics exports fitted USL coefficients as Prometheus gauges.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexshd/usl"
)

// ErrWriteTextfile wraps failures writing the exposition file.
var ErrWriteTextfile = errors.New("metrics textfile write failed")

// Recorder holds one gauge family per coefficient, labelled by source.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	alpha        *prometheus.GaugeVec
	beta         *prometheus.GaugeVec
	gamma        *prometheus.GaugeVec
	rSquared     *prometheus.GaugeVec
	peak         *prometheus.GaugeVec
	measurements prometheus.Gauge
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric namespace (default "usl").
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// New creates a Recorder on a private registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "usl",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      name,
			Help:      help,
		}, []string{"source"})
	}

	r.alpha = gauge("alpha", "Contention coefficient.")
	r.beta = gauge("beta", "Coherency coefficient.")
	r.gamma = gauge("gamma", "Single-unit throughput.")
	r.rSquared = gauge("r_squared", "Coefficient of determination of the fit.")
	r.peak = gauge("peak_concurrency", "Load at which predicted throughput is maximal.")
	r.measurements = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "measurements",
		Help:      "Number of measurements the coefficients were fitted to.",
	})

	r.registry.MustRegister(r.alpha, r.beta, r.gamma, r.rSquared, r.peak, r.measurements)
	return r
}

// Registry exposes the underlying registry for serving or gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe records the coefficients of one source. The peak gauge is only
// set when the peak exists; it is removed otherwise.
func (r *Recorder) Observe(source string, c usl.Coefficients) {
	r.alpha.WithLabelValues(source).Set(c.Alpha)
	r.beta.WithLabelValues(source).Set(c.Beta)
	r.gamma.WithLabelValues(source).Set(c.Gamma)
	r.rSquared.WithLabelValues(source).Set(c.RSquared)

	if peak, ok, err := c.Peak(); err == nil && ok && !math.IsInf(peak, 0) {
		r.peak.WithLabelValues(source).Set(peak)
	} else {
		r.peak.DeleteLabelValues(source)
	}
}

// SetMeasurements records the size of the data set.
func (r *Recorder) SetMeasurements(n int) {
	r.measurements.Set(float64(n))
}

// WriteTextfile writes the registry in text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}
