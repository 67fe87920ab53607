package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/usl"
)

// gaugeValue returns the value of the named gauge for source ("" for unlabelled).
func gaugeValue(t *testing.T, r *Recorder, name, source string) (float64, bool) {
	t.Helper()

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "source" {
					label = lp.GetValue()
				}
			}
			if label == source {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func TestRecorder_Observe(t *testing.T) {
	r := New()
	r.Observe("fit", usl.Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000, RSquared: 0.99})
	r.SetMeasurements(7)

	v, ok := gaugeValue(t, r, "usl_alpha", "fit")
	require.True(t, ok)
	assert.Equal(t, 0.05, v)

	v, ok = gaugeValue(t, r, "usl_gamma", "fit")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)

	v, ok = gaugeValue(t, r, "usl_peak_concurrency", "fit")
	require.True(t, ok)
	assert.InDelta(t, 68.92, v, 1e-2)

	v, ok = gaugeValue(t, r, "usl_measurements", "")
	require.True(t, ok)
	assert.Equal(t, 7.0, v)
}

func TestRecorder_NoPeakRemovesGauge(t *testing.T) {
	r := New(WithNamespace("capacity"))
	r.Observe("fit", usl.Coefficients{Alpha: 0.05, Beta: 0.0002, Gamma: 1000})
	r.Observe("fit", usl.Coefficients{Alpha: 0.05, Beta: 0, Gamma: 1000})

	_, ok := gaugeValue(t, r, "capacity_peak_concurrency", "fit")
	assert.False(t, ok)

	v, ok := gaugeValue(t, r, "capacity_beta", "fit")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Observe("fit", usl.Coefficients{Alpha: 0.02, Beta: 0.0001, Gamma: 1000})
	r.Observe("supplied", usl.Coefficients{Alpha: 0.03, Beta: 0.0001, Gamma: 990})

	path := filepath.Join(t.TempDir(), "usl.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, `usl_alpha{source="fit"} 0.02`)
	assert.Contains(t, out, `usl_gamma{source="supplied"} 990`)
	assert.Contains(t, out, "# TYPE usl_peak_concurrency gauge")

	err = r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "usl.prom"))
	assert.True(t, errors.Is(err, ErrWriteTextfile))
}
