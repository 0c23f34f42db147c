package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.Request("receipt", OutcomeOK)
	r.Request("receipt", OutcomeOK)
	r.Request("meal", OutcomeFallback)
	r.Fallback("meal")
	r.PortionMismatch()
	r.Upstream("gpt", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("receipt", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("meal", OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FallbacksTotal.WithLabelValues("meal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PortionMismatchTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(r.UpstreamDuration))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["pantry_scan_build_info"])
	assert.True(t, names["pantry_scan_upstream_duration_seconds"])
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Request("meal", OutcomeOK)
		r.Fallback("meal")
		r.PortionMismatch()
		r.Upstream("gemini", time.Second)
	})
}
