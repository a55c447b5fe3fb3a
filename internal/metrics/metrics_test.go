package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_RegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	require.NotNil(t, c)

	// A second collector on the same registry is a duplicate registration.
	assert.Panics(t, func() { NewCollector(reg) })
	assert.NotPanics(t, func() { NewCollector(prometheus.NewRegistry()) })
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordRequested()
	c.RecordRequested()
	c.RecordCompleted(1.5)
	c.RecordFailed(ReasonRender, 0.2)
	c.RecordFailed(ReasonRender, 0.3)
	c.RecordFailed(ReasonInvalidState, 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requested))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.failed.WithLabelValues(ReasonRender)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failed.WithLabelValues(ReasonInvalidState)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.failed.WithLabelValues(ReasonTimeout)))
}

func TestCollector_GateStats(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.UpdateGateStats(1, 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.gateInUse))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.gateQueue))

	c.UpdateGateStats(0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.gateInUse))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRequested()
		c.RecordGateWait(1)
		c.RecordCompleted(1)
		c.RecordFailed(ReasonInternal, 1)
		c.UpdateGateStats(1, 1)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRequested()
	c.RecordGateWait(0.01)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "reports_requested_total 1")
	assert.Contains(t, string(body), "report_gate_wait_seconds_count 1")
}
