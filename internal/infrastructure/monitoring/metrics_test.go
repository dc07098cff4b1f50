package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()

	require.NotNil(t, first.Registry())
	require.NotNil(t, second.Registry())
	assert.NotSame(t, first.Registry(), second.Registry())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/health", "200", 5*time.Millisecond, 0, 64)
	m.RecordHTTPRequest("GET", "/health", "200", 5*time.Millisecond, 0, 64)
	m.RecordHTTPRequest("POST", "/chat", "500", 10*time.Millisecond, 128, 32)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/chat", "500")))
}

func TestWSConnectionGauge(t *testing.T) {
	m := NewMetrics()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
}

func TestWSMessageCounter(t *testing.T) {
	m := NewMetrics()

	m.RecordWSMessage("inbound", "text")
	m.RecordWSMessage("outbound", "fragment")
	m.RecordWSMessage("outbound", "fragment")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("inbound", "text")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("outbound", "fragment")))
}

func TestTurnAndUpstreamRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordTurn("ok", 100*time.Millisecond)
	m.RecordTurn("error", 50*time.Millisecond)
	m.RecordUpstreamCall("create_thread", "success", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("create_thread", "success")))
}

func TestThreadCounters(t *testing.T) {
	m := NewMetrics()

	m.IncThreadsCreated()
	m.IncThreadsCreated()
	m.IncThreadsDeleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ThreadsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThreadsDeleted))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	timer := NewTimer(m, "retrieve_run")
	timer.Stop("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("retrieve_run", "success")))
	assert.NotPanics(t, func() { NewTimer(nil, "noop").Stop("success") })
}
