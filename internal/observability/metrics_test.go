package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("GET", "/v1/calendar/wingfoil.ics", "200", 12*time.Millisecond)
	m.RecordRequest("GET", "/v1/calendar/wingfoil.ics", "200", 8*time.Millisecond)
	m.RecordRequest("GET", "/health", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.RequestCount.WithLabelValues("GET", "/v1/calendar/wingfoil.ics", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.RequestCount.WithLabelValues("GET", "/health", "200")))
}

func TestObserveSiteIngest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveSiteIngest(true, 10, 2*time.Second)
	m.ObserveSiteIngest(true, 14, time.Second)
	m.ObserveSiteIngest(false, 0, 30*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SiteIngests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SiteIngests.WithLabelValues("failure")))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.SlotsIngested))
}
