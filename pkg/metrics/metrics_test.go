package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("notiair_test")

	c.Dispatch("queued")
	c.Dispatch("queued")
	c.Dispatch("skipped")
	c.QueueTransition("processing", "pending", "failed")
	c.ActivationRejected()
	c.ObserveHTTP("GET", "/api/v1/workflows", 200, 15*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(c.DispatchRequests.WithLabelValues("queued")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.DispatchRequests.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.QueueTransitions.WithLabelValues("processing", "pending", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.GraphInvalid), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/v1/workflows", "200")), 0)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.Dispatch("queued")
		c.QueueTransition("a", "b", "c")
		c.ActivationRejected()
		c.StreamEvent("order.created", 1)
		c.Scheduled("ok")
		c.ObserveHTTP("GET", "/", 200, time.Second)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("notiair_test")
	c.Dispatch("queued")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `notiair_test_dispatch_requests_total{outcome="queued"} 1`)
}
