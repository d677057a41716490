// Package metrics holds the Prometheus metrics of notiair processes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a registry and the application metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	DispatchRequests   *prometheus.CounterVec
	QueueTransitions   *prometheus.CounterVec
	GraphInvalid       prometheus.Counter
	StreamEvents       *prometheus.CounterVec
	ScheduledTriggered *prometheus.CounterVec
}

// NewCollector creates the metrics under namespace in a fresh registry, along
// with the Go runtime and process collectors.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DispatchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_requests_total",
				Help:      "Dispatch requests per action node by outcome",
			},
			[]string{"outcome"},
		),
		QueueTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queue_transitions_total",
				Help:      "Queue item transitions applied",
			},
			[]string{"from", "to", "event"},
		),
		GraphInvalid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_activation_rejected_total",
				Help:      "Activations refused because the workflow graph is invalid",
			},
		),
		StreamEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_events_total",
				Help:      "Stream events consumed by event type and number of matched workflows",
			},
			[]string{"event_type", "matched"},
		),
		ScheduledTriggered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduled_triggers_total",
				Help:      "Scheduled workflow runs by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.DispatchRequests,
		c.QueueTransitions,
		c.GraphInvalid,
		c.StreamEvents,
		c.ScheduledTriggered,
	)

	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}

	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) Dispatch(outcome string) {
	if c == nil {
		return
	}

	c.DispatchRequests.WithLabelValues(outcome).Inc()
}

func (c *Collector) QueueTransition(from, to, event string) {
	if c == nil {
		return
	}

	c.QueueTransitions.WithLabelValues(from, to, event).Inc()
}

func (c *Collector) ActivationRejected() {
	if c == nil {
		return
	}

	c.GraphInvalid.Inc()
}

func (c *Collector) StreamEvent(eventType string, matched int) {
	if c == nil {
		return
	}

	c.StreamEvents.WithLabelValues(eventType, strconv.Itoa(matched)).Inc()
}

func (c *Collector) Scheduled(outcome string) {
	if c == nil {
		return
	}

	c.ScheduledTriggered.WithLabelValues(outcome).Inc()
}
