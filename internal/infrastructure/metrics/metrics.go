package metrics

import (
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/application/dto"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskflow"

// Metrics owns every collector of the process. Build one per registry so tests can
// use a private prometheus.Registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	gatewayRejections   *prometheus.CounterVec

	eventsPublishedTotal prometheus.Counter
	eventsDroppedTotal   prometheus.Counter
	deliveriesEnqueued   prometheus.Counter

	dispatchCyclesTotal  *prometheus.CounterVec
	deliveryOutcomes     *prometheus.CounterVec
	deliveryResponses    *prometheus.CounterVec
	dispatchCycleLatency prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by the gateway.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Gateway request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatewayRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_rejections_total",
			Help:      "Requests rejected before routing, by reason code.",
		}, []string{"code"}),
		eventsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_published_total",
			Help:      "Domain events accepted into the fan-out buffer.",
		}),
		eventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_dropped_total",
			Help:      "Domain events dropped because the fan-out buffer was full.",
		}),
		deliveriesEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_enqueued_total",
			Help:      "Webhook deliveries created by fan-out.",
		}),
		dispatchCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_dispatch_cycles_total",
			Help:      "Dispatcher poll cycles by result.",
		}, []string{"result"}),
		deliveryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_attempts_total",
			Help:      "Webhook delivery attempts by outcome.",
		}, []string{"outcome"}),
		deliveryResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_responses_total",
			Help:      "Subscriber responses by status class.",
		}, []string{"class"}),
		dispatchCycleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_dispatch_cycle_duration_seconds",
			Help:      "Wall time of one dispatcher cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.gatewayRejections,
		m.eventsPublishedTotal,
		m.eventsDroppedTotal,
		m.deliveriesEnqueued,
		m.dispatchCyclesTotal,
		m.deliveryOutcomes,
		m.deliveryResponses,
		m.dispatchCycleLatency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method string, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CountRejection(code string) {
	if m == nil {
		return
	}
	m.gatewayRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) EventPublished() {
	if m == nil {
		return
	}
	m.eventsPublishedTotal.Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDroppedTotal.Inc()
}

func (m *Metrics) DeliveriesEnqueued(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.deliveriesEnqueued.Add(float64(count))
}

func (m *Metrics) ObserveDispatchCycle(output dto.DispatchWebhookDeliveriesOutput, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.dispatchCyclesTotal.WithLabelValues(result).Inc()
	m.dispatchCycleLatency.Observe(elapsed.Seconds())

	m.deliveryOutcomes.WithLabelValues("sent").Add(float64(output.Sent))
	m.deliveryOutcomes.WithLabelValues("retried").Add(float64(output.Retried))
	m.deliveryOutcomes.WithLabelValues("failed").Add(float64(output.Failed))
	m.deliveryOutcomes.WithLabelValues("skipped").Add(float64(output.Skipped))
	m.deliveryOutcomes.WithLabelValues("deferred").Add(float64(output.Deferred))
	m.deliveryResponses.WithLabelValues("2xx").Add(float64(output.HTTP2xxCount))
	m.deliveryResponses.WithLabelValues("4xx").Add(float64(output.HTTP4xxCount))
	m.deliveryResponses.WithLabelValues("5xx").Add(float64(output.HTTP5xxCount))
	m.deliveryResponses.WithLabelValues("network_error").Add(float64(output.NetworkErrorCount))
}
