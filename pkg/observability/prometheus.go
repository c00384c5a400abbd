package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tessera"

// PrometheusHooks implements StoreHooks, PersistHooks, and HTTPHooks by
// recording Prometheus metrics.
type PrometheusHooks struct {
	loads       prometheus.Counter
	loadedItems *prometheus.GaugeVec
	mutations   *prometheus.CounterVec
	rejections  *prometheus.CounterVec

	persistOps      *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	persistBytes    prometheus.Gauge

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusHooks creates hooks whose metrics are registered with reg.
// Pass prometheus.DefaultRegisterer to expose them on promhttp.Handler().
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		loads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_loads_total",
			Help:      "Number of stores initialized from persisted data.",
		}),
		loadedItems: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_loaded_items",
			Help:      "Entries present after the last load, by kind.",
		}, []string{"kind"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Mutation calls by operation and whether state changed.",
		}, []string{"op", "changed"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_rejections_total",
			Help:      "Edits rejected with an error code.",
		}, []string{"op", "code"}),
		persistOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_operations_total",
			Help:      "Persistence operations by backend, kind, and outcome.",
		}, []string{"backend", "op", "result"}),
		persistDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Persistence latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		persistBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persist_snapshot_bytes",
			Help:      "Size of the last saved snapshot.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API responses by method, route, and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// OnLoad implements StoreHooks.
func (h *PrometheusHooks) OnLoad(widgets, layouts, scenes int, _ time.Duration) {
	h.loads.Inc()
	h.loadedItems.WithLabelValues("widgets").Set(float64(widgets))
	h.loadedItems.WithLabelValues("layouts").Set(float64(layouts))
	h.loadedItems.WithLabelValues("scenes").Set(float64(scenes))
}

// OnMutation implements StoreHooks.
func (h *PrometheusHooks) OnMutation(op string, changed bool) {
	h.mutations.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
}

// OnReject implements StoreHooks.
func (h *PrometheusHooks) OnReject(op, code string) {
	h.rejections.WithLabelValues(op, code).Inc()
}

// Persist returns a view of h implementing PersistHooks. StoreHooks and
// PersistHooks both declare OnLoad, so one type cannot satisfy both.
func (h *PrometheusHooks) Persist() PersistHooks {
	return prometheusPersist{h}
}

// HTTP returns a view of h implementing HTTPHooks.
func (h *PrometheusHooks) HTTP() HTTPHooks {
	return prometheusHTTP{h}
}

type prometheusPersist struct{ h *PrometheusHooks }

func (p prometheusPersist) OnLoad(_ context.Context, backend string, hit bool, d time.Duration, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	p.h.persistOps.WithLabelValues(backend, "load", result).Inc()
	p.h.persistDuration.WithLabelValues(backend, "load").Observe(d.Seconds())
}

func (p prometheusPersist) OnSave(_ context.Context, backend string, size int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		p.h.persistBytes.Set(float64(size))
	}
	p.h.persistOps.WithLabelValues(backend, "save", result).Inc()
	p.h.persistDuration.WithLabelValues(backend, "save").Observe(d.Seconds())
}

type prometheusHTTP struct{ h *PrometheusHooks }

func (p prometheusHTTP) OnRequest(context.Context, string, string) {}

func (p prometheusHTTP) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ StoreHooks   = (*PrometheusHooks)(nil)
	_ PersistHooks = prometheusPersist{}
	_ HTTPHooks    = prometheusHTTP{}
)
