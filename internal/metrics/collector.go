// Package metrics exposes a private Prometheus registry for the sizing
// service: HTTP traffic, calculation outcomes and catalog reloads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector manages metric aggregation and exposure
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	calcTotal    *prometheus.CounterVec
	calcDuration prometheus.Histogram
	calcDevices  prometheus.Histogram

	catalogReloads *prometheus.CounterVec
	webhookErrors  prometheus.Counter
	mailErrors     prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{registry: reg}

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sizer_http_requests_total",
		Help: "HTTP requests by route and status class",
	}, []string{"route", "status"})
	reg.MustRegister(c.httpRequests)

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sizer_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reg.MustRegister(c.httpDuration)

	c.calcTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sizer_calculations_total",
		Help: "Completed calculations by outcome (feasible/infeasible/error)",
	}, []string{"outcome"})
	reg.MustRegister(c.calcTotal)

	c.calcDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sizer_calculation_duration_seconds",
		Help:    "End-to-end calculation pipeline latency",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})
	reg.MustRegister(c.calcDuration)

	c.calcDevices = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sizer_calculation_devices",
		Help:    "Device count per calculation request",
		Buckets: []float64{10, 50, 100, 500, 1000, 2560, 10000},
	})
	reg.MustRegister(c.calcDevices)

	c.catalogReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sizer_catalog_reloads_total",
		Help: "Preset catalog reloads by result",
	}, []string{"result"})
	reg.MustRegister(c.catalogReloads)

	c.webhookErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sizer_webhook_publish_errors_total",
		Help: "Failed webhook publishes after retries",
	})
	reg.MustRegister(c.webhookErrors)

	c.mailErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sizer_mail_errors_total",
		Help: "Failed report mail deliveries",
	})
	reg.MustRegister(c.mailErrors)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRequest(route, status string, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(route, status).Inc()
	c.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveCalculation(outcome string, devices int, elapsed time.Duration) {
	c.calcTotal.WithLabelValues(outcome).Inc()
	c.calcDuration.Observe(elapsed.Seconds())
	c.calcDevices.Observe(float64(devices))
}

func (c *Collector) CatalogReload(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.catalogReloads.WithLabelValues(result).Inc()
}

func (c *Collector) WebhookError() { c.webhookErrors.Inc() }
func (c *Collector) MailError()    { c.mailErrors.Inc() }
