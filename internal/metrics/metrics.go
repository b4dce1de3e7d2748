// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apogue_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apogue_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	PipelineOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apogue_pipeline_operations_total",
		Help: "Background pipeline operations by name and outcome.",
	}, []string{"op", "status"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apogue_pipeline_operation_duration_seconds",
		Help:    "Background pipeline operation duration by name.",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"op"})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePipeline records one finished pipeline operation.
func ObservePipeline(op string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PipelineOps.WithLabelValues(op, status).Inc()
	PipelineDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
