// Package metrics provides Prometheus instrumentation for push-release.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string
	register    sync.Once

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Pipeline metrics
	pushTotal         *prometheus.CounterVec
	metadataReadTotal *prometheus.CounterVec
	ledgerTxTotal     *prometheus.CounterVec
)

// Init initializes the metrics system. Collectors are registered once per
// process with svcName as their "service" label; later calls only toggle
// recording.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	register.Do(func() {
		service := prometheus.Labels{"service": serviceName}

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: service,
			},
			[]string{"method", "path", "status"},
		)

		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: service,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		)

		pushTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "push_requests_total",
				Help:        "Total number of push requests by flow and outcome",
				ConstLabels: service,
			},
			[]string{"flow", "outcome"},
		)

		metadataReadTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "metadata_read_total",
				Help:        "Total number of release metadata reads",
				ConstLabels: service,
			},
			[]string{"status"},
		)

		ledgerTxTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ledger_transactions_total",
				Help:        "Total number of transactions submitted to the ledger node",
				ConstLabels: service,
			},
			[]string{"method", "status"},
		)
	})
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}
