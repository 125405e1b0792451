// Package metrics holds the Prometheus instruments for the ingestion
// pipeline and the HTTP layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phillyrising_fetch_cycles_total",
		Help: "Scheduler ticks that queried for stale feeds.",
	})
	FetchOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phillyrising_fetch_ok_total",
		Help: "Feed fetches that returned a parseable document.",
	})
	FetchNotModified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phillyrising_fetch_not_modified_total",
		Help: "Feed fetches answered with 304 Not Modified.",
	})
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phillyrising_fetch_failures_total",
		Help: "Feed fetches that errored.",
	})
	ItemsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phillyrising_items_upserted_total",
		Help: "Content items written by ingestion workers.",
	})
	Workers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phillyrising_workers",
		Help: "Current size of the ingestion worker pool.",
	})
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phillyrising_http_requests_total",
		Help: "HTTP requests by method and status class.",
	}, []string{"method", "class"})
)

// Handler serves the default registry, for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
