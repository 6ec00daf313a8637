// Package metrics exposes Prometheus collectors for the classifier service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	classifyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "iconclass_classify_duration_seconds",
		Help:    "Time spent classifying one query, including cache lookups",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	classifyResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "iconclass_classify_results",
		Help:    "Number of labels returned per query",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iconclass_cache_requests_total",
		Help: "Result cache lookups by outcome (hit/miss/error)",
	}, []string{"result"})

	reloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iconclass_reloads_total",
		Help: "Artifact reloads by outcome (success/failure)",
	}, []string{"outcome"})

	artifactSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iconclass_artifact_size",
		Help: "Size of the published lookup tables (labels/vocabulary/examples)",
	}, []string{"table"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iconclass_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(classifyLatency, classifyResults, cacheRequests, reloads, artifactSize, httpRequests)
	})
}

// ObserveClassify records latency and result size for one classification.
func ObserveClassify(start time.Time, results int) {
	ensureRegistered()
	classifyLatency.Observe(time.Since(start).Seconds())
	classifyResults.Observe(float64(results))
}

// IncCache counts a cache lookup outcome: "hit", "miss" or "error".
func IncCache(result string) {
	ensureRegistered()
	cacheRequests.WithLabelValues(result).Inc()
}

// IncReload counts an artifact reload.
func IncReload(ok bool) {
	ensureRegistered()
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	reloads.WithLabelValues(outcome).Inc()
}

// SetArtifactSize publishes the sizes of the current tables.
func SetArtifactSize(labels, vocabulary, examples int) {
	ensureRegistered()
	artifactSize.WithLabelValues("labels").Set(float64(labels))
	artifactSize.WithLabelValues("vocabulary").Set(float64(vocabulary))
	artifactSize.WithLabelValues("examples").Set(float64(examples))
}

// IncHTTP counts a served HTTP response.
func IncHTTP(route string, code int) {
	ensureRegistered()
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
