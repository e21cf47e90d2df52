// Package metrics exposes Prometheus counters for the pipeline jobs and an
// optional HTTP endpoint serving them. With no METRICS_PORT configured the
// counters are still maintained but never served.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inflation-pipeline/utils"
)

var (
	// RowsProcessed counts input units consumed per stage.
	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_rows_processed_total",
		Help: "Total number of input rows/lines/records processed, by stage",
	}, []string{"stage"})

	// RecordsDropped counts units dropped per stage with the drop reason.
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_records_dropped_total",
		Help: "Total number of records dropped, by stage and reason",
	}, []string{"stage", "reason"})

	// ResolveFailures counts archive records that could not be recovered.
	ResolveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_archive_resolve_failures_total",
		Help: "Total number of archive byte ranges that yielded no page",
	})

	// StorageOps counts object storage calls by operation and outcome.
	StorageOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_storage_operations_total",
		Help: "Total object storage operations, by operation and outcome",
	}, []string{"operation", "outcome"})
)

// Serve starts the /metrics and /health endpoints on the given port in the
// background. An empty port disables serving.
func Serve(port string, logger *utils.Logger) {
	if port == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		logger.Info("[metrics] Serving on :%s/metrics", port)
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("[metrics] Server failed: %v", err)
		}
	}()
}
