package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ComputationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzdiff_computations_total",
		Help: "Difference computations by outcome",
	}, []string{"outcome"})
	ComputeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tzdiff_compute_duration_ms",
		Help:    "Difference computation duration in milliseconds",
		Buckets: []float64{0.5, 1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ChangePointsReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tzdiff_change_points",
		Help:    "Change points per successful computation, sentinel included",
		Buckets: []float64{1, 2, 3, 5, 10, 50, 200, 1000},
	})
	ResultCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tzdiff_result_cache_hits_total",
		Help: "Total result cache hits",
	})
	ResultCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tzdiff_result_cache_misses_total",
		Help: "Total result cache misses",
	})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzdiff_dataset_loads_total",
		Help: "Dataset loads by status",
	}, []string{"status"})
	DatasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tzdiff_dataset_records",
		Help: "Records in the active city index",
	})
)

func init() {
	prometheus.MustRegister(ComputationsTotal)
	prometheus.MustRegister(ComputeDurationMs)
	prometheus.MustRegister(ChangePointsReturned)
	prometheus.MustRegister(ResultCacheHitsTotal)
	prometheus.MustRegister(ResultCacheMissesTotal)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(DatasetRecords)
}

// Outcome labels for ComputationsTotal.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "location_not_found"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeUnresolvedTZ  = "unresolved_timezone"
	OutcomeCanceled      = "canceled"
	OutcomeInternalError = "error"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
