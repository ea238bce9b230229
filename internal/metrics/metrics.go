package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlap_requests_total",
		Help: "Total number of overlap API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	DetectDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "overlap_detect_duration_ms",
		Help:    "Source load plus detection duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	PairsFound = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "overlap_pairs_found",
		Help:    "Partial overlap pairs per detection",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})
	DetectInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "overlap_detect_inflight",
		Help: "Detections currently running, including ones whose caller already timed out",
	})
	DetectAbandonedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlap_detect_abandoned_total",
		Help: "Detections left running in the background after the caller deadline",
	})
	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlap_candidates_total",
		Help: "Total index candidates examined",
	})
	EvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlap_evaluated_total",
		Help: "Total exact predicate evaluations",
	})
	SourceFilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlap_source_files_total",
		Help: "Total geometry files decoded",
	})
	SourceSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlap_source_skipped_total",
		Help: "Total geometry files skipped by reason",
	}, []string{"reason"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlap_cache_hits_total",
		Help: "Report cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlap_cache_misses_total",
		Help: "Report cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(DetectDurationMs)
	prometheus.MustRegister(PairsFound)
	prometheus.MustRegister(DetectInflight)
	prometheus.MustRegister(DetectAbandonedTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(EvaluatedTotal)
	prometheus.MustRegister(SourceFilesTotal)
	prometheus.MustRegister(SourceSkippedTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// 文档注释：返回 Prometheus 指标监听器，在主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
