package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespaceImporter = "importer"
	namespaceWeb3     = "web3"
)

var (
	// Flushes committed batch count
	Flushes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceImporter,
			Name:      "flushes_total",
			Help:      "",
		})

	// FlushFailures rolled back batch count
	FlushFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceImporter,
			Name:      "flush_failures_total",
			Help:      "",
		})

	// RowsWritten rows written per table
	RowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespaceImporter,
			Name:      "rows_written_total",
			Help:      "",
		}, []string{"table"})

	// FlushDuration duration of a committed batch, in milliseconds
	FlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespaceImporter,
			Name:      "flush_duration",
			Help:      "",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{})

	// RecordFilesParsed record file count by outcome
	RecordFilesParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespaceImporter,
			Name:      "record_files_total",
			Help:      "",
		}, []string{"outcome"})

	// CacheHits state reads answered by a frame
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespaceWeb3,
			Name:      "cache_hits_total",
			Help:      "",
		}, []string{"kind"})

	// CacheMisses state reads that reached the store
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespaceWeb3,
			Name:      "cache_misses_total",
			Help:      "",
		}, []string{"kind"})

	// StoreLoadDuration duration of a store load, in milliseconds
	StoreLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespaceWeb3,
			Name:      "store_load_duration",
			Help:      "",
		}, []string{"kind"})

	// GasSearchIterations executions per gas estimate
	GasSearchIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespaceWeb3,
			Name:      "gas_search_iterations",
			Help:      "",
			Buckets:   prometheus.LinearBuckets(1, 2, 12),
		})

	// Calls executed calls by type and outcome
	Calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespaceWeb3,
			Name:      "calls_total",
			Help:      "",
		}, []string{"type", "outcome"})
)

func init() {
	prometheus.MustRegister(
		Flushes,
		FlushFailures,
		RowsWritten,
		FlushDuration,
		RecordFilesParsed,
		CacheHits,
		CacheMisses,
		StoreLoadDuration,
		GasSearchIterations,
		Calls,
	)
}

// MeasureDuration measure the method execution duration
// and save it into a histogram metric
func MeasureDuration(histogram *prometheus.HistogramVec, start time.Time, lvs ...string) {
	duration := time.Since(start)
	histogram.WithLabelValues(lvs...).Observe(float64(duration.Milliseconds()))
}
