package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the ambient /metrics gauges this service exposes, grounded
// on the wider example pack's promauto usage. They are not part of the
// distilled spec but are carried as a standard production concern.
var (
	activeDownloadsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prefetch_active_downloads",
		Help: "Number of downloads currently in flight.",
	})
	storageUsedBytesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prefetch_storage_used_bytes",
		Help: "Bytes currently committed to on-disk video files.",
	})
	aggregateSpeedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prefetch_aggregate_download_speed_bps",
		Help: "Sum of per-item download speeds in bytes per second.",
	})
	queueLengthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prefetch_queue_length",
		Help: "Number of items currently in the ranked download queue.",
	})
	evictionCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prefetch_evictions_total",
		Help: "Total number of items reclaimed by the behind-limit eviction pass.",
	})
	schedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prefetch_scheduler_tick_duration_seconds",
		Help:    "Wall-clock duration of each scheduler tick.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
	})
)

// RecordEviction increments the eviction counter by count; called by
// eviction.Pass after each sweep that reclaims at least one item.
func RecordEviction(count int) {
	for i := 0; i < count; i++ {
		evictionCounter.Inc()
	}
}

// ObserveTick records one scheduler tick's duration in seconds; called
// around every Ticker.tick invocation.
func ObserveTick(seconds float64) {
	schedulerTickDuration.Observe(seconds)
}

// SetGauges updates the point-in-time gauges from the scheduler's current
// view of the table; called once per scheduler tick.
func SetGauges(activeDownloads int, storageUsed int64, aggregateSpeed float64, queueLength int) {
	activeDownloadsGauge.Set(float64(activeDownloads))
	storageUsedBytesGauge.Set(float64(storageUsed))
	aggregateSpeedGauge.Set(aggregateSpeed)
	queueLengthGauge.Set(float64(queueLength))
}
