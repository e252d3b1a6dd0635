// Package stats collects operational metrics for cache operations.
package stats

// Metric names.
const (
	MetricPuts            = "dvd_puts_total"
	MetricPutErrors       = "dvd_put_errors_total"
	MetricGets            = "dvd_gets_total"
	MetricRecordsReturned = "dvd_records_returned_total"
	MetricClears          = "dvd_clears_total"
	MetricCorruptLogs     = "dvd_corrupt_logs_total"
	MetricLockTimeouts    = "dvd_lock_timeouts_total"

	// Histograms observed per scan.
	MetricEntriesScanned = "dvd_entries_scanned"
	MetricBytesScanned   = "dvd_bytes_scanned"

	MetricLogSize = "dvd_log_size_bytes"
)

// Help describes every metric name above.
var Help = map[string]string{
	MetricPuts:            "Records appended to a cache.",
	MetricPutErrors:       "Appends that failed.",
	MetricGets:            "Most-recent queries served.",
	MetricRecordsReturned: "Distinct records returned by queries.",
	MetricClears:          "Caches cleared.",
	MetricCorruptLogs:     "Scans that stopped at a damaged footer.",
	MetricLockTimeouts:    "Writes that gave up waiting for the write lock.",
	MetricEntriesScanned:  "Physical log entries read per scan.",
	MetricBytesScanned:    "Log bytes read per scan.",
	MetricLogSize:         "Log file size seen by the last operation.",
}

// Collector receives metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
