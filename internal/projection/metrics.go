package projection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fan-out counters. Rows that never converge only show up here and in the
// operation report, so these are the operator's repair signal.
var (
	fanoutRowsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_fanout_rows_updated_total",
		Help: "Wide-column rows successfully updated by fee fan-out.",
	})
	fanoutRowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_fanout_rows_failed_total",
		Help: "Wide-column rows that failed fee fan-out after retries.",
	})
	fanoutThrottleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_fanout_throttle_retries_total",
		Help: "Retries performed due to wide-column store throttling.",
	})
)
