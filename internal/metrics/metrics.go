// Package metrics exposes the Prometheus collectors shared by the server and
// the worker.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "timecard"

var (
	sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "sessions_started_total",
		Help:      "Sessions opened with Start.",
	})
	sessionsStopped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "sessions_stopped_total",
		Help:      "Open sessions closed with Stop.",
	})
	sessionMinutes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "session_minutes",
		Help:      "Length in whole minutes of stopped sessions.",
		Buckets:   []float64{5, 15, 30, 60, 120, 240, 480},
	})
	monthsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "months_settled_total",
		Help:      "Month payment status changes.",
	}, []string{"paid"})
	settlementsExported = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "settlements_exported_total",
		Help:      "Settlement messages handled by the worker.",
	}, []string{"result"})
	lastSettlementExport = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "last_settlement_export_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful settlement export.",
	})
	reportCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "cache_lookups_total",
		Help:      "Month report cache lookups.",
	}, []string{"result"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(
		sessionsStarted,
		sessionsStopped,
		sessionMinutes,
		monthsSettled,
		settlementsExported,
		lastSettlementExport,
		reportCacheLookups,
		httpRequests,
		rateLimited,
	)
}

func RecordSessionStarted() { sessionsStarted.Inc() }

// RecordSessionStopped counts a stop and observes its length.
func RecordSessionStopped(minutes int64) {
	sessionsStopped.Inc()
	sessionMinutes.Observe(float64(minutes))
}

func RecordMonthSettled(paid bool) {
	monthsSettled.WithLabelValues(strconv.FormatBool(paid)).Inc()
}

// RecordSettlementExport counts a worker export and, on success, moves the
// watermark gauge.
func RecordSettlementExport(ts time.Time, err error) {
	if err != nil {
		settlementsExported.WithLabelValues("error").Inc()
		return
	}
	settlementsExported.WithLabelValues("ok").Inc()
	if !ts.IsZero() {
		lastSettlementExport.Set(float64(ts.Unix()))
	}
}

// RecordCacheLookup matches cache.Observer.
func RecordCacheLookup(hit bool) {
	if hit {
		reportCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	reportCacheLookups.WithLabelValues("miss").Inc()
}

func RecordHTTPRequest(method string, code int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func RecordRateLimited() { rateLimited.Inc() }
