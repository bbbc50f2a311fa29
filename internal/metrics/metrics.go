package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingOperations counts engine operations by outcome (ok, not_found, bad_request, conflict, error).
	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "operations_total",
			Help:      "The total number of booking engine operations",
		},
		[]string{"operation", "outcome"},
	)

	// AdmissionDenials counts policy denials by action.
	AdmissionDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "admission_denials_total",
			Help:      "The total number of admission policy denials",
		},
		[]string{"action"},
	)

	// LockWait is the time spent waiting for schedule locks.
	LockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring schedule locks",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
)
