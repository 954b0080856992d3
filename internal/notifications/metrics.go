package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dispatchTotal counts single-event dispatches by final outcome.
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_notify_dispatch_total",
			Help: "Single-event dispatches by event kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// sendTotal counts send attempts by source (event kind or job).
	sendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_notify_send_total",
			Help: "Push send attempts by source and status",
		},
		[]string{"source", "status"}, // status: success|failure
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_notify_send_duration_seconds",
			Help:    "Push send duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// batchCandidatesTotal counts fan-out candidates by job and result.
	batchCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_notify_batch_candidates_total",
			Help: "Batch candidates processed by job and result",
		},
		[]string{"job", "result"}, // result: sent|skipped|failed
	)

	batchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_notify_batch_duration_seconds",
			Help:    "Batch job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"job"},
	)
)

func recordDispatch(kind Kind, outcome Outcome) {
	dispatchTotal.WithLabelValues(string(kind), string(outcome)).Inc()
}

func recordSend(source string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	sendTotal.WithLabelValues(source, status).Inc()
	sendDuration.WithLabelValues(source).Observe(d.Seconds())
}

func recordBatch(job string, r BatchResult) {
	batchCandidatesTotal.WithLabelValues(job, "sent").Add(float64(r.Sent))
	batchCandidatesTotal.WithLabelValues(job, "skipped").Add(float64(r.Skipped))
	batchCandidatesTotal.WithLabelValues(job, "failed").Add(float64(r.Failed))
	batchDuration.WithLabelValues(job).Observe(r.Duration.Seconds())
}
