// Package observability holds the Prometheus collectors for the poller and
// the query API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stages a member's round can fail in.
const (
	StageCursor  = "cursor"
	StageQuery   = "query"
	StageParse   = "parse"
	StageEntry   = "entry"
	StageRequest = "request"
)

var (
	roundsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "standup",
		Subsystem: "worker",
		Name:      "rounds_total",
		Help:      "Number of completed polling rounds.",
	})

	roundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "standup",
		Subsystem: "worker",
		Name:      "round_duration_seconds",
		Help:      "Wall-clock duration of a polling round.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	entriesStoredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "standup",
		Subsystem: "worker",
		Name:      "entries_stored_total",
		Help:      "Number of new entries persisted per member.",
	}, []string{"member"})

	memberFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "standup",
		Subsystem: "worker",
		Name:      "member_failures_total",
		Help:      "Number of failures while polling a member, by stage.",
	}, []string{"member", "stage"})

	lastRoundGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "standup",
		Subsystem: "worker",
		Name:      "last_round_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed polling round.",
	})

	activityQueryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "standup",
		Subsystem: "api",
		Name:      "activity_queries_total",
		Help:      "Number of activity queries by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		roundsCounter,
		roundDuration,
		entriesStoredCounter,
		memberFailureCounter,
		lastRoundGauge,
		activityQueryCounter,
	)
}

// RecordRound records a completed polling round.
func RecordRound(finished time.Time, elapsed time.Duration) {
	roundsCounter.Inc()
	roundDuration.Observe(elapsed.Seconds())
	lastRoundGauge.Set(float64(finished.Unix()))
}

// RecordEntryStored counts a newly persisted entry.
func RecordEntryStored(member string) {
	entriesStoredCounter.WithLabelValues(member).Inc()
}

// RecordMemberFailure counts a failure for member at the given stage.
func RecordMemberFailure(member, stage string) {
	memberFailureCounter.WithLabelValues(member, stage).Inc()
}

// RecordActivityQuery counts an activity query; ok is false when it failed.
func RecordActivityQuery(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	activityQueryCounter.WithLabelValues(outcome).Inc()
}
