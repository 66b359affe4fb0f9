package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRound(t *testing.T) {
	before := testutil.ToFloat64(roundsCounter)
	now := time.Unix(1709285400, 0)

	RecordRound(now, 1500*time.Millisecond)

	if got := testutil.ToFloat64(roundsCounter); got != before+1 {
		t.Errorf("rounds_total = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(lastRoundGauge); got != 1709285400 {
		t.Errorf("last_round_timestamp_seconds = %v", got)
	}
}

func TestRecordMemberCounters(t *testing.T) {
	stored := entriesStoredCounter.WithLabelValues("metrics-test")
	failed := memberFailureCounter.WithLabelValues("metrics-test", StageParse)
	beforeStored := testutil.ToFloat64(stored)
	beforeFailed := testutil.ToFloat64(failed)

	RecordEntryStored("metrics-test")
	RecordEntryStored("metrics-test")
	RecordMemberFailure("metrics-test", StageParse)

	if got := testutil.ToFloat64(stored); got != beforeStored+2 {
		t.Errorf("entries_stored_total = %v, want %v", got, beforeStored+2)
	}
	if got := testutil.ToFloat64(failed); got != beforeFailed+1 {
		t.Errorf("member_failures_total = %v, want %v", got, beforeFailed+1)
	}
}

func TestRecordActivityQuery(t *testing.T) {
	ok := activityQueryCounter.WithLabelValues("success")
	bad := activityQueryCounter.WithLabelValues("error")
	beforeOK, beforeBad := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	RecordActivityQuery(true)
	RecordActivityQuery(false)

	if testutil.ToFloat64(ok) != beforeOK+1 || testutil.ToFloat64(bad) != beforeBad+1 {
		t.Error("activity query outcomes not counted")
	}
}
