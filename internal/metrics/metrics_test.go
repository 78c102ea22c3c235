package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/courselens/internal/metrics"
)

func TestRecordJobRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-ok", "success"))
		metrics.RecordJobRun("test-ok", time.Second, nil)
		after := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-ok", "success"))

		if after != before+1 {
			t.Errorf("success runs = %v, want %v", after, before+1)
		}
		if testutil.ToFloat64(metrics.JobLastSuccess.WithLabelValues("test-ok")) == 0 {
			t.Error("last success timestamp not set")
		}
	})

	t.Run("error", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-err", "error"))
		metrics.RecordJobRun("test-err", time.Second, errors.New("boom"))
		after := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-err", "error"))

		if after != before+1 {
			t.Errorf("error runs = %v, want %v", after, before+1)
		}
		if testutil.ToFloat64(metrics.JobLastSuccess.WithLabelValues("test-err")) != 0 {
			t.Error("failed run should not set last success")
		}
	})

	t.Run("skipped", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-skip", "skipped"))
		metrics.RecordJobSkipped("test-skip")
		if got := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("test-skip", "skipped")); got != before+1 {
			t.Errorf("skipped runs = %v, want %v", got, before+1)
		}
	})
}

func TestRecordSearch(t *testing.T) {
	tests := []struct {
		name  string
		hits  int
		err   error
		label string
	}{
		{"hit", 3, nil, "hit"},
		{"miss", 0, nil, "miss"},
		{"error", 0, errors.New("index down"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.Searches.WithLabelValues(tt.label))
			metrics.RecordSearch(tt.hits, time.Millisecond, tt.err)
			if got := testutil.ToFloat64(metrics.Searches.WithLabelValues(tt.label)); got != before+1 {
				t.Errorf("%s = %v, want %v", tt.label, got, before+1)
			}
		})
	}
}

func TestRecordDelivery(t *testing.T) {
	sent := testutil.ToFloat64(metrics.Deliveries.WithLabelValues("sent"))
	failed := testutil.ToFloat64(metrics.Deliveries.WithLabelValues("failed"))

	metrics.RecordDelivery(nil)
	metrics.RecordDelivery(errors.New("timeout"))

	if got := testutil.ToFloat64(metrics.Deliveries.WithLabelValues("sent")); got != sent+1 {
		t.Errorf("sent = %v, want %v", got, sent+1)
	}
	if got := testutil.ToFloat64(metrics.Deliveries.WithLabelValues("failed")); got != failed+1 {
		t.Errorf("failed = %v, want %v", got, failed+1)
	}
}
