package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeReporter struct {
	report domain.StatusReport
	err    error
	calls  int
}

func (f *fakeReporter) StatusReport(context.Context) (domain.StatusReport, error) {
	f.calls++
	return f.report, f.err
}

func TestRosterReportArgsKind(t *testing.T) {
	t.Parallel()

	if got := (RosterReportArgs{}).Kind(); got != "roster_report" {
		t.Fatalf("Kind() = %q, want %q", got, "roster_report")
	}
}

func TestRosterReportArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (RosterReportArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != time.Minute {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, time.Minute)
	}
	if !opts.UniqueOpts.ByQueue || !opts.UniqueOpts.ByArgs {
		t.Fatal("UniqueOpts must be scoped by queue and args")
	}
}

func TestRosterReportWorkerWork(t *testing.T) {
	t.Parallel()

	t.Run("logs report", func(t *testing.T) {
		reporter := &fakeReporter{report: domain.StatusReport{
			domain.AgentStatusActive:  2,
			domain.AgentStatusRetired: 1,
		}}
		w := NewRosterReportWorker(reporter)
		if err := w.Work(context.Background(), nil); err != nil {
			t.Fatalf("Work() error = %v", err)
		}
		if reporter.calls != 1 {
			t.Fatalf("StatusReport calls = %d, want 1", reporter.calls)
		}
	})

	t.Run("propagates store failure", func(t *testing.T) {
		w := NewRosterReportWorker(&fakeReporter{err: errors.New("connection refused")})
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Fatalf("Work() error = %v, want wrapped store error", err)
		}
	})
}

func TestRosterReportWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	t.Run("nil receiver", func(t *testing.T) {
		var w *RosterReportWorker
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})

	t.Run("nil reporter", func(t *testing.T) {
		w := &RosterReportWorker{}
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}

func TestNewRosterReportPeriodicJob(t *testing.T) {
	t.Parallel()

	if NewRosterReportPeriodicJob(0) == nil {
		t.Fatal("NewRosterReportPeriodicJob(0) = nil")
	}
	if NewRosterReportPeriodicJob(5*time.Minute) == nil {
		t.Fatal("NewRosterReportPeriodicJob(5m) = nil")
	}
}
