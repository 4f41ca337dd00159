// Package jobs defines River Queue job types for background processing.
//
// Import Path: eagle-eye.io/fieldagent/internal/jobs
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

// DefaultReportInterval is how often the roster report runs when no
// interval is configured.
const DefaultReportInterval = time.Hour

// StatusReporter produces the per-status roster counts.
type StatusReporter interface {
	StatusReport(ctx context.Context) (domain.StatusReport, error)
}

// RosterReportArgs is a periodic job that logs the roster's status breakdown.
type RosterReportArgs struct{}

// Kind returns the job kind identifier for the periodic roster report.
func (RosterReportArgs) Kind() string { return "roster_report" }

// InsertOpts ensures at most one report is enqueued per minute.
func (RosterReportArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Minute,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// RosterReportWorker logs the status report of the record store.
type RosterReportWorker struct {
	river.WorkerDefaults[RosterReportArgs]
	reporter StatusReporter
}

// NewRosterReportWorker creates a roster report worker.
func NewRosterReportWorker(reporter StatusReporter) *RosterReportWorker {
	return &RosterReportWorker{reporter: reporter}
}

// Work logs one line per status plus the total.
func (w *RosterReportWorker) Work(ctx context.Context, _ *river.Job[RosterReportArgs]) error {
	if w == nil || w.reporter == nil {
		return fmt.Errorf("roster report worker is not initialized")
	}

	report, err := w.reporter.StatusReport(ctx)
	if err != nil {
		return fmt.Errorf("build roster report: %w", err)
	}

	fields := make([]zap.Field, 0, len(report)+1)
	for _, status := range report.Ordered() {
		fields = append(fields, zap.Int(string(status), report[status]))
	}
	fields = append(fields, zap.Int("total", report.Total()))
	logger.Info("roster report", fields...)
	return nil
}

// NewRosterReportPeriodicJob schedules RosterReportArgs every interval and
// once on startup. Non-positive interval falls back to DefaultReportInterval.
func NewRosterReportPeriodicJob(interval time.Duration) *river.PeriodicJob {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return RosterReportArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
