package calendar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

// SyncStore is what the runner needs from the Entity Store
type SyncStore interface {
	GetJob(ctx context.Context, id int64) (*model.Job, error)
	MarkCalendarSynced(ctx context.Context, id int64, at time.Time) error
}

// JobSyncer creates the calendar events of one job
type JobSyncer interface {
	SyncJob(ctx context.Context, job *model.Job) error
}

// Runner syncs a job by id and records the outcome on the job row
type Runner struct {
	store   SyncStore
	syncer  JobSyncer
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewRunner(store SyncStore, syncer JobSyncer, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		store:   store,
		syncer:  syncer,
		metrics: m,
		logger:  logger.With(slog.String("component", "calendar_runner")),
		now:     time.Now,
	}
}

// Run syncs job jobID unless it was synced before and force is false
func (r *Runner) Run(ctx context.Context, jobID int64, force bool) error {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.CalendarSyncedAt != nil && !force {
		r.metrics.CalendarSync(metrics.SyncSkipped)
		r.logger.Debug("Job already synced to calendar",
			slog.Int64("job_id", jobID),
			slog.Time("synced_at", *job.CalendarSyncedAt),
		)
		return nil
	}

	if err := r.syncer.SyncJob(ctx, job); err != nil {
		r.metrics.CalendarSync(metrics.SyncFailed)
		return err
	}

	if err := r.store.MarkCalendarSynced(ctx, jobID, r.now()); err != nil {
		r.metrics.CalendarSync(metrics.SyncFailed)
		// events are keyed by job, so running again cannot duplicate them
		return &domain.SyncError{JobID: jobID, Retryable: !errors.Is(err, domain.ErrNotFound), Err: err}
	}

	r.metrics.CalendarSync(metrics.SyncOK)
	return nil
}
