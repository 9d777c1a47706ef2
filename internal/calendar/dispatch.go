package calendar

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

// ErrDisabled is returned by Noop when an explicit sync is requested
var ErrDisabled = errors.New("calendar sync is disabled")

// SyncMessage is the queue payload asking the worker to sync one job
type SyncMessage struct {
	JobID int64 `json:"job_id"`
	Force bool  `json:"force"`
}

// Publisher sends a JSON message to the sync queue
type Publisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// QueueDispatcher hands syncs to the worker service through the message queue
type QueueDispatcher struct {
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewQueueDispatcher(publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		publisher: publisher,
		metrics:   m,
		logger:    logger.With(slog.String("component", "calendar_dispatch")),
	}
}

// SyncJob enqueues a sync for a freshly committed job
func (d *QueueDispatcher) SyncJob(ctx context.Context, job *model.Job) error {
	return d.publish(ctx, SyncMessage{JobID: job.ID})
}

// Resync enqueues a forced sync
func (d *QueueDispatcher) Resync(ctx context.Context, jobID int64) error {
	return d.publish(ctx, SyncMessage{JobID: jobID, Force: true})
}

func (d *QueueDispatcher) publish(ctx context.Context, msg SyncMessage) error {
	if err := d.publisher.PublishJSON(ctx, msg); err != nil {
		return &domain.SyncError{JobID: msg.JobID, Retryable: true, Err: err}
	}
	d.metrics.CalendarSync(metrics.SyncQueued)
	d.logger.Debug("Calendar sync queued",
		slog.Int64("job_id", msg.JobID),
		slog.Bool("force", msg.Force),
	)
	return nil
}

// Background runs syncs in goroutines of the API process, detached from
// the request that triggered them
type Background struct {
	runner  *Runner
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

func NewBackground(runner *Runner, timeout time.Duration, logger *slog.Logger) *Background {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Background{
		runner:  runner,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "calendar_dispatch")),
	}
}

// SyncJob starts the sync and returns at once. Errors are only logged.
func (b *Background) SyncJob(ctx context.Context, job *model.Job) error {
	jobID := job.ID
	// the request context ends with the response; keep its values only
	bgCtx := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Calendar sync panicked", slog.Int64("job_id", jobID), slog.Any("panic", r))
			}
		}()

		runCtx, cancel := context.WithTimeout(bgCtx, b.timeout)
		defer cancel()

		if err := b.runner.Run(runCtx, jobID, false); err != nil {
			b.logger.Warn("Background calendar sync failed",
				slog.Int64("job_id", jobID),
				slog.Any("error", err),
			)
		}
	}()
	return nil
}

// Resync runs a forced sync in the caller's goroutine and returns its error
func (b *Background) Resync(ctx context.Context, jobID int64) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.runner.Run(ctx, jobID, true)
}

// Close waits for running syncs until ctx is done
func (b *Background) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Noop is used when calendar sync is turned off
type Noop struct{}

func (Noop) SyncJob(context.Context, *model.Job) error { return nil }

func (Noop) Resync(_ context.Context, jobID int64) error {
	return &domain.SyncError{JobID: jobID, Err: ErrDisabled}
}
