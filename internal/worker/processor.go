package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/job-scheduling/internal/domain"
)

// processSync runs one sync. Shutdown does not abort it; only the job
// timeout does, so a started sync is always settled.
func (w *Worker) processSync(ctx context.Context, task *syncTask) error {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.jobTimeout)
	defer cancel()

	err := w.runner.Run(runCtx, task.msg.JobID, task.msg.Force)
	if err == nil {
		return nil
	}

	var syncErr *domain.SyncError
	if errors.As(err, &syncErr) && syncErr.Retryable {
		return NewRetryableError(err)
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSync) {
		return err
	}
	// storage failures while loading the job are worth another attempt
	return NewRetryableError(err)
}

// shouldRequeue decides whether a failed message goes back to the queue.
// A message is requeued once; a second failure drops it and the periodic
// resync picks the job up again.
func (w *Worker) shouldRequeue(err error, redelivered bool) bool {
	if errors.Is(err, ErrInvalidPayload) || errors.Is(err, domain.ErrNotFound) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		if redelivered {
			w.logger.Warn("Retryable failure on redelivered message, dropping",
				slog.Any("error", err),
			)
			return false
		}
		return true
	}
	return false
}
