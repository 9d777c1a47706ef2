package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/job-scheduling/internal/metrics"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

// workerLoop processes tasks until the task channel is closed
func (w *Worker) workerLoop(workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	logger := w.logger.With(slog.String("worker_name", workerName))

	for task := range w.tasks {
		logger.Debug("Worker received sync",
			slog.Int64("job_id", task.msg.JobID),
			slog.Bool("force", task.msg.Force),
			slog.Uint64("delivery_tag", task.delivery.DeliveryTag),
		)
		w.handle(context.Background(), logger, task)
	}
}

// handle runs a task and acknowledges its delivery according to the result
func (w *Worker) handle(ctx context.Context, logger *slog.Logger, task *syncTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Calendar sync panicked",
				slog.Int64("job_id", task.msg.JobID),
				slog.Any("panic", r),
			)
			w.nack(task.delivery, false)
		}
	}()

	err := w.processSync(ctx, task)
	if err == nil {
		if ackErr := task.delivery.Ack(false); ackErr != nil {
			logger.Error("Failed to ACK message",
				slog.Int64("job_id", task.msg.JobID),
				slog.Any("error", ackErr),
			)
			return
		}
		w.metrics.Delivery(metrics.DeliveryAck)
		logger.Info("Calendar sync completed", slog.Int64("job_id", task.msg.JobID))
		return
	}

	requeue := w.shouldRequeue(err, task.delivery.Redelivered)
	logger.Error("Calendar sync failed",
		slog.Int64("job_id", task.msg.JobID),
		slog.Bool("requeue", requeue),
		slog.Any("error", err),
	)
	w.nack(task.delivery, requeue)
}
