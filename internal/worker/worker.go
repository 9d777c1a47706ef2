package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/job-scheduling/internal/metrics"
)

// DeliverySource is the queue the worker consumes from
type DeliverySource interface {
	SetQos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// SyncRunner performs the calendar sync of one job
type SyncRunner interface {
	Run(ctx context.Context, jobID int64, force bool) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Source        DeliverySource
	Runner        SyncRunner
	Metrics       *metrics.Metrics
	WorkerID      string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker consumes calendar sync messages and runs them on a goroutine pool
type Worker struct {
	logger        *slog.Logger
	source        DeliverySource
	runner        SyncRunner
	metrics       *metrics.Metrics
	workerID      string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration

	tasks chan *syncTask
	wg    sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "calendar-worker-" + uuid.NewString()[:8]
	}
	concurrency := max(cfg.Concurrency, 1)
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Worker{
		logger:        cfg.Logger.With(slog.String("component", "worker"), slog.String("worker_id", workerID)),
		source:        cfg.Source,
		runner:        cfg.Runner,
		metrics:       cfg.Metrics,
		workerID:      workerID,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		jobTimeout:    timeout,
		tasks:         make(chan *syncTask),
	}
}

// ErrDeliveriesClosed is returned by Start when the broker closes the consumer
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Start consumes until ctx is canceled or the delivery channel closes. It
// returns after every in-flight sync has been settled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool()
	err = w.startMessageDispatcher(ctx, deliveries)

	close(w.tasks)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
	return err
}
