package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/job-scheduling/internal/calendar"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
)

// syncTask is one parsed message together with the delivery to settle
type syncTask struct {
	msg      calendar.SyncMessage
	delivery amqp.Delivery
}

// setupConsumer sets QoS and starts consuming with manual acknowledgement
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if err := w.source.SetQos(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Consumer started",
		slog.Int("prefetch_count", w.prefetchCount),
	)
	return deliveries, nil
}

// parseMessage decodes a delivery body into a sync message
func parseMessage(body []byte) (calendar.SyncMessage, error) {
	var msg calendar.SyncMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if msg.JobID <= 0 {
		return msg, fmt.Errorf("%w: job_id must be positive, got %d", ErrInvalidPayload, msg.JobID)
	}
	return msg, nil
}

// startMessageDispatcher hands deliveries to the pool until ctx is done
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("Delivery channel closed")
				return ErrDeliveriesClosed
			}

			msg, err := parseMessage(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping malformed message",
					slog.String("body", string(delivery.Body)),
					slog.Any("error", err),
				)
				w.nack(delivery, false)
				continue
			}

			select {
			case w.tasks <- &syncTask{msg: msg, delivery: delivery}:
			case <-ctx.Done():
				// nobody will run it; give it back to the queue
				w.nack(delivery, true)
				w.logger.Info("Message dispatcher stopped while dispatching",
					slog.Int64("job_id", msg.JobID),
				)
				return nil
			}
		}
	}
}

func (w *Worker) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.Uint64("delivery_tag", d.DeliveryTag),
			slog.Any("error", err),
		)
		return
	}
	if requeue {
		w.metrics.Delivery(metrics.DeliveryRequeue)
	} else {
		w.metrics.Delivery(metrics.DeliveryDrop)
	}
}
