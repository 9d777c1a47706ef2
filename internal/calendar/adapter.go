package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/shared/backoff"
)

// AdapterConfig tunes event content and the retry policy
type AdapterConfig struct {
	CalendarID     string
	Events         EventSettings
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
}

// Adapter projects a job's start and end milestones into the calendar
type Adapter struct {
	client  EventWriter
	config  AdapterConfig
	backoff backoff.Strategy
	logger  *slog.Logger
}

// NewAdapter creates an Adapter
func NewAdapter(client EventWriter, config AdapterConfig, logger *slog.Logger) *Adapter {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.CalendarID == "" {
		config.CalendarID = "primary"
	}
	return &Adapter{
		client:  client,
		config:  config,
		backoff: backoff.NewExponentialWithJitter(config.InitialBackoff, config.MaxBackoff),
		logger:  logger.With(slog.String("component", "calendar_adapter")),
	}
}

// SyncJob creates both events of job. An event whose id is already taken,
// including one a user deleted, is overwritten with the job's current
// content. Failures come back as *domain.SyncError.
func (a *Adapter) SyncJob(ctx context.Context, job *model.Job) error {
	for _, event := range BuildEvents(job, a.config.Events) {
		if err := a.writeWithRetry(ctx, event); err != nil {
			return &domain.SyncError{JobID: job.ID, Retryable: isTransient(err), Err: err}
		}
	}

	a.logger.Info("Job synced to calendar",
		slog.Int64("job_id", job.ID),
		slog.String("job_card_number", job.JobCardNumber),
	)
	return nil
}

func (a *Adapter) writeWithRetry(ctx context.Context, event *gcal.Event) error {
	var lastErr error

	for attempt := 1; attempt <= a.config.MaxAttempts; attempt++ {
		err := a.writeOnce(ctx, event)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) || attempt == a.config.MaxAttempts {
			break
		}

		delay := a.backoff.Delay(attempt)
		a.logger.Warn("Calendar request failed, retrying",
			slog.String("event_id", event.Id),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", a.config.MaxAttempts),
			slog.Duration("retry_after", delay),
			slog.Any("error", err),
		)
		if sleepErr := backoff.Sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w (gave up: %v)", lastErr, sleepErr)
		}
	}
	return lastErr
}

func (a *Adapter) writeOnce(ctx context.Context, event *gcal.Event) error {
	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	err := a.client.InsertEvent(ctx, a.config.CalendarID, event)
	if !errors.Is(err, ErrEventExists) {
		return err
	}

	a.logger.Debug("Calendar event id taken, overwriting",
		slog.String("event_id", event.Id),
	)
	return a.client.UpdateEvent(ctx, a.config.CalendarID, event)
}

// isTransient reports whether retrying might succeed: throttling, server
// errors, expired credentials, timeouts and network failures
func isTransient(err error) bool {
	if errors.Is(err, ErrNoCredentials) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests ||
			apiErr.Code == http.StatusUnauthorized ||
			apiErr.Code >= http.StatusInternalServerError
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
