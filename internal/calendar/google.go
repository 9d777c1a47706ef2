package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrEventExists is returned when an event with the same id is already in the calendar
var ErrEventExists = errors.New("calendar event already exists")

const eventConfirmed = "confirmed"

// EventWriter creates events and overwrites events whose id is taken
type EventWriter interface {
	InsertEvent(ctx context.Context, calendarID string, event *gcal.Event) error
	UpdateEvent(ctx context.Context, calendarID string, event *gcal.Event) error
}

// GoogleClient talks to the Google Calendar v3 API
type GoogleClient struct {
	service *gcal.Service
}

// NewGoogleClient builds a client. Credentials come from opts, usually
// option.WithTokenSource.
func NewGoogleClient(ctx context.Context, opts ...option.ClientOption) (*GoogleClient, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleClient{service: svc}, nil
}

// InsertEvent creates event in calendarID. A duplicate event id yields ErrEventExists.
func (g *GoogleClient) InsertEvent(ctx context.Context, calendarID string, event *gcal.Event) error {
	_, err := g.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return ErrEventExists
	}
	return fmt.Errorf("failed to insert event %s: %w", event.Id, err)
}

// UpdateEvent replaces the event with event.Id. The provider keeps the ids
// of deleted events as cancelled, so the status is forced back to confirmed.
func (g *GoogleClient) UpdateEvent(ctx context.Context, calendarID string, event *gcal.Event) error {
	ev := *event
	ev.Status = eventConfirmed

	if _, err := g.service.Events.Update(calendarID, ev.Id, &ev).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update event %s: %w", ev.Id, err)
	}
	return nil
}
