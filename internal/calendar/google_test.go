package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/cuongbtq/job-scheduling/shared/logger"
)

// fakeCalendarAPI keeps events by id the way the provider does: a deleted
// event stays behind as cancelled and its id cannot be inserted again.
type fakeCalendarAPI struct {
	mu       sync.Mutex
	events   map[string]gcal.Event
	received []gcal.Event
	updated  []gcal.Event
	status   int
}

const eventsPath = "/calendars/primary/events"

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ev gcal.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = map[string]gcal.Event{}
	}

	status := http.StatusOK
	switch {
	case r.Method == http.MethodPost && r.URL.Path == eventsPath:
		f.received = append(f.received, ev)
		if _, taken := f.events[ev.Id]; taken {
			status = http.StatusConflict
		} else if f.status != 0 {
			status = f.status
		} else {
			ev.Status = eventConfirmed
			f.events[ev.Id] = ev
		}
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, eventsPath+"/"):
		id := strings.TrimPrefix(r.URL.Path, eventsPath+"/")
		if _, ok := f.events[id]; !ok {
			status = http.StatusNotFound
		} else {
			f.updated = append(f.updated, ev)
			f.events[id] = ev
		}
	default:
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, http.StatusText(status))
		return
	}
	_ = json.NewEncoder(w).Encode(ev)
}

func newTestGoogleClient(t *testing.T, api *fakeCalendarAPI) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := NewGoogleClient(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestGoogleClient_InsertEvent(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestGoogleClient(t, api)

	events := BuildEvents(sampleJob(), windhoek)
	for _, ev := range events {
		require.NoError(t, client.InsertEvent(context.Background(), "primary", ev))
	}

	require.Len(t, api.received, 2)
	assert.Equal(t, "fsjob42start", api.received[0].Id)
	assert.Equal(t, "2024-06-01T07:00:00", api.received[0].Start.DateTime)
	assert.Equal(t, "Africa/Windhoek", api.received[0].Start.TimeZone)
	assert.Equal(t, "End: JC-1001", api.received[1].Summary)
	require.NotNil(t, api.received[1].Reminders)
	assert.Len(t, api.received[1].Reminders.Overrides, 2)
}

func TestGoogleClient_InsertEvent_Errors(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		client := newTestGoogleClient(t, &fakeCalendarAPI{status: http.StatusConflict})

		err := client.InsertEvent(context.Background(), "primary", BuildEvents(sampleJob(), windhoek)[0])
		assert.ErrorIs(t, err, ErrEventExists)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestGoogleClient(t, &fakeCalendarAPI{status: http.StatusServiceUnavailable})

		err := client.InsertEvent(context.Background(), "primary", BuildEvents(sampleJob(), windhoek)[0])
		require.Error(t, err)

		var apiErr *googleapi.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
		assert.True(t, isTransient(err))
	})

	t.Run("bad request", func(t *testing.T) {
		client := newTestGoogleClient(t, &fakeCalendarAPI{status: http.StatusBadRequest})

		err := client.InsertEvent(context.Background(), "primary", BuildEvents(sampleJob(), windhoek)[0])
		require.Error(t, err)
		assert.False(t, isTransient(err))
	})
}

func TestGoogleClient_UpdateEvent(t *testing.T) {
	api := &fakeCalendarAPI{events: map[string]gcal.Event{
		"fsjob42start": {Id: "fsjob42start", Status: "cancelled", Summary: "Start: old"},
	}}
	client := newTestGoogleClient(t, api)

	require.NoError(t, client.UpdateEvent(context.Background(), "primary", BuildEvents(sampleJob(), windhoek)[0]))

	require.Len(t, api.updated, 1)
	assert.Equal(t, "confirmed", api.events["fsjob42start"].Status)
	assert.Equal(t, "Start: JC-1001", api.events["fsjob42start"].Summary)

	err := client.UpdateEvent(context.Background(), "primary", BuildEvents(sampleJob(), windhoek)[1])
	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestAdapter_SyncJob_RecreatesDeletedEvents(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]gcal.Event
	}{
		{
			name: "user deleted both events",
			existing: map[string]gcal.Event{
				"fsjob42start": {Id: "fsjob42start", Status: "cancelled"},
				"fsjob42end":   {Id: "fsjob42end", Status: "cancelled"},
			},
		},
		{
			name: "ids left by an earlier database",
			existing: map[string]gcal.Event{
				"fsjob42start": {Id: "fsjob42start", Status: "confirmed", Summary: "Start: JC-0001"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeCalendarAPI{events: tt.existing}
			adapter := NewAdapter(newTestGoogleClient(t, api), AdapterConfig{
				Events:         windhoek,
				MaxAttempts:    2,
				InitialBackoff: time.Millisecond,
				MaxBackoff:     time.Millisecond,
			}, logger.Discard())

			require.NoError(t, adapter.SyncJob(context.Background(), sampleJob()))

			for _, id := range []string{"fsjob42start", "fsjob42end"} {
				ev, ok := api.events[id]
				require.True(t, ok, id)
				assert.Equal(t, "confirmed", ev.Status, id)
				assert.Contains(t, ev.Summary, "JC-1001", id)
			}
			assert.Len(t, api.updated, len(tt.existing))
		})
	}
}

func TestAdapter_SyncJob_PrefixAvoidsForeignIDs(t *testing.T) {
	api := &fakeCalendarAPI{events: map[string]gcal.Event{
		"fsjob42start": {Id: "fsjob42start", Status: "confirmed", Summary: "Start: other deployment"},
	}}
	settings := windhoek
	settings.IDPrefix = "staging"
	adapter := NewAdapter(newTestGoogleClient(t, api), AdapterConfig{Events: settings}, logger.Discard())

	require.NoError(t, adapter.SyncJob(context.Background(), sampleJob()))

	assert.Empty(t, api.updated)
	assert.Equal(t, "Start: other deployment", api.events["fsjob42start"].Summary)
	assert.Equal(t, "Start: JC-1001", api.events["staging42start"].Summary)
}
