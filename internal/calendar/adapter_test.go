package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/shared/logger"
)

// scriptedWriter returns the queued insert errors in order, then nil.
// Updates fail with updateErr.
type scriptedWriter struct {
	mu        sync.Mutex
	errs      []error
	updateErr error
	inserted  []string
	updated   []string
	calls     int
}

func (s *scriptedWriter) InsertEvent(_ context.Context, _ string, event *gcal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	s.inserted = append(s.inserted, event.Id)
	return nil
}

func (s *scriptedWriter) UpdateEvent(_ context.Context, _ string, event *gcal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, event.Id)
	return nil
}

func apiError(code int) error {
	return fmt.Errorf("failed to insert event: %w", &googleapi.Error{Code: code, Message: http.StatusText(code)})
}

func newTestAdapter(client EventWriter) *Adapter {
	return NewAdapter(client, AdapterConfig{
		Events:         windhoek,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, logger.Discard())
}

func TestAdapter_SyncJob(t *testing.T) {
	tests := []struct {
		name          string
		errs          []error
		wantErr       bool
		wantRetryable bool
		updateErr     error
		wantCalls     int
		wantInserted  []string
		wantUpdated   []string
	}{
		{
			name:         "both events created",
			wantCalls:    2,
			wantInserted: []string{"fsjob42start", "fsjob42end"},
		},
		{
			name:        "taken ids are overwritten",
			errs:        []error{ErrEventExists, ErrEventExists},
			wantCalls:   2,
			wantUpdated: []string{"fsjob42start", "fsjob42end"},
		},
		{
			name:         "one taken id",
			errs:         []error{nil, ErrEventExists},
			wantCalls:    2,
			wantInserted: []string{"fsjob42start"},
			wantUpdated:  []string{"fsjob42end"},
		},
		{
			name:      "overwrite failure is reported",
			errs:      []error{ErrEventExists},
			updateErr: apiError(http.StatusForbidden),
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:         "transient failure is retried",
			errs:         []error{apiError(http.StatusServiceUnavailable), apiError(http.StatusTooManyRequests)},
			wantCalls:    4,
			wantInserted: []string{"fsjob42start", "fsjob42end"},
		},
		{
			name:      "client error is not retried",
			errs:      []error{apiError(http.StatusBadRequest)},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name: "retries exhausted",
			errs: []error{
				apiError(http.StatusInternalServerError),
				apiError(http.StatusBadGateway),
				apiError(http.StatusServiceUnavailable),
			},
			wantErr:       true,
			wantRetryable: true,
			wantCalls:     3,
		},
		{
			name:      "missing credentials",
			errs:      []error{ErrNoCredentials},
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedWriter{errs: tt.errs, updateErr: tt.updateErr}
			err := newTestAdapter(client).SyncJob(context.Background(), sampleJob())

			assert.Equal(t, tt.wantCalls, client.calls)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantInserted, client.inserted)
				assert.Equal(t, tt.wantUpdated, client.updated)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSync)

			var syncErr *domain.SyncError
			require.True(t, errors.As(err, &syncErr))
			assert.Equal(t, int64(42), syncErr.JobID)
			assert.Equal(t, tt.wantRetryable, syncErr.Retryable)
		})
	}
}

func TestAdapter_SyncJob_CanceledContext(t *testing.T) {
	client := &scriptedWriter{errs: []error{apiError(http.StatusServiceUnavailable)}}
	adapter := NewAdapter(client, AdapterConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	}, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := adapter.SyncJob(ctx, sampleJob())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.LessOrEqual(t, client.calls, 1)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throttled", apiError(http.StatusTooManyRequests), true},
		{"unauthorized", apiError(http.StatusUnauthorized), true},
		{"server error", apiError(http.StatusInternalServerError), true},
		{"bad request", apiError(http.StatusBadRequest), false},
		{"forbidden", apiError(http.StatusForbidden), false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"network", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"no credentials", ErrNoCredentials, false},
		{"token endpoint down", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusBadGateway}}, true},
		{"token revoked", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusBadRequest}}, false},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}
