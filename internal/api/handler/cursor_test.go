package handler

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/job-scheduling/internal/calendar"
	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/storage"
)

func TestJobCursor_RoundTrip(t *testing.T) {
	in := &storage.JobCursor{StartDate: domain.MustParseDate("2024-06-01"), ID: 42}

	out, err := DecodeJobCursor(EncodeJobCursor(in))
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.StartDate.Equal(out.StartDate))

	none, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	for _, c := range []string{"%%%", enc("2024-06-01"), enc("yesterday|4"), enc("2024-06-01|x"), enc("2024-06-01|0")} {
		_, err := DecodeJobCursor(c)
		assert.ErrorIs(t, err, domain.ErrValidation, "cursor %q", c)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("x", "bad"), http.StatusBadRequest},
		{&domain.InvalidStateError{Current: domain.StatusFinished}, http.StatusBadRequest},
		{&domain.InvalidTransitionError{From: domain.StatusPending, To: domain.StatusFinished}, http.StatusBadRequest},
		{&domain.NotFoundError{Entity: "job", ID: 1}, http.StatusNotFound},
		{&domain.ConflictError{Entity: "employee", Reason: "exists"}, http.StatusConflict},
		{&domain.SyncError{JobID: 1, Err: calendar.ErrDisabled}, http.StatusServiceUnavailable},
		{&domain.SyncError{JobID: 1, Err: calendar.ErrNoCredentials}, http.StatusBadGateway},
		{&domain.PersistenceError{Op: "create job", Err: assert.AnError}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}
