package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    JobStatus
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"Started", StatusStarted, false},
		{" FINISHED ", StatusFinished, false},
		{"canceled", StatusCanceled, false},
		{"cancelled", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from    JobStatus
		to      JobStatus
		wantErr error
	}{
		{StatusPending, StatusStarted, nil},
		{StatusPending, StatusCanceled, nil},
		{StatusPending, StatusFinished, ErrInvalidTransition},
		{StatusPending, StatusPending, ErrInvalidTransition},
		{StatusStarted, StatusFinished, nil},
		{StatusStarted, StatusCanceled, nil},
		{StatusStarted, StatusPending, ErrInvalidTransition},
		{StatusStarted, StatusStarted, ErrInvalidTransition},
		{StatusFinished, StatusCanceled, ErrInvalidState},
		{StatusFinished, StatusPending, ErrInvalidState},
		{StatusCanceled, StatusStarted, ErrInvalidState},
		{StatusCanceled, StatusFinished, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckTransition_Messages(t *testing.T) {
	err := CheckTransition(StatusFinished, StatusCanceled)
	var stateErr *InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, StatusFinished, stateErr.Current)
	assert.Equal(t, "Cannot change status of a finished job", err.Error())

	err = CheckTransition(StatusPending, StatusFinished)
	var trErr *InvalidTransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, []JobStatus{StatusStarted, StatusCanceled}, trErr.Allowed)
	assert.Equal(t, "Invalid status transition from pending to finished (allowed: started, canceled)", err.Error())

	err = CheckTransition(StatusStarted, JobStatus("archived"))
	assert.Equal(t, "Invalid status transition from started to archived (allowed: finished, canceled)", err.Error())

	assert.Equal(t, "Invalid status transition from pending to finished",
		(&InvalidTransitionError{From: StatusPending, To: StatusFinished}).Error())
}

func TestStaleStatusError(t *testing.T) {
	err := &StaleStatusError{Expected: StatusPending, Current: StatusStarted}

	assert.Equal(t, "Job is no longer pending, it is now started", err.Error())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrInvalidState)
}

func TestParseStatus_UnknownListsStatuses(t *testing.T) {
	_, err := ParseStatus("running")
	require.Error(t, err)
	assert.Equal(t, `unknown status "running", want one of pending, started, finished, canceled`, err.Error())
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.Valid())
		if s.IsTerminal() {
			assert.Empty(t, s.AllowedTransitions(), s)
		} else {
			assert.NotEmpty(t, s.AllowedTransitions(), s)
		}
	}
	assert.False(t, JobStatus("archived").Valid())
}

func TestTransitionsNeverRevisitPending(t *testing.T) {
	for _, s := range Statuses() {
		assert.False(t, s.CanTransitionTo(StatusPending), s)
	}
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	allowed := StatusPending.AllowedTransitions()
	allowed[0] = StatusFinished
	assert.Equal(t, []JobStatus{StatusStarted, StatusCanceled}, StatusPending.AllowedTransitions())
}
