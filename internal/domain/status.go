package domain

import (
	"fmt"
	"strings"
)

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	StatusPending  JobStatus = "pending"
	StatusStarted  JobStatus = "started"
	StatusFinished JobStatus = "finished"
	StatusCanceled JobStatus = "canceled"
)

var transitions = map[JobStatus][]JobStatus{
	StatusPending:  {StatusStarted, StatusCanceled},
	StatusStarted:  {StatusFinished, StatusCanceled},
	StatusFinished: nil,
	StatusCanceled: nil,
}

// Statuses lists every status in lifecycle order
func Statuses() []JobStatus {
	return []JobStatus{StatusPending, StatusStarted, StatusFinished, StatusCanceled}
}

// ParseStatus parses a status name, case-insensitively
func ParseStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown status %q, want one of %s", s, joinStatuses(Statuses()))
	}
	return st, nil
}

func (s JobStatus) String() string { return string(s) }

// Valid reports whether s is a known status
func (s JobStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s JobStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCanceled
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s JobStatus) AllowedTransitions() []JobStatus {
	out := make([]JobStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// CanTransitionTo reports whether s -> to is a legal move
func (s JobStatus) CanTransitionTo(to JobStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates from -> to. A terminal from always yields
// InvalidStateError, before the target is looked at.
func CheckTransition(from, to JobStatus) error {
	if from.IsTerminal() {
		return &InvalidStateError{Current: from}
	}
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{From: from, To: to, Allowed: from.AllowedTransitions()}
	}
	return nil
}

func joinStatuses(ss []JobStatus) string {
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
