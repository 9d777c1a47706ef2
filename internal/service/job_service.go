package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/internal/storage"
)

// JobStore is the part of the Entity Store the job service needs
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id int64) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	ListJobsAround(ctx context.Context, day domain.Date) ([]model.Job, error)
	TransitionJob(ctx context.Context, id int64, from, to domain.JobStatus, actualCost *float64) (*model.Actual, error)
	ListActuals(ctx context.Context, jobID int64) ([]model.Actual, error)
	ListUnsyncedJobs(ctx context.Context) ([]model.Job, error)
}

// CalendarSyncer mirrors committed jobs into the external calendar.
// SyncJob is best effort; Resync is an explicit request whose error the
// caller wants to see.
type CalendarSyncer interface {
	SyncJob(ctx context.Context, job *model.Job) error
	Resync(ctx context.Context, jobID int64) error
}

// DefaultSyncDispatchTimeout bounds handing a committed job to the syncer
const DefaultSyncDispatchTimeout = 3 * time.Second

// JobService runs the job lifecycle on top of the Entity Store
type JobService struct {
	store           JobStore
	syncer          CalendarSyncer
	metrics         *metrics.Metrics
	logger          *slog.Logger
	loc             *time.Location
	dispatchTimeout time.Duration
}

// Option configures a JobService
type Option func(*JobService)

// WithMetrics records job and sync counters on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *JobService) { s.metrics = m }
}

// WithLocation sets the zone that decides which date is "today"
func WithLocation(loc *time.Location) Option {
	return func(s *JobService) { s.loc = loc }
}

// WithSyncDispatchTimeout bounds how long a request waits for the syncer to
// accept a committed job, for example a queue publish with its retries
func WithSyncDispatchTimeout(d time.Duration) Option {
	return func(s *JobService) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

// NewJobService creates a JobService
func NewJobService(store JobStore, syncer CalendarSyncer, logger *slog.Logger, opts ...Option) *JobService {
	s := &JobService{
		store:           store,
		syncer:          syncer,
		logger:          logger.With(slog.String("component", "job_service")),
		loc:             time.Local,
		dispatchTimeout: DefaultSyncDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJobInput carries the fields of a new job after parsing
type CreateJobInput struct {
	JobCardNumber  string
	EmployeeID     int64
	DescriptionID  int64
	StartDate      domain.Date
	EndDate        domain.Date
	Cost           float64
	InvoicedAmount float64
}

// Validate reports every semantic problem of the input at once
func (in CreateJobInput) Validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.JobCardNumber) == "" {
		verr.Add("job_card_number", "is required")
	}
	if in.EmployeeID <= 0 {
		verr.Add("employee_id", "must be a positive id")
	}
	if in.DescriptionID <= 0 {
		verr.Add("description_id", "must be a positive id")
	}
	if in.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if in.EndDate.IsZero() {
		verr.Add("end_date", "is required")
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		verr.Add("end_date", "must not be before start_date")
	}
	if !validAmount(in.Cost) {
		verr.Add("cost", "must be a finite number >= 0")
	}
	if !validAmount(in.InvoicedAmount) {
		verr.Add("invoiced_amount", "must be a finite number >= 0")
	}
	return verr.Err()
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CreateJob persists a pending job with derived profit and margin, then
// hands it to the calendar syncer. Sync failures never fail the call.
func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*model.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fin := domain.Derive(in.Cost, in.InvoicedAmount)
	job := &model.Job{
		JobCardNumber:  strings.TrimSpace(in.JobCardNumber),
		EmployeeID:     in.EmployeeID,
		DescriptionID:  in.DescriptionID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         domain.StatusPending,
		Cost:           in.Cost,
		InvoicedAmount: in.InvoicedAmount,
		Profit:         fin.Profit,
		Margin:         fin.Margin,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.metrics.JobCreated()

	// the write is committed; from here on nothing may fail the request
	if loaded, err := s.store.GetJob(ctx, job.ID); err != nil {
		s.logger.Warn("Failed to reload created job",
			slog.Int64("job_id", job.ID),
			slog.Any("error", err),
		)
	} else {
		job = loaded
	}

	s.syncAfterCommit(ctx, job)
	return job, nil
}

// syncAfterCommit is the error boundary around the calendar syncer
func (s *JobService) syncAfterCommit(ctx context.Context, job *model.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.CalendarSync(metrics.SyncPanic)
			s.logger.Error("Calendar sync panicked",
				slog.Int64("job_id", job.ID),
				slog.Any("panic", r),
			)
		}
	}()

	if s.syncer == nil {
		return
	}

	if err := s.dispatchSync(ctx, job); err != nil {
		s.metrics.CalendarSync(metrics.SyncFailed)
		s.logger.Warn("Calendar sync failed, job was saved",
			slog.Int64("job_id", job.ID),
			slog.String("job_card_number", job.JobCardNumber),
			slog.Any("error", err),
		)
	}
}

// dispatchSync hands job to the syncer under its own deadline so a slow
// broker cannot hold the request after the write committed
func (s *JobService) dispatchSync(ctx context.Context, job *model.Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	return s.syncer.SyncJob(ctx, job)
}

// JobDetail is a job with its realized costs
type JobDetail struct {
	Job      *model.Job
	Actuals  []model.Actual
	Variance *domain.CostVariance
}

// GetJobDetail loads a job, its actual cost records and the variance of
// their total against the quoted cost
func (s *JobService) GetJobDetail(ctx context.Context, id int64) (*JobDetail, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	actuals, err := s.store.ListActuals(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &JobDetail{Job: job, Actuals: actuals}
	if len(actuals) > 0 {
		var total float64
		for _, a := range actuals {
			total += a.Cost
		}
		v := domain.Variance(job.Cost, total)
		detail.Variance = &v
	}
	return detail, nil
}

// ListJobs returns jobs matching filter
func (s *JobService) ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.store.ListJobs(ctx, filter)
}

// ApplyTransition moves job to status to. job.Status is the status the
// caller observed; the store only applies the change if the row is still
// in that status. An actual cost is recorded only when moving to finished.
func (s *JobService) ApplyTransition(ctx context.Context, job *model.Job, to domain.JobStatus, actualCost *float64) (*model.Actual, error) {
	from := job.Status

	if actualCost != nil && !validAmount(*actualCost) {
		return nil, domain.NewValidationError("actual_cost", "must be a finite number >= 0")
	}

	if err := domain.CheckTransition(from, to); err != nil {
		s.recordTransition(from, to, err)
		return nil, err
	}

	actual, err := s.store.TransitionJob(ctx, job.ID, from, to, actualCost)
	if errors.Is(err, domain.ErrStatusConflict) {
		err = s.explainConflict(ctx, job.ID, from)
	}
	s.recordTransition(from, to, err)
	if err != nil {
		return nil, err
	}

	job.Status = to
	return actual, nil
}

// explainConflict turns a lost conditional update into the state machine
// error that matches the job's current status
func (s *JobService) explainConflict(ctx context.Context, id int64, expected domain.JobStatus) error {
	current, err := s.store.GetJob(ctx, id)
	if err != nil {
		return err
	}
	return staleStatus(expected, current.Status)
}

// staleStatus describes a job found in current when the caller expected it
// in expected. A terminal job reports InvalidStateError like any other
// change attempt on it.
func staleStatus(expected, current domain.JobStatus) error {
	if current.IsTerminal() {
		return &domain.InvalidStateError{Current: current}
	}
	return &domain.StaleStatusError{Expected: expected, Current: current}
}

func (s *JobService) recordTransition(from, to domain.JobStatus, err error) {
	result := "ok"
	var stale *domain.StaleStatusError
	switch {
	case err == nil:
	case errors.As(err, &stale):
		result = "stale"
	case errors.Is(err, domain.ErrInvalidState):
		result = "invalid_state"
	case errors.Is(err, domain.ErrInvalidTransition):
		result = "invalid_transition"
	default:
		result = "error"
	}
	s.metrics.Transition(from.String(), to.String(), result)
}

// TransitionRequest asks for a status change of one job
type TransitionRequest struct {
	JobID      int64
	To         domain.JobStatus
	ActualCost *float64
	// Expected, when set, is the status the caller saw. The change only
	// applies if the job is still in it.
	Expected *domain.JobStatus
}

// TransitionByID loads the job and applies the requested transition
func (s *JobService) TransitionByID(ctx context.Context, req TransitionRequest) (*model.Job, *model.Actual, error) {
	job, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, nil, err
	}

	if req.Expected != nil && *req.Expected != job.Status {
		err := staleStatus(*req.Expected, job.Status)
		s.recordTransition(job.Status, req.To, err)
		return nil, nil, err
	}

	actual, err := s.ApplyTransition(ctx, job, req.To, req.ActualCost)
	if err != nil {
		return nil, nil, err
	}
	return job, actual, nil
}

// SyncJob asks the calendar syncer to (re)create the events of one job and
// reports its error
func (s *JobService) SyncJob(ctx context.Context, id int64) error {
	if _, err := s.store.GetJob(ctx, id); err != nil {
		return err
	}
	if s.syncer == nil {
		return &domain.SyncError{JobID: id, Err: errors.New("calendar sync is disabled")}
	}
	if err := s.syncer.Resync(ctx, id); err != nil {
		s.metrics.CalendarSync(metrics.SyncFailed)
		return err
	}
	return nil
}

// SyncPending hands every non-terminal job without calendar events to the
// syncer and returns how many were accepted
func (s *JobService) SyncPending(ctx context.Context) (int, error) {
	jobs, err := s.store.ListUnsyncedJobs(ctx)
	if err != nil {
		return 0, err
	}
	if s.syncer == nil {
		return 0, nil
	}

	dispatched := 0
	for i := range jobs {
		if err := s.dispatchSync(ctx, &jobs[i]); err != nil {
			s.metrics.CalendarSync(metrics.SyncFailed)
			s.logger.Warn("Calendar sync dispatch failed",
				slog.Int64("job_id", jobs[i].ID),
				slog.Any("error", err),
			)
			continue
		}
		dispatched++
	}

	s.logger.Info("Dispatched pending calendar syncs",
		slog.Int("candidates", len(jobs)),
		slog.Int("dispatched", dispatched),
	)
	return dispatched, nil
}
