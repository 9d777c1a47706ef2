package service

import (
	"context"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/internal/storage"
)

// CurrentDate is today in the service's configured zone
func (s *JobService) CurrentDate() domain.Date {
	return domain.Today(s.loc)
}

// Today buckets jobs into starting, finishing and overdue relative to day
func (s *JobService) Today(ctx context.Context, day domain.Date) (domain.TodayBuckets[model.Job], error) {
	if day.IsZero() {
		day = s.CurrentDate()
	}

	jobs, err := s.store.ListJobsAround(ctx, day)
	if err != nil {
		return domain.TodayBuckets[model.Job]{}, err
	}
	return domain.BucketToday(jobs, day), nil
}

// AnalysisQuery selects jobs by start date, optionally for one employee
type AnalysisQuery struct {
	Range      domain.DateRange
	EmployeeID *int64
}

// Analysis is the result of a range analysis
type Analysis struct {
	Jobs    []model.Job
	Summary domain.Summary
}

// Analyze selects jobs whose start date falls in the range, ends included,
// and aggregates their financials
func (s *JobService) Analyze(ctx context.Context, q AnalysisQuery) (*Analysis, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	jobs, err := s.store.ListJobs(ctx, storage.JobFilter{
		EmployeeID: q.EmployeeID,
		StartFrom:  q.Range.Start,
		StartTo:    q.Range.End,
	})
	if err != nil {
		return nil, err
	}

	return &Analysis{Jobs: jobs, Summary: domain.Summarize(jobs)}, nil
}
