package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

const selectJobs = `
	SELECT
		j.id, j.job_card_number, j.employee_id, j.description_id,
		j.start_date, j.end_date, j.status,
		j.cost, j.invoiced_amount, j.profit, j.margin,
		j.calendar_synced_at, j.created_at, j.updated_at,
		e.name AS employee_name,
		d.text AS description_text
	FROM jobs j
	JOIN employees e ON e.id = j.employee_id
	JOIN descriptions d ON d.id = j.description_id
`

// JobFilter narrows ListJobs. Zero values mean "any".
type JobFilter struct {
	EmployeeID *int64
	Status     domain.JobStatus
	// StartFrom and StartTo bound start_date, both inclusive
	StartFrom domain.Date
	StartTo   domain.Date
	// PageSize > 0 limits the result to PageSize+1 rows so callers can tell
	// whether another page exists
	PageSize int
	After    *JobCursor
}

// JobCursor is the position of the last job of a page in (start_date, id) order
type JobCursor struct {
	StartDate domain.Date
	ID        int64
}

// CreateJob inserts job inside one transaction after checking that the
// referenced employee and description exist. job.ID, CreatedAt and
// UpdatedAt are set on success.
func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	now := s.now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, tx.Rebind, "employees", job.EmployeeID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.NotFoundError{Entity: "employee", ID: job.EmployeeID}
		}

		ok, err = exists(ctx, tx, tx.Rebind, "descriptions", job.DescriptionID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.NotFoundError{Entity: "description", ID: job.DescriptionID}
		}

		query := tx.Rebind(`
			INSERT INTO jobs (
				job_card_number, employee_id, description_id,
				start_date, end_date, status,
				cost, invoiced_amount, profit, margin,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		id, err := insertReturningID(ctx, tx, query,
			job.JobCardNumber, job.EmployeeID, job.DescriptionID,
			job.StartDate, job.EndDate, job.Status,
			job.Cost, job.InvoicedAmount, job.Profit, job.Margin,
			now, now,
		)
		if err != nil {
			return err
		}
		job.ID = id
		return nil
	})
	if err != nil {
		return persistErr("create job", err)
	}

	job.CreatedAt = now
	job.UpdatedAt = now

	s.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.String("job_card_number", job.JobCardNumber),
	)
	return nil
}

// GetJob loads one job with its employee name and description text
func (s *Storage) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	var job model.Job
	query := s.db.Rebind(selectJobs + " WHERE j.id = ?")

	if err := s.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "job", ID: id}
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns jobs matching filter ordered by start date
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := selectJobs + " WHERE 1=1"
	args := []any{}

	if filter.EmployeeID != nil {
		query += " AND j.employee_id = ?"
		args = append(args, *filter.EmployeeID)
	}
	if filter.Status != "" {
		query += " AND j.status = ?"
		args = append(args, filter.Status)
	}
	if !filter.StartFrom.IsZero() {
		query += " AND j.start_date >= ?"
		args = append(args, filter.StartFrom)
	}
	if !filter.StartTo.IsZero() {
		query += " AND j.start_date <= ?"
		args = append(args, filter.StartTo)
	}
	if filter.After != nil {
		query += " AND (j.start_date > ? OR (j.start_date = ? AND j.id > ?))"
		args = append(args, filter.After.StartDate, filter.After.StartDate, filter.After.ID)
	}

	query += " ORDER BY j.start_date, j.id"

	if filter.PageSize > 0 {
		query += " LIMIT ?"
		args = append(args, filter.PageSize+1)
	}

	jobs := []model.Job{}
	if err := s.db.SelectContext(ctx, &jobs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ListJobsAround returns every job that can fall into a today bucket for
// day: jobs starting on day, plus jobs ending on or before it.
func (s *Storage) ListJobsAround(ctx context.Context, day domain.Date) ([]model.Job, error) {
	query := s.db.Rebind(selectJobs + `
		WHERE j.start_date = ? OR j.end_date <= ?
		ORDER BY j.start_date, j.id`)

	jobs := []model.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, day, day); err != nil {
		return nil, fmt.Errorf("failed to list jobs around %s: %w", day, err)
	}
	return jobs, nil
}

// TransitionJob moves job id from status from to status to. The update is
// conditional on the row still being in from; when it is not,
// domain.ErrStatusConflict is returned and nothing is written. When moving
// to finished with an actual cost, the Actual row is inserted in the same
// transaction.
func (s *Storage) TransitionJob(ctx context.Context, id int64, from, to domain.JobStatus, actualCost *float64) (*model.Actual, error) {
	now := s.now()
	var actual *model.Actual

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE jobs
			SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`),
			to, now, id, from,
		)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return domain.ErrStatusConflict
		}

		if to != domain.StatusFinished || actualCost == nil {
			return nil
		}

		a := &model.Actual{JobID: id, Cost: *actualCost, CompletionDate: now}
		a.ID, err = insertReturningID(ctx, tx,
			tx.Rebind(`INSERT INTO actuals (job_id, cost, completion_date) VALUES (?, ?, ?)`),
			a.JobID, a.Cost, a.CompletionDate,
		)
		if err != nil {
			return err
		}
		actual = a
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			s.logger.Warn("Job status update lost a race",
				slog.Int64("job_id", id),
				slog.String("expected_status", from.String()),
				slog.String("new_status", to.String()),
			)
		}
		return nil, persistErr("update job status", err)
	}

	s.logger.Info("Job status updated",
		slog.Int64("job_id", id),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Bool("actual_recorded", actual != nil),
	)
	return actual, nil
}

// ListActuals returns the actual cost records of a job, oldest first
func (s *Storage) ListActuals(ctx context.Context, jobID int64) ([]model.Actual, error) {
	query := s.db.Rebind(`
		SELECT id, job_id, cost, completion_date
		FROM actuals
		WHERE job_id = ?
		ORDER BY completion_date, id`)

	actuals := []model.Actual{}
	if err := s.db.SelectContext(ctx, &actuals, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list actuals: %w", err)
	}
	return actuals, nil
}

// MarkCalendarSynced records that the job's calendar events exist
func (s *Storage) MarkCalendarSynced(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE jobs SET calendar_synced_at = ? WHERE id = ?`),
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job calendar synced: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: "job", ID: id}
	}
	return nil
}

// ListUnsyncedJobs returns non-terminal jobs whose calendar events were never created
func (s *Storage) ListUnsyncedJobs(ctx context.Context) ([]model.Job, error) {
	query := s.db.Rebind(selectJobs + `
		WHERE j.calendar_synced_at IS NULL AND j.status IN (?, ?)
		ORDER BY j.start_date, j.id`)

	jobs := []model.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, domain.StatusPending, domain.StatusStarted); err != nil {
		return nil, fmt.Errorf("failed to list unsynced jobs: %w", err)
	}
	return jobs, nil
}
