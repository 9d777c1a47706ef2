package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/shared/logger"
)

func cardNumbers(jobs []model.Job) []string {
	out := []string{}
	for _, j := range jobs {
		out = append(out, j.JobCardNumber)
	}
	return out
}

func TestJobService_Today(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createJob(t, "starting", "2024-06-01", "2024-06-03", 1, 1)
	env.createJob(t, "finishing", "2024-05-20", "2024-06-01", 1, 1)
	overdue := env.createJob(t, "overdue", "2024-05-25", "2024-05-30", 1, 1)
	env.createJob(t, "future", "2024-06-05", "2024-06-06", 1, 1)

	_, err := env.svc.ApplyTransition(ctx, overdue, domain.StatusCanceled, nil)
	require.NoError(t, err)

	b, err := env.svc.Today(ctx, domain.MustParseDate("2024-06-01"))
	require.NoError(t, err)

	assert.Equal(t, []string{"starting"}, cardNumbers(b.Starting))
	assert.Equal(t, []string{"finishing"}, cardNumbers(b.Finishing))
	assert.Equal(t, []string{"overdue"}, cardNumbers(b.Overdue))
}

func TestJobService_Today_DefaultsToCurrentDate(t *testing.T) {
	env := newTestEnv(t)
	loc := time.FixedZone("CAT", 2*60*60)
	svc := NewJobService(env.store, env.syncer, logger.Discard(), WithLocation(loc))

	today := domain.Today(loc).String()
	_, err := svc.CreateJob(context.Background(), env.input("same-day", today, today, 1, 1))
	require.NoError(t, err)

	b, err := svc.Today(context.Background(), domain.Date{})
	require.NoError(t, err)
	assert.Equal(t, []string{"same-day"}, cardNumbers(b.Starting))
	assert.Equal(t, []string{"same-day"}, cardNumbers(b.Finishing))
	assert.Empty(t, b.Overdue)
}

func TestJobService_Analyze(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createJob(t, "A", "2024-06-01", "2024-06-10", 1000, 1500)
	env.createJob(t, "B", "2024-06-15", "2024-07-20", 2000, 2500)
	env.createJob(t, "C", "2024-06-30", "2024-06-30", 3000, 3300)
	env.createJob(t, "outside", "2024-05-31", "2024-06-02", 9999, 1)

	res, err := env.svc.Analyze(ctx, AnalysisQuery{Range: domain.DateRange{
		Start: domain.MustParseDate("2024-06-01"),
		End:   domain.MustParseDate("2024-06-30"),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, cardNumbers(res.Jobs))
	assert.Equal(t, 3, res.Summary.TotalJobs)
	assert.InDelta(t, 6000, res.Summary.TotalCost, 1e-9)
	assert.InDelta(t, 7300, res.Summary.TotalInvoiced, 1e-9)
	assert.InDelta(t, 1300, res.Summary.TotalProfit, 1e-9)
	assert.InDelta(t, 17.81, res.Summary.AverageMargin, 0.005)
}

func TestJobService_Analyze_EmployeeFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := model.Employee{Name: "Maria", Email: "maria@example.com"}
	require.NoError(t, env.store.CreateEmployee(ctx, &other))

	env.createJob(t, "mine", "2024-06-01", "2024-06-02", 100, 150)
	in := env.input("theirs", "2024-06-03", "2024-06-04", 200, 300)
	in.EmployeeID = other.ID
	_, err := env.svc.CreateJob(ctx, in)
	require.NoError(t, err)

	res, err := env.svc.Analyze(ctx, AnalysisQuery{
		Range:      domain.DateRange{Start: domain.MustParseDate("2024-06-01"), End: domain.MustParseDate("2024-06-30")},
		EmployeeID: &other.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"theirs"}, cardNumbers(res.Jobs))
	assert.InDelta(t, 100, res.Summary.TotalProfit, 1e-9)
}

func TestJobService_Analyze_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Analyze(context.Background(), AnalysisQuery{Range: domain.DateRange{
		Start: domain.MustParseDate("2024-06-30"),
		End:   domain.MustParseDate("2024-06-01"),
	}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := env.svc.Analyze(context.Background(), AnalysisQuery{Range: domain.DateRange{
		Start: domain.MustParseDate("2024-01-01"),
		End:   domain.MustParseDate("2024-01-31"),
	}})
	require.NoError(t, err)
	assert.Empty(t, res.Jobs)
	assert.Zero(t, res.Summary.AverageMargin)
}
