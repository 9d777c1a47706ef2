package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	card     string
	start    Date
	end      Date
	status   JobStatus
	cost     float64
	invoiced float64
}

func (j stubJob) Span() (Date, Date)          { return j.start, j.end }
func (j stubJob) Amounts() (float64, float64) { return j.cost, j.invoiced }

func cards(jobs []stubJob) []string {
	out := []string{}
	for _, j := range jobs {
		out = append(out, j.card)
	}
	return out
}

func TestBucketToday(t *testing.T) {
	today := MustParseDate("2024-06-01")
	jobs := []stubJob{
		{card: "JC-START", start: MustParseDate("2024-06-01"), end: MustParseDate("2024-06-03"), status: StatusPending},
		{card: "JC-FINISH", start: MustParseDate("2024-05-20"), end: MustParseDate("2024-06-01"), status: StatusStarted},
		{card: "JC-LATE", start: MustParseDate("2024-05-25"), end: MustParseDate("2024-05-30"), status: StatusStarted},
		{card: "JC-DONE", start: MustParseDate("2024-05-01"), end: MustParseDate("2024-05-02"), status: StatusFinished},
		{card: "JC-SAMEDAY", start: today, end: today, status: StatusPending},
		{card: "JC-FUTURE", start: MustParseDate("2024-06-10"), end: MustParseDate("2024-06-12"), status: StatusPending},
	}

	b := BucketToday(jobs, today)

	assert.Equal(t, []string{"JC-START", "JC-SAMEDAY"}, cards(b.Starting))
	assert.Equal(t, []string{"JC-FINISH", "JC-SAMEDAY"}, cards(b.Finishing))
	assert.Equal(t, []string{"JC-LATE", "JC-DONE"}, cards(b.Overdue))
}

func TestBucketToday_EmptyInput(t *testing.T) {
	b := BucketToday([]stubJob{}, MustParseDate("2024-06-01"))
	assert.NotNil(t, b.Starting)
	assert.NotNil(t, b.Finishing)
	assert.NotNil(t, b.Overdue)
	assert.Empty(t, b.Overdue)
}

func TestDateRange_Validate(t *testing.T) {
	tests := []struct {
		name       string
		r          DateRange
		wantFields []string
	}{
		{"valid", DateRange{Start: MustParseDate("2024-06-01"), End: MustParseDate("2024-06-30")}, nil},
		{"single day", DateRange{Start: MustParseDate("2024-06-01"), End: MustParseDate("2024-06-01")}, nil},
		{"missing both", DateRange{}, []string{"start_date", "end_date"}},
		{"missing end", DateRange{Start: MustParseDate("2024-06-01")}, []string{"end_date"}},
		{"reversed", DateRange{Start: MustParseDate("2024-06-30"), End: MustParseDate("2024-06-01")}, []string{"end_date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var fields []string
			for _, v := range verr.Violations {
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{Start: MustParseDate("2024-06-01"), End: MustParseDate("2024-06-30")}
	assert.True(t, r.Contains(MustParseDate("2024-06-01")))
	assert.True(t, r.Contains(MustParseDate("2024-06-30")))
	assert.False(t, r.Contains(MustParseDate("2024-05-31")))
	assert.False(t, r.Contains(MustParseDate("2024-07-01")))
}

func TestSummarize(t *testing.T) {
	jobs := []stubJob{
		{cost: 1000, invoiced: 1500},
		{cost: 2000, invoiced: 2500},
		{cost: 3000, invoiced: 3300},
	}

	s := Summarize(jobs)

	assert.Equal(t, 3, s.TotalJobs)
	assert.InDelta(t, 6000, s.TotalCost, 1e-9)
	assert.InDelta(t, 7300, s.TotalInvoiced, 1e-9)
	assert.InDelta(t, 1300, s.TotalProfit, 1e-9)
	assert.InDelta(t, 17.81, s.AverageMargin, 0.005)
}

func TestSummarize_NoInvoices(t *testing.T) {
	s := Summarize([]stubJob{{cost: 100}, {cost: 50}})
	assert.Equal(t, 2, s.TotalJobs)
	assert.InDelta(t, -150, s.TotalProfit, 1e-9)
	assert.Zero(t, s.AverageMargin)

	empty := Summarize([]stubJob{})
	assert.Equal(t, Summary{}, empty)
}
