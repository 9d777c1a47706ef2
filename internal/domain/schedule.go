package domain

// Scheduled is anything with a start and end day
type Scheduled interface {
	Span() (start, end Date)
}

// Priced is anything carrying a quoted cost and an invoiced amount
type Priced interface {
	Amounts() (cost, invoiced float64)
}

// TodayBuckets groups jobs relative to one calendar day. A same-day job
// appears in both Starting and Finishing.
type TodayBuckets[T Scheduled] struct {
	Starting  []T
	Finishing []T
	Overdue   []T
}

// BucketToday sorts jobs into the starting, finishing and overdue buckets
// for today. Overdue is any job whose end day is before today, whatever
// its status.
func BucketToday[T Scheduled](jobs []T, today Date) TodayBuckets[T] {
	b := TodayBuckets[T]{
		Starting:  []T{},
		Finishing: []T{},
		Overdue:   []T{},
	}
	for _, j := range jobs {
		start, end := j.Span()
		if start.Equal(today) {
			b.Starting = append(b.Starting, j)
		}
		if end.Equal(today) {
			b.Finishing = append(b.Finishing, j)
		}
		if end.Before(today) {
			b.Overdue = append(b.Overdue, j)
		}
	}
	return b
}

// DateRange is an inclusive span of days
type DateRange struct {
	Start Date
	End   Date
}

// Validate requires both ends to be set and Start <= End
func (r DateRange) Validate() error {
	verr := &ValidationError{}
	if r.Start.IsZero() {
		verr.Add("start_date", "is required")
	}
	if r.End.IsZero() {
		verr.Add("end_date", "is required")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		verr.Add("end_date", "must not be before start_date")
	}
	return verr.Err()
}

// Contains reports whether d falls inside the range, ends included
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Summary aggregates the financials of a set of jobs
type Summary struct {
	TotalJobs     int     `json:"total_jobs"`
	TotalCost     float64 `json:"total_cost"`
	TotalInvoiced float64 `json:"total_invoiced"`
	TotalProfit   float64 `json:"total_profit"`
	AverageMargin float64 `json:"average_margin"`
}

// Summarize totals cost and invoiced amount, then derives profit and
// margin from the totals rather than from per-job values.
func Summarize[T Priced](jobs []T) Summary {
	s := Summary{TotalJobs: len(jobs)}
	for _, j := range jobs {
		cost, invoiced := j.Amounts()
		s.TotalCost += cost
		s.TotalInvoiced += invoiced
	}
	f := Derive(s.TotalCost, s.TotalInvoiced)
	s.TotalProfit = f.Profit
	s.AverageMargin = f.Margin
	return s
}
