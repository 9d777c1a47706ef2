package dto

import (
	"strings"
	"time"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/internal/service"
)

// ParseCreateJob turns a POST /api/job body into service input. All field
// problems are returned together as one *domain.ValidationError.
func ParseCreateJob(body []byte) (service.CreateJobInput, error) {
	f, err := ParseFields(body)
	if err != nil {
		return service.CreateJobInput{}, err
	}

	in := service.CreateJobInput{
		JobCardNumber:  f.String("job_card_number"),
		EmployeeID:     f.ID("employee_id"),
		DescriptionID:  f.ID("description_id"),
		StartDate:      f.Date("start_date"),
		EndDate:        f.Date("end_date"),
		Cost:           f.RequiredNumber("cost"),
		InvoicedAmount: f.RequiredNumber("invoiced_amount"),
	}
	if err := f.Err(); err != nil {
		return service.CreateJobInput{}, err
	}
	return in, nil
}

// ParseStatusChange turns a POST /api/job/status body into a transition
// request. An unknown target status is left for the state machine to
// reject so that the message names both states.
func ParseStatusChange(body []byte) (service.TransitionRequest, error) {
	f, err := ParseFields(body)
	if err != nil {
		return service.TransitionRequest{}, err
	}

	req := service.TransitionRequest{
		JobID:      f.ID("job_id"),
		To:         domain.JobStatus(strings.ToLower(f.String("status"))),
		ActualCost: f.OptionalNumber("actual_cost"),
	}

	if f.Has("expected_status") {
		if st, perr := domain.ParseStatus(f.String("expected_status")); perr != nil {
			f.verr.Add("expected_status", perr.Error())
		} else {
			req.Expected = &st
		}
	}

	if err := f.Err(); err != nil {
		return service.TransitionRequest{}, err
	}
	return req, nil
}

type ListJobsRequest struct {
	EmployeeID *int64 `form:"employee_id" binding:"omitempty,gt=0"`
	Status     string `form:"status"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1"`
	Cursor     string `form:"cursor"`
}

type AnalysisRequest struct {
	StartDate  string `form:"start_date" binding:"required"`
	EndDate    string `form:"end_date" binding:"required"`
	EmployeeID *int64 `form:"employee_id" binding:"omitempty,gt=0"`
}

type TodayRequest struct {
	Date string `form:"date"`
}

// JobDTO is the wire form of a job
type JobDTO struct {
	ID             int64       `json:"id"`
	JobCardNumber  string      `json:"job_card_number"`
	Employee       string      `json:"employee"`
	Description    string      `json:"description"`
	StartDate      domain.Date `json:"start_date"`
	EndDate        domain.Date `json:"end_date"`
	Status         string      `json:"status"`
	Cost           float64     `json:"cost"`
	InvoicedAmount float64     `json:"invoiced_amount"`
	Profit         float64     `json:"profit"`
	Margin         float64     `json:"margin"`
}

func FromJob(j *model.Job) JobDTO {
	return JobDTO{
		ID:             j.ID,
		JobCardNumber:  j.JobCardNumber,
		Employee:       j.EmployeeName,
		Description:    j.DescriptionText,
		StartDate:      j.StartDate,
		EndDate:        j.EndDate,
		Status:         j.Status.String(),
		Cost:           j.Cost,
		InvoicedAmount: j.InvoicedAmount,
		Profit:         j.Profit,
		Margin:         j.Margin,
	}
}

// FromJobs never returns nil so empty lists encode as []
func FromJobs(jobs []model.Job) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i := range jobs {
		out[i] = FromJob(&jobs[i])
	}
	return out
}

type CreateJobResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Job     JobDTO `json:"job"`
}

type StatusResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Job     *JobDTO    `json:"job,omitempty"`
	Actual  *ActualDTO `json:"actual,omitempty"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type TodayResponse struct {
	Date      domain.Date `json:"date"`
	Starting  []JobDTO    `json:"starting"`
	Finishing []JobDTO    `json:"finishing"`
	Overdue   []JobDTO    `json:"overdue"`
}

func FromToday(day domain.Date, b domain.TodayBuckets[model.Job]) TodayResponse {
	return TodayResponse{
		Date:      day,
		Starting:  FromJobs(b.Starting),
		Finishing: FromJobs(b.Finishing),
		Overdue:   FromJobs(b.Overdue),
	}
}

type AnalysisResponse struct {
	Success bool           `json:"success"`
	Jobs    []JobDTO       `json:"jobs"`
	Summary domain.Summary `json:"summary"`
}

type ActualDTO struct {
	ID             int64     `json:"id"`
	Cost           float64   `json:"cost"`
	CompletionDate time.Time `json:"completion_date"`
}

type VarianceDTO struct {
	ActualTotal     float64 `json:"actual_total"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
}

type JobDetailResponse struct {
	JobDTO
	CalendarSyncedAt *time.Time   `json:"calendar_synced_at"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	Actuals          []ActualDTO  `json:"actuals"`
	Variance         *VarianceDTO `json:"variance"`
}

func FromActual(a *model.Actual) ActualDTO {
	return ActualDTO{ID: a.ID, Cost: a.Cost, CompletionDate: a.CompletionDate}
}

func FromDetail(d *service.JobDetail) JobDetailResponse {
	resp := JobDetailResponse{
		JobDTO:           FromJob(d.Job),
		CalendarSyncedAt: d.Job.CalendarSyncedAt,
		CreatedAt:        d.Job.CreatedAt,
		UpdatedAt:        d.Job.UpdatedAt,
		Actuals:          make([]ActualDTO, len(d.Actuals)),
	}
	for i := range d.Actuals {
		resp.Actuals[i] = FromActual(&d.Actuals[i])
	}
	if d.Variance != nil {
		resp.Variance = &VarianceDTO{
			ActualTotal:     d.Variance.Actual,
			Variance:        d.Variance.Variance,
			VariancePercent: d.Variance.VariancePercent,
		}
	}
	return resp
}

type SyncResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Dispatched *int   `json:"dispatched,omitempty"`
}
