package model

import (
	"time"

	"github.com/cuongbtq/job-scheduling/internal/domain"
)

type Employee struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
}

type Team struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Membership links an employee to a team
type Membership struct {
	ID         int64 `db:"id"`
	TeamID     int64 `db:"team_id"`
	EmployeeID int64 `db:"employee_id"`
}

type Description struct {
	ID       int64   `db:"id"`
	Text     string  `db:"text"`
	Category *string `db:"category"`
}

// Job is a jobs row joined with its employee name and description text
type Job struct {
	ID               int64            `db:"id"`
	JobCardNumber    string           `db:"job_card_number"`
	EmployeeID       int64            `db:"employee_id"`
	DescriptionID    int64            `db:"description_id"`
	StartDate        domain.Date      `db:"start_date"`
	EndDate          domain.Date      `db:"end_date"`
	Status           domain.JobStatus `db:"status"`
	Cost             float64          `db:"cost"`
	InvoicedAmount   float64          `db:"invoiced_amount"`
	Profit           float64          `db:"profit"`
	Margin           float64          `db:"margin"`
	CalendarSyncedAt *time.Time       `db:"calendar_synced_at"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`

	EmployeeName    string `db:"employee_name"`
	DescriptionText string `db:"description_text"`
}

// Span implements domain.Scheduled
func (j Job) Span() (domain.Date, domain.Date) { return j.StartDate, j.EndDate }

// Amounts implements domain.Priced
func (j Job) Amounts() (float64, float64) { return j.Cost, j.InvoicedAmount }

// Actual is the realized cost recorded when a job finishes
type Actual struct {
	ID             int64     `db:"id"`
	JobID          int64     `db:"job_id"`
	Cost           float64   `db:"cost"`
	CompletionDate time.Time `db:"completion_date"`
}
