package dto

import "github.com/cuongbtq/job-scheduling/internal/model"

type CreateEmployeeRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=100"`
	Phone string `json:"phone" binding:"required,max=20"`
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type AddTeamMemberRequest struct {
	EmployeeID int64 `json:"employee_id" binding:"required,gt=0"`
}

type CreateDescriptionRequest struct {
	Description string  `json:"description" binding:"required,max=200"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
}

type EmployeeDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type TeamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type DescriptionDTO struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
}

type MembershipDTO struct {
	ID         int64 `json:"id"`
	TeamID     int64 `json:"team_id"`
	EmployeeID int64 `json:"employee_id"`
}

// MessageResponse acknowledges a mutation, optionally echoing what was created
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func FromEmployee(e *model.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name, Email: e.Email, Phone: e.Phone}
}

func FromEmployees(es []model.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, len(es))
	for i := range es {
		out[i] = FromEmployee(&es[i])
	}
	return out
}

func FromTeams(ts []model.Team) []TeamDTO {
	out := make([]TeamDTO, len(ts))
	for i, t := range ts {
		out[i] = TeamDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

func FromDescription(d *model.Description) DescriptionDTO {
	return DescriptionDTO{ID: d.ID, Description: d.Text, Category: d.Category}
}

func FromDescriptions(ds []model.Description) []DescriptionDTO {
	out := make([]DescriptionDTO, len(ds))
	for i := range ds {
		out[i] = FromDescription(&ds[i])
	}
	return out
}
