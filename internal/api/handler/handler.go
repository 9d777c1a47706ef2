package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
	"github.com/cuongbtq/job-scheduling/internal/service"
)

// RegistryStore is the CRUD part of the Entity Store
type RegistryStore interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, e *model.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error

	ListTeams(ctx context.Context) ([]model.Team, error)
	CreateTeam(ctx context.Context, t *model.Team) error
	DeleteTeam(ctx context.Context, id int64) error
	ListTeamMembers(ctx context.Context, teamID int64) ([]model.Employee, error)
	AddTeamMember(ctx context.Context, teamID, employeeID int64) (*model.Membership, error)
	RemoveTeamMember(ctx context.Context, teamID, employeeID int64) error

	ListDescriptions(ctx context.Context) ([]model.Description, error)
	CreateDescription(ctx context.Context, d *model.Description) error
	DeleteDescription(ctx context.Context, id int64) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Jobs     *service.JobService
	Registry RegistryStore
}

// JobHandler handles job lifecycle, schedule and calendar requests
type JobHandler struct {
	logger *slog.Logger
	jobs   *service.JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger.With(slog.String("component", "job_handler")),
		jobs:   deps.Jobs,
	}
}

// RegistryHandler handles employee, team and description requests
type RegistryHandler struct {
	logger *slog.Logger
	store  RegistryStore
}

func NewRegistryHandler(deps *Dependencies) *RegistryHandler {
	return &RegistryHandler{
		logger: deps.Logger.With(slog.String("component", "registry_handler")),
		store:  deps.Registry,
	}
}

// pathID reads a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
