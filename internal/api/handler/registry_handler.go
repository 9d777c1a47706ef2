package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/job-scheduling/internal/api/dto"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

// ListEmployees handles GET /api/employees
func (h *RegistryHandler) ListEmployees(c *gin.Context) {
	employees, err := h.store.ListEmployees(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEmployees(employees))
}

// CreateEmployee handles POST /api/employee
func (h *RegistryHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	e := model.Employee{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.store.CreateEmployee(c.Request.Context(), &e); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Employee added successfully",
		Data:    dto.FromEmployee(&e),
	})
}

// DeleteEmployee handles DELETE /api/employee/:id
func (h *RegistryHandler) DeleteEmployee(c *gin.Context) {
	h.deleteByID(c, h.store.DeleteEmployee, "Employee deleted successfully")
}

// ListTeams handles GET /api/teams
func (h *RegistryHandler) ListTeams(c *gin.Context) {
	teams, err := h.store.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeams(teams))
}

// CreateTeam handles POST /api/team
func (h *RegistryHandler) CreateTeam(c *gin.Context) {
	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	t := model.Team{Name: req.Name}
	if err := h.store.CreateTeam(c.Request.Context(), &t); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Team added successfully",
		Data:    dto.TeamDTO{ID: t.ID, Name: t.Name},
	})
}

// DeleteTeam handles DELETE /api/team/:id
func (h *RegistryHandler) DeleteTeam(c *gin.Context) {
	h.deleteByID(c, h.store.DeleteTeam, "Team deleted successfully")
}

// ListTeamMembers handles GET /api/team/:id/members
func (h *RegistryHandler) ListTeamMembers(c *gin.Context) {
	teamID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	members, err := h.store.ListTeamMembers(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEmployees(members))
}

// AddTeamMember handles POST /api/team/:id/members
func (h *RegistryHandler) AddTeamMember(c *gin.Context) {
	teamID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req dto.AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	m, err := h.store.AddTeamMember(c.Request.Context(), teamID, req.EmployeeID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Team member added successfully",
		Data:    dto.MembershipDTO{ID: m.ID, TeamID: m.TeamID, EmployeeID: m.EmployeeID},
	})
}

// RemoveTeamMember handles DELETE /api/team/:id/members/:employee_id
func (h *RegistryHandler) RemoveTeamMember(c *gin.Context) {
	teamID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	employeeID, err := pathID(c, "employee_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.store.RemoveTeamMember(c.Request.Context(), teamID, employeeID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Team member removed successfully"})
}

// ListDescriptions handles GET /api/descriptions
func (h *RegistryHandler) ListDescriptions(c *gin.Context) {
	descriptions, err := h.store.ListDescriptions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDescriptions(descriptions))
}

// CreateDescription handles POST /api/description
func (h *RegistryHandler) CreateDescription(c *gin.Context) {
	var req dto.CreateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	d := model.Description{Text: req.Description, Category: req.Category}
	if err := h.store.CreateDescription(c.Request.Context(), &d); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Description added successfully",
		Data:    dto.FromDescription(&d),
	})
}

// DeleteDescription handles DELETE /api/description/:id
func (h *RegistryHandler) DeleteDescription(c *gin.Context) {
	h.deleteByID(c, h.store.DeleteDescription, "Description deleted successfully")
}

func (h *RegistryHandler) deleteByID(c *gin.Context, del func(ctx context.Context, id int64) error, message string) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := del(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: message})
}
