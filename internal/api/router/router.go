package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/job-scheduling/internal/api/dto"
	"github.com/cuongbtq/job-scheduling/internal/api/handler"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options are the router collaborators that are not handler dependencies
type Options struct {
	Metrics *metrics.Metrics
	// Health lists the backing services /health checks, in order
	Health []HealthChecker
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	dto.RegisterValidation()

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(MetricsMiddleware(opts.Metrics))
	r.Use(CORSMiddleware())

	r.GET("/health", healthHandler(opts.Health))
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	jobHandler := handler.NewJobHandler(deps)
	registryHandler := handler.NewRegistryHandler(deps)

	api := r.Group("/api")
	{
		api.GET("/jobs/today", jobHandler.Today)
		api.GET("/jobs", jobHandler.ListJobs)
		api.POST("/job", jobHandler.CreateJob)
		api.POST("/job/status", jobHandler.UpdateStatus)
		api.GET("/job/:id", jobHandler.GetJob)
		api.POST("/job/:id/calendar", jobHandler.SyncJob)
		api.GET("/analysis", jobHandler.Analysis)
		api.POST("/calendar/sync", jobHandler.SyncPending)

		api.GET("/employees", registryHandler.ListEmployees)
		api.POST("/employee", registryHandler.CreateEmployee)
		api.DELETE("/employee/:id", registryHandler.DeleteEmployee)

		api.GET("/teams", registryHandler.ListTeams)
		api.POST("/team", registryHandler.CreateTeam)
		api.DELETE("/team/:id", registryHandler.DeleteTeam)
		api.GET("/team/:id/members", registryHandler.ListTeamMembers)
		api.POST("/team/:id/members", registryHandler.AddTeamMember)
		api.DELETE("/team/:id/members/:employee_id", registryHandler.RemoveTeamMember)

		api.GET("/descriptions", registryHandler.ListDescriptions)
		api.POST("/description", registryHandler.CreateDescription)
		api.DELETE("/description/:id", registryHandler.DeleteDescription)
	}

	return r
}

func healthHandler(checkers []HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, checker := range checkers {
			if err := checker.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "job-scheduling-api",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "job-scheduling-api",
		})
	}
}
