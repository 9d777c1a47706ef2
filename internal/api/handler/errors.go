package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/job-scheduling/internal/calendar"
	"github.com/cuongbtq/job-scheduling/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Errors  []domain.FieldViolation `json:"errors,omitempty"`
}

// statusOf maps the domain error taxonomy onto HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSync):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Internal errors are logged
// and their details are not sent to the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "Invalid request"
		resp.Errors = verr.Violations
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Any("error", err),
		)
		if status == http.StatusInternalServerError {
			resp.Message = "Internal server error"
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
