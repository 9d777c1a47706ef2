package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/job-scheduling/internal/api/dto"
	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/service"
	"github.com/cuongbtq/job-scheduling/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateJob handles POST /api/job
func (h *JobHandler) CreateJob(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, h.logger, domain.NewValidationError("body", "could not be read"))
		return
	}

	in, err := dto.ParseCreateJob(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateJobResponse{
		Success: true,
		Message: "Job added successfully",
		Job:     dto.FromJob(job),
	})
}

// GetJob handles GET /api/job/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.jobs.GetJobDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDetail(detail))
}

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filter := storage.JobFilter{
		EmployeeID: req.EmployeeID,
		PageSize:   req.PageSize,
		After:      cursor,
	}

	verr := &domain.ValidationError{}
	if req.Status != "" {
		st, perr := domain.ParseStatus(req.Status)
		if perr != nil {
			verr.Add("status", perr.Error())
		}
		filter.Status = st
	}
	if req.StartDate != "" {
		if filter.StartFrom, err = domain.ParseDate(req.StartDate); err != nil {
			verr.Add("start_date", "must be a date in YYYY-MM-DD format")
		}
	}
	if req.EndDate != "" {
		if filter.StartTo, err = domain.ParseDate(req.EndDate); err != nil {
			verr.Add("end_date", "must be a date in YYYY-MM-DD format")
		}
	}
	if err := verr.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{StartDate: last.StartDate, ID: last.ID})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       dto.FromJobs(jobs),
		NextCursor: nextCursor,
	})
}

// UpdateStatus handles POST /api/job/status
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, h.logger, domain.NewValidationError("body", "could not be read"))
		return
	}

	req, err := dto.ParseStatusChange(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	job, actual, err := h.jobs.TransitionByID(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := dto.StatusResponse{Success: true, Message: "Job status updated successfully"}
	jobDTO := dto.FromJob(job)
	resp.Job = &jobDTO
	if actual != nil {
		a := dto.FromActual(actual)
		resp.Actual = &a
	}
	c.JSON(http.StatusOK, resp)
}

// Today handles GET /api/jobs/today
func (h *JobHandler) Today(c *gin.Context) {
	var req dto.TodayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	day := h.jobs.CurrentDate()
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			respondError(c, h.logger, domain.NewValidationError("date", "must be a date in YYYY-MM-DD format"))
			return
		}
		day = d
	}

	buckets, err := h.jobs.Today(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromToday(day, buckets))
}

// Analysis handles GET /api/analysis
func (h *JobHandler) Analysis(c *gin.Context) {
	var req dto.AnalysisRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, h.logger, dto.BindError(err))
		return
	}

	q := service.AnalysisQuery{EmployeeID: req.EmployeeID}
	verr := &domain.ValidationError{}
	var err error
	if q.Range.Start, err = domain.ParseDate(req.StartDate); err != nil {
		verr.Add("start_date", "must be a date in YYYY-MM-DD format")
	}
	if q.Range.End, err = domain.ParseDate(req.EndDate); err != nil {
		verr.Add("end_date", "must be a date in YYYY-MM-DD format")
	}
	if err := verr.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	res, err := h.jobs.Analyze(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalysisResponse{
		Success: true,
		Jobs:    dto.FromJobs(res.Jobs),
		Summary: res.Summary,
	})
}

// SyncJob handles POST /api/job/:id/calendar
func (h *JobHandler) SyncJob(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.jobs.SyncJob(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Calendar sync requested", slog.Int64("job_id", id))
	c.JSON(http.StatusAccepted, dto.SyncResponse{Success: true, Message: "Calendar sync requested"})
}

// SyncPending handles POST /api/calendar/sync
func (h *JobHandler) SyncPending(c *gin.Context) {
	n, err := h.jobs.SyncPending(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.SyncResponse{
		Success:    true,
		Message:    "Calendar sync dispatched",
		Dispatched: &n,
	})
}
