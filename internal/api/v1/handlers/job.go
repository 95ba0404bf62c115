// Package handlers provides HTTP request handling for the v1 API.
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/services"
	"github.com/veltra/genflow/internal/types"
)

// JobHandler handles HTTP requests for generation jobs.
type JobHandler struct {
	gateway *services.Gateway
	sweeper *services.Sweeper
	jobs    *repos.JobRepository
}

// NewJobHandler creates a new instance of JobHandler.
func NewJobHandler(gateway *services.Gateway, sweeper *services.Sweeper, jobs *repos.JobRepository) *JobHandler {
	return &JobHandler{gateway: gateway, sweeper: sweeper, jobs: jobs}
}

// SubmitJob handles creating a generation job via the provider gateway.
func (h *JobHandler) SubmitJob(c *fiber.Ctx) error {
	var req types.SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse("invalid request body"))
	}

	job, err := h.gateway.Submit(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse(err.Error()))
		case errors.Is(err, types.ErrProviderRejected):
			return c.Status(fiber.StatusBadGateway).JSON(types.ErrProviderResponse(err.Error()))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(types.Success(types.SubmitJobResponse{
		JobID:          job.ID,
		ExternalTaskID: *job.ExternalTaskID,
		Status:         job.Status.String(),
	}))
}

// GetJob handles retrieving a job by id.
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse("job id is required"))
	}

	job, err := h.jobs.GetByID(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFoundResponse("job not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(job))
}

// ListJobs handles retrieving jobs with pagination and a status filter.
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	opts := getPaginationOptions(page)

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := models.ParseJobStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse(err.Error()))
		}
		opts.Status = &status
	}

	jobs, err := h.jobs.List(c.Context(), opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(map[string]interface{}{
		"jobs": jobs,
		"pagination": types.PaginationResponse{
			Total:  len(jobs),
			Page:   page,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	}))
}

// PollJob handles reconciling a single job against its provider.
func (h *JobHandler) PollJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse("job id is required"))
	}

	job, err := h.sweeper.PollOne(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFoundResponse("job not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(job))
}

// SweepJobs handles the bulk poll over all non-terminal jobs.
func (h *JobHandler) SweepJobs(c *fiber.Ctx) error {
	report, err := h.sweeper.PollAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(report))
}

// getPaginationOptions converts a 1-based page into list options.
func getPaginationOptions(page int) *models.ListOptions {
	if page < 1 {
		page = 1
	}
	return &models.ListOptions{
		Limit:  models.DefaultLimit,
		Offset: (page - 1) * models.DefaultLimit,
	}
}
