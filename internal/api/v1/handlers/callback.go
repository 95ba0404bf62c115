package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/services"
	"github.com/veltra/genflow/internal/types"
)

// CallbackHandler ingests inbound provider notifications. It is a thin
// adapter: normalize the payload and hand it to the reconciler. Idempotency
// comes entirely from the reconciler's terminal-state guard, so a provider
// retrying the same callback is harmless.
type CallbackHandler struct {
	registry   *providers.Registry
	jobs       *repos.JobRepository
	reconciler *services.Reconciler
}

// NewCallbackHandler creates a new instance of CallbackHandler.
func NewCallbackHandler(registry *providers.Registry, jobs *repos.JobRepository, reconciler *services.Reconciler) *CallbackHandler {
	return &CallbackHandler{registry: registry, jobs: jobs, reconciler: reconciler}
}

// HandleCallback handles POST /callbacks/:provider. It responds 200 whether
// or not the task id is recognized; an unknown or duplicate callback is not
// an error.
func (h *CallbackHandler) HandleCallback(c *fiber.Ctx) error {
	providerName := c.Params("provider")

	provider, err := h.registry.Get(providerName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse(err.Error()))
	}

	taskID, state, err := provider.ParseCallback(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse(err.Error()))
	}

	job, err := h.jobs.GetByExternalTaskID(c.Context(), providerName, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debugf("callback for unknown %s task %s ignored", providerName, taskID)
			return c.JSON(types.Ignored("unknown task id"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	updated, err := h.reconciler.Apply(c.Context(), job, state)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(map[string]interface{}{
		"job_id": updated.ID,
		"status": updated.Status.String(),
	}))
}
