package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/services"
	"github.com/veltra/genflow/internal/types"
)

// PipelineHandler handles HTTP requests for persona pipelines.
type PipelineHandler struct {
	orchestrator *services.Orchestrator
}

// NewPipelineHandler creates a new instance of PipelineHandler.
func NewPipelineHandler(orchestrator *services.Orchestrator) *PipelineHandler {
	return &PipelineHandler{orchestrator: orchestrator}
}

// StartPipeline handles beginning a persona creation pipeline.
func (h *PipelineHandler) StartPipeline(c *fiber.Ctx) error {
	var req types.StartPipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse("invalid request body"))
	}

	pipeline, err := h.orchestrator.Start(c.Context(), req)
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

	return c.Status(fiber.StatusCreated).JSON(types.Success(pipelineResponse(pipeline)))
}

// GetPipeline handles retrieving a pipeline's current position.
func (h *PipelineHandler) GetPipeline(c *fiber.Ctx) error {
	personaID := c.Params("personaId")
	if personaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInputResponse("persona id is required"))
	}

	pipeline, err := h.orchestrator.Get(c.Context(), personaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFoundResponse("pipeline not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServerResponse(err.Error()))
	}

	return c.JSON(types.Success(pipelineResponse(pipeline)))
}

func pipelineResponse(p *models.PersonaPipeline) types.PipelineResponse {
	return types.PipelineResponse{
		PersonaID:  p.PersonaID,
		Stage:      p.Stage.String(),
		StageJobID: p.StageJobID,
		LastError:  p.LastError,
	}
}
