package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/models"
)

// PipelineRepository handles database operations for persona pipelines.
type PipelineRepository struct {
	db *gorm.DB
}

// NewPipelineRepository creates a new instance of PipelineRepository.
func NewPipelineRepository(db *gorm.DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

// Create inserts a new pipeline record.
func (r *PipelineRepository) Create(ctx context.Context, p *models.PersonaPipeline) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByPersonaID retrieves a pipeline by persona.
func (r *PipelineRepository) GetByPersonaID(ctx context.Context, personaID string) (*models.PersonaPipeline, error) {
	var p models.PersonaPipeline
	if err := r.db.WithContext(ctx).
		Where(models.PersonaPipeline{PersonaID: personaID}).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// AdvanceStage moves a pipeline from one stage to the next. The update is
// guarded on the current stage still being the expected prior stage;
// returns false when a duplicate notification already advanced it.
func (r *PipelineRepository) AdvanceStage(ctx context.Context, personaID string, from, to models.PipelineStage, stageJobID *string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PersonaPipeline{}).
		Where("persona_id = ? AND "+models.PipelineStageField+" = ?", personaID, from).
		Updates(map[string]interface{}{
			models.PipelineStageField: to,
			"stage_job_id":            stageJobID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Fail marks a pipeline permanently failed. Guarded on the pipeline not yet
// being terminal, so a late failure report cannot overwrite a completed run.
func (r *PipelineRepository) Fail(ctx context.Context, personaID string, lastError string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PersonaPipeline{}).
		Where("persona_id = ? AND "+models.PipelineStageField+" NOT IN ?", personaID,
			[]models.PipelineStage{models.StageCompleted, models.StageFailed}).
		Updates(map[string]interface{}{
			models.PipelineStageField: models.StageFailed,
			"stage_job_id":            nil,
			"last_error":              lastError,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
