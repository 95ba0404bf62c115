// Package repos handles database operations for the generation subsystem.
package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/models"
)

// JobRepository handles database operations for generation jobs.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new instance of JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *models.GenerationJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its local identifier.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := r.db.WithContext(ctx).
		Where(models.GenerationJob{ID: id}).
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByExternalTaskID retrieves a job by the provider's task handle. The
// handle is only unique within one provider, so both are required.
func (r *JobRepository) GetByExternalTaskID(ctx context.Context, provider, taskID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND external_task_id = ?", provider, taskID).
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List retrieves jobs with pagination and an optional status filter.
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.GenerationJob, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()

	query := r.db.WithContext(ctx).Model(&models.GenerationJob{})
	if opts.Status != nil {
		query = query.Where(models.JobStatusField+" = ?", *opts.Status)
	}

	var jobs []models.GenerationJob
	err := query.
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&jobs).Error
	return jobs, err
}

// ListNonTerminal retrieves every job still eligible for reconciliation,
// oldest first so long-waiting jobs are polled before fresh ones.
func (r *JobRepository) ListNonTerminal(ctx context.Context) ([]models.GenerationJob, error) {
	var jobs []models.GenerationJob
	err := r.db.WithContext(ctx).
		Where(models.JobStatusField+" IN ?", models.NonTerminalStatuses()).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// TransitionStatus applies a compare-and-transition update: the write only
// succeeds if the persisted status is still non-terminal at write time.
// Returns false when the guard rejected the write, meaning another caller
// already drove the job to a terminal state.
func (r *JobRepository) TransitionStatus(ctx context.Context, id string, next models.JobStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{models.JobStatusField: next}
	for k, v := range fields {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.GenerationJob{}).
		Where("id = ? AND "+models.JobStatusField+" IN ?", id, models.NonTerminalStatuses()).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkNotifySent flags the job's completion webhook as delivered.
func (r *JobRepository) MarkNotifySent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.GenerationJob{}).
		Where("id = ?", id).
		Update("notify_sent", true).Error
}
