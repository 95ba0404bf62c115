package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/types"
)

// Payload keys carrying the identity reference between pipeline stages.
const (
	// faceReferenceKey carries the intro video's result into the profile
	// image request
	faceReferenceKey = "face_reference_url"
	// identityReferenceKey carries the profile image's result into the body
	// map request
	identityReferenceKey = "identity_reference_url"
	// stageKey labels each stage job's payload with the stage it serves
	stageKey = "stage"
)

// Orchestrator drives the persona creation pipeline: intro video, then
// profile image built from the video, then the body reference map built from
// the profile image. It reacts to terminal job notifications from the
// reconciler and submits the next stage through the gateway.
type Orchestrator struct {
	pipelines *repos.PipelineRepository
	jobs      *repos.JobRepository
	gateway   *Gateway
}

// NewOrchestrator creates a new pipeline orchestrator.
func NewOrchestrator(pipelines *repos.PipelineRepository, jobs *repos.JobRepository, gateway *Gateway) *Orchestrator {
	return &Orchestrator{pipelines: pipelines, jobs: jobs, gateway: gateway}
}

// Start begins a persona pipeline: it submits the intro video job and
// records the pipeline at stage intro_video. A persona can only have one
// pipeline; restarting a failed persona requires a fresh persona id.
func (o *Orchestrator) Start(ctx context.Context, req types.StartPipelineRequest) (*models.PersonaPipeline, error) {
	if req.PersonaID == "" {
		return nil, fmt.Errorf("%w: persona_id is required", types.ErrInvalidInput)
	}
	if req.Provider == "" {
		return nil, fmt.Errorf("%w: provider is required", types.ErrInvalidInput)
	}

	if _, err := o.pipelines.GetByPersonaID(ctx, req.PersonaID); err == nil {
		return nil, fmt.Errorf("%w: pipeline for persona %s already exists", types.ErrInvalidInput, req.PersonaID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	job, err := o.submitStage(ctx, req.PersonaID, req.Provider, models.StageIntroVideo, req.Params, req.NotifyURL)
	if err != nil {
		return nil, err
	}

	pipeline := &models.PersonaPipeline{
		PersonaID:  req.PersonaID,
		Stage:      models.StageIntroVideo,
		StageJobID: &job.ID,
	}
	if err := o.pipelines.Create(ctx, pipeline); err != nil {
		return nil, err
	}

	logger.InfoWithFields("pipeline started", map[string]interface{}{
		"persona_id": req.PersonaID,
		"stage":      models.StageIntroVideo.String(),
		"job_id":     job.ID,
	})

	return pipeline, nil
}

// OnJobReady advances the pipeline when its active stage job succeeds: it
// builds the next stage's request from the finished job's result, submits it,
// and moves the stage pointer under a guard that rejects duplicate
// notifications.
func (o *Orchestrator) OnJobReady(ctx context.Context, job *models.GenerationJob) error {
	pipeline, err := o.pipelines.GetByPersonaID(ctx, job.PersonaID)
	if err != nil {
		return fmt.Errorf("load pipeline for persona %s: %w", job.PersonaID, err)
	}

	if pipeline.Stage.Terminal() {
		return nil
	}
	if pipeline.StageJobID == nil || *pipeline.StageJobID != job.ID {
		// Not the active stage job: a duplicate from an earlier stage or an
		// orphaned submission. The pipeline has already moved on.
		logger.Debugf("ignoring ready job %s, pipeline %s is past it", job.ID, pipeline.PersonaID)
		return nil
	}

	if pipeline.Stage == models.StageBodyMap {
		advanced, err := o.pipelines.AdvanceStage(ctx, pipeline.PersonaID, models.StageBodyMap, models.StageCompleted, nil)
		if err != nil {
			return err
		}
		if advanced {
			logger.Infof("pipeline %s completed", pipeline.PersonaID)
		}
		return nil
	}

	next, err := pipeline.Stage.Next()
	if err != nil {
		return err
	}

	params, err := carryParams(job)
	if err != nil {
		return err
	}
	switch next {
	case models.StageProfileImage:
		params[faceReferenceKey] = job.ResultURL
	case models.StageBodyMap:
		params[identityReferenceKey] = job.ResultURL
	}

	nextJob, err := o.submitStage(ctx, pipeline.PersonaID, job.Provider, next, params, job.NotifyURL)
	if err != nil {
		return fmt.Errorf("submit %s stage for persona %s: %w", next, pipeline.PersonaID, err)
	}

	advanced, err := o.pipelines.AdvanceStage(ctx, pipeline.PersonaID, pipeline.Stage, next, &nextJob.ID)
	if err != nil {
		return err
	}
	if !advanced {
		logger.Warnf("pipeline %s advanced concurrently, job %s is orphaned", pipeline.PersonaID, nextJob.ID)
		return nil
	}

	logger.InfoWithFields("pipeline advanced", map[string]interface{}{
		"persona_id": pipeline.PersonaID,
		"stage":      next.String(),
		"job_id":     nextJob.ID,
	})
	return nil
}

// OnJobFailed marks the pipeline permanently failed. No stage retry, no
// partial completion: a persona is either fully built or not built.
func (o *Orchestrator) OnJobFailed(ctx context.Context, job *models.GenerationJob) error {
	lastError := job.FailureMessage
	if job.FailureCode != "" {
		lastError = fmt.Sprintf("%s: %s", job.FailureCode, job.FailureMessage)
	}

	failed, err := o.pipelines.Fail(ctx, job.PersonaID, lastError)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if failed {
		logger.Warnf("pipeline %s failed at job %s: %s", job.PersonaID, job.ID, lastError)
	}
	return nil
}

// Get returns the pipeline for a persona.
func (o *Orchestrator) Get(ctx context.Context, personaID string) (*models.PersonaPipeline, error) {
	return o.pipelines.GetByPersonaID(ctx, personaID)
}

func (o *Orchestrator) submitStage(ctx context.Context, personaID, provider string, stage models.PipelineStage, params map[string]interface{}, notifyURL string) (*models.GenerationJob, error) {
	kind, err := models.JobKindForStage(stage)
	if err != nil {
		return nil, err
	}
	ownerKind, err := models.OwnerKindForStage(stage)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		payload[k] = v
	}
	payload[stageKey] = stage.String()

	return o.gateway.Submit(ctx, types.SubmitJobRequest{
		OwnerKind: ownerKind,
		OwnerID:   personaID,
		Provider:  provider,
		Kind:      string(kind),
		Payload:   payload,
		NotifyURL: notifyURL,
		PersonaID: personaID,
	})
}

// carryParams extracts the finished job's payload minus the per-stage keys,
// so persona parameters thread through the whole chain.
func carryParams(job *models.GenerationJob) (map[string]interface{}, error) {
	params := make(map[string]interface{})
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &params); err != nil {
			return nil, fmt.Errorf("decode payload of job %s: %w", job.ID, err)
		}
	}
	delete(params, stageKey)
	delete(params, faceReferenceKey)
	delete(params, identityReferenceKey)
	return params, nil
}

var _ PipelineNotifier = (*Orchestrator)(nil)
