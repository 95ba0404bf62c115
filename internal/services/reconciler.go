package services

import (
	"context"
	"fmt"
	"time"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/providers"
)

// PipelineNotifier receives terminal-state notifications for pipeline-owned
// jobs. Implemented by the Orchestrator.
type PipelineNotifier interface {
	OnJobReady(ctx context.Context, job *models.GenerationJob) error
	OnJobFailed(ctx context.Context, job *models.GenerationJob) error
}

// Reconciler is the sole writer of job status and result fields. Both the
// callback endpoint and the poll sweep normalize into one TaskState shape and
// converge here, so the guarded transition logic exists exactly once.
type Reconciler struct {
	jobs     *repos.JobRepository
	pipeline PipelineNotifier
	notifier *Notifier
}

// NewReconciler creates a new reconciler. pipeline and notifier are optional.
func NewReconciler(jobs *repos.JobRepository, pipeline PipelineNotifier, notifier *Notifier) *Reconciler {
	return &Reconciler{jobs: jobs, pipeline: pipeline, notifier: notifier}
}

// Apply computes the job's next status from the provider state and persists
// it through a compare-and-transition update. A job already terminal, or one
// that another caller drove terminal between our read and our write, is left
// untouched: whoever's guard observed the job first wins and the loser
// no-ops. Returns the job as persisted after the attempt.
func (r *Reconciler) Apply(ctx context.Context, job *models.GenerationJob, state providers.TaskState) (*models.GenerationJob, error) {
	if job.Status.Terminal() {
		return job, nil
	}

	switch state.Kind {
	case providers.StatePending:
		return r.applyPending(ctx, job)
	case providers.StateSuccess:
		return r.applyTerminal(ctx, job, models.JobStatusReady, map[string]interface{}{
			"result_url":   state.ResultURL,
			"completed_at": time.Now().UTC(),
		})
	case providers.StateFailure:
		return r.applyTerminal(ctx, job, models.JobStatusFailed, map[string]interface{}{
			"failure_code":    state.FailureCode,
			"failure_message": state.FailureMessage,
			"completed_at":    time.Now().UTC(),
		})
	default:
		return nil, fmt.Errorf("unknown provider state %q for job %s", state.Kind, job.ID)
	}
}

func (r *Reconciler) applyPending(ctx context.Context, job *models.GenerationJob) (*models.GenerationJob, error) {
	// The provider affirmatively said it is still working. Nothing to write
	// beyond the queued -> processing hop.
	if job.Status == models.JobStatusProcessing {
		return job, nil
	}

	if _, err := r.jobs.TransitionStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return nil, err
	}
	return r.jobs.GetByID(ctx, job.ID)
}

func (r *Reconciler) applyTerminal(ctx context.Context, job *models.GenerationJob, next models.JobStatus, fields map[string]interface{}) (*models.GenerationJob, error) {
	won, err := r.jobs.TransitionStatus(ctx, job.ID, next, fields)
	if err != nil {
		return nil, err
	}

	updated, err := r.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	if !won {
		// Stale transition: someone else already finalized this job. Silently
		// ignored by design of the whole subsystem.
		logger.Debugf("stale transition to %s ignored for job %s (already %s)", next, job.ID, updated.Status)
		return updated, nil
	}

	logger.InfoWithFields("job reached terminal state", map[string]interface{}{
		"job_id":   updated.ID,
		"provider": updated.Provider,
		"status":   updated.Status.String(),
	})

	r.afterTerminal(ctx, updated)
	return updated, nil
}

// afterTerminal runs the side effects of a terminal transition: advancing the
// owning pipeline and firing the completion webhook. Only the guard winner
// gets here, so each terminal state triggers these exactly once.
func (r *Reconciler) afterTerminal(ctx context.Context, job *models.GenerationJob) {
	if job.PersonaID != "" && r.pipeline != nil {
		var err error
		switch job.Status {
		case models.JobStatusReady:
			err = r.pipeline.OnJobReady(ctx, job)
		case models.JobStatusFailed:
			err = r.pipeline.OnJobFailed(ctx, job)
		}
		if err != nil {
			logger.Errorf("pipeline notification for job %s failed: %v", job.ID, err)
		}
	}

	if r.notifier != nil {
		r.notifier.JobCompleted(ctx, job)
	}
}
