// Package services contains the business logic of the generation subsystem:
// the provider gateway, the status reconciler, the poll sweeper, and the
// persona pipeline orchestrator.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/types"
)

// Gateway submits creation requests to providers and records the resulting
// jobs. It is the only component that creates job rows.
type Gateway struct {
	jobs          *repos.JobRepository
	registry      *providers.Registry
	client        *http.Client
	maxInputBytes int64
}

// NewGateway creates a new provider gateway.
func NewGateway(jobs *repos.JobRepository, registry *providers.Registry, client *http.Client, maxInputBytes int64) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		jobs:          jobs,
		registry:      registry,
		client:        client,
		maxInputBytes: maxInputBytes,
	}
}

// Submit sends the creation request to the named provider and, on a
// well-formed success response, persists the job in queued with the returned
// task handle. A provider refusal surfaces as ErrProviderRejected and creates
// no job row.
func (g *Gateway) Submit(ctx context.Context, req types.SubmitJobRequest) (*models.GenerationJob, error) {
	kind, err := models.ParseJobKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if req.OwnerKind == "" || req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner_kind and owner_id are required", types.ErrInvalidInput)
	}

	provider, err := g.registry.Get(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}

	// Pre-submission guard, not a job-state concern: a broken input reference
	// is the caller's fault and must never become a job.
	if req.InputURL != "" {
		if err := g.validateInputMedia(ctx, req.InputURL); err != nil {
			return nil, err
		}
	}

	taskID, err := provider.CreateTask(ctx, providers.CreateTaskRequest{
		Kind:     kind,
		Payload:  req.Payload,
		InputURL: req.InputURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrProviderRejected, err)
	}

	payload, err := encodePayload(req)
	if err != nil {
		return nil, err
	}

	job := &models.GenerationJob{
		ID:             uuid.NewString(),
		OwnerKind:      req.OwnerKind,
		OwnerID:        req.OwnerID,
		Provider:       req.Provider,
		Kind:           kind,
		ExternalTaskID: &taskID,
		Status:         models.JobStatusQueued,
		Payload:        payload,
		PersonaID:      req.PersonaID,
		NotifyURL:      req.NotifyURL,
	}
	if err := g.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job for task %s: %w", taskID, err)
	}

	logger.InfoWithFields("job submitted", map[string]interface{}{
		"job_id":           job.ID,
		"provider":         job.Provider,
		"kind":             string(job.Kind),
		"external_task_id": taskID,
	})

	return job, nil
}

// FetchState queries the provider for the job's current state, normalized to
// the shared TaskState shape. Transport and parse failures come back wrapping
// types.ErrProviderTransient.
func (g *Gateway) FetchState(ctx context.Context, job *models.GenerationJob) (providers.TaskState, error) {
	provider, err := g.registry.Get(job.Provider)
	if err != nil {
		return providers.TaskState{}, err
	}
	if job.ExternalTaskID == nil || *job.ExternalTaskID == "" {
		return providers.TaskState{}, fmt.Errorf("job %s has no external task id", job.ID)
	}
	return provider.GetTask(ctx, *job.ExternalTaskID)
}

// validateInputMedia checks that referenced input media is reachable over
// http(s) and within the configured size limit.
func (g *Gateway) validateInputMedia(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: input_url is not a valid http(s) URL", types.ErrInvalidInput)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: input_url is unreachable: %v", types.ErrInvalidInput, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: input_url returned status %d", types.ErrInvalidInput, resp.StatusCode)
	}
	if resp.ContentLength > g.maxInputBytes {
		return fmt.Errorf("%w: input media is %d bytes, limit is %d", types.ErrInvalidInput, resp.ContentLength, g.maxInputBytes)
	}

	return nil
}

func encodePayload(req types.SubmitJobRequest) (datatypes.JSON, error) {
	stored := make(map[string]interface{}, len(req.Payload)+1)
	for k, v := range req.Payload {
		stored[k] = v
	}
	if req.InputURL != "" {
		stored["input_url"] = req.InputURL
	}
	if len(stored) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not serializable: %v", types.ErrInvalidInput, err)
	}
	return datatypes.JSON(raw), nil
}
