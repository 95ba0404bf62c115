// Package mock provides a function-field mock of the API client for tests.
package mock

import (
	"context"
	"fmt"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/types"
	"github.com/veltra/genflow/pkg/api/v1/client"
)

// MockClient implements client.Client with overridable function fields. A
// call whose field is unset fails loudly so tests notice missing stubs.
type MockClient struct {
	HealthCheckFn   func(ctx context.Context) (map[string]string, error)
	SubmitJobFn     func(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error)
	GetJobFn        func(ctx context.Context, jobID string) (models.GenerationJob, error)
	ListJobsFn      func(ctx context.Context, page int, status string) ([]models.GenerationJob, error)
	PollJobFn       func(ctx context.Context, jobID string) (models.GenerationJob, error)
	SweepFn         func(ctx context.Context) (types.SweepReport, error)
	StartPipelineFn func(ctx context.Context, req types.StartPipelineRequest) (types.PipelineResponse, error)
	GetPipelineFn   func(ctx context.Context, personaID string) (types.PipelineResponse, error)
}

var _ client.Client = &MockClient{}

// HealthCheck calls HealthCheckFn.
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	if m.HealthCheckFn == nil {
		return nil, fmt.Errorf("HealthCheckFn not set")
	}
	return m.HealthCheckFn(ctx)
}

// SubmitJob calls SubmitJobFn.
func (m *MockClient) SubmitJob(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error) {
	if m.SubmitJobFn == nil {
		return types.SubmitJobResponse{}, fmt.Errorf("SubmitJobFn not set")
	}
	return m.SubmitJobFn(ctx, req)
}

// GetJob calls GetJobFn.
func (m *MockClient) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	if m.GetJobFn == nil {
		return models.GenerationJob{}, fmt.Errorf("GetJobFn not set")
	}
	return m.GetJobFn(ctx, jobID)
}

// ListJobs calls ListJobsFn.
func (m *MockClient) ListJobs(ctx context.Context, page int, status string) ([]models.GenerationJob, error) {
	if m.ListJobsFn == nil {
		return nil, fmt.Errorf("ListJobsFn not set")
	}
	return m.ListJobsFn(ctx, page, status)
}

// PollJob calls PollJobFn.
func (m *MockClient) PollJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	if m.PollJobFn == nil {
		return models.GenerationJob{}, fmt.Errorf("PollJobFn not set")
	}
	return m.PollJobFn(ctx, jobID)
}

// Sweep calls SweepFn.
func (m *MockClient) Sweep(ctx context.Context) (types.SweepReport, error) {
	if m.SweepFn == nil {
		return types.SweepReport{}, fmt.Errorf("SweepFn not set")
	}
	return m.SweepFn(ctx)
}

// StartPipeline calls StartPipelineFn.
func (m *MockClient) StartPipeline(ctx context.Context, req types.StartPipelineRequest) (types.PipelineResponse, error) {
	if m.StartPipelineFn == nil {
		return types.PipelineResponse{}, fmt.Errorf("StartPipelineFn not set")
	}
	return m.StartPipelineFn(ctx, req)
}

// GetPipeline calls GetPipelineFn.
func (m *MockClient) GetPipeline(ctx context.Context, personaID string) (types.PipelineResponse, error) {
	if m.GetPipelineFn == nil {
		return types.PipelineResponse{}, fmt.Errorf("GetPipelineFn not set")
	}
	return m.GetPipelineFn(ctx, personaID)
}
