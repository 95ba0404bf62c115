// Package client provides the API client for interacting with the genflow API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/types"
	"github.com/veltra/genflow/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 30 * time.Second

// Client is the interface for the API client.
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Job endpoints
	SubmitJob(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error)
	GetJob(ctx context.Context, jobID string) (models.GenerationJob, error)
	ListJobs(ctx context.Context, page int, status string) ([]models.GenerationJob, error)
	PollJob(ctx context.Context, jobID string) (models.GenerationJob, error)
	Sweep(ctx context.Context) (types.SweepReport, error)

	// Pipeline endpoints
	StartPipeline(ctx context.Context, req types.StartPipelineRequest) (types.PipelineResponse, error)
	GetPipeline(ctx context.Context, personaID string) (types.PipelineResponse, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client.
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options.
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface.
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options.
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{baseURL: opts.BaseURL, timeout: opts.Timeout}, nil
}

// envelope mirrors types.SlugResponse with the data kept raw for decoding
// into the caller's target type.
type envelope struct {
	Slug  types.Slug      `json:"slug"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// createAgent creates a fiber Agent for the given method and endpoint.
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// executeRequest sends the request and decodes the envelope's data into v.
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, v interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		var env envelope
		if err := json.Unmarshal(respBody, &env); err == nil && env.Error != "" {
			return &fiber.Error{Code: statusCode, Message: env.Error}
		}
		return &fiber.Error{Code: statusCode, Message: string(respBody)}
	}

	if v == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

// HealthCheck checks service liveness.
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthPath, nil)
	if err != nil {
		return nil, err
	}

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != http.StatusOK {
		return nil, &fiber.Error{Code: statusCode, Message: string(respBody)}
	}

	var health map[string]string
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return health, nil
}

// SubmitJob creates a generation job.
func (c *APIClient) SubmitJob(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error) {
	var resp types.SubmitJobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.JobsPath(), req, &resp)
	return resp, err
}

// GetJob retrieves a job by id.
func (c *APIClient) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	var job models.GenerationJob
	err := c.executeRequest(ctx, http.MethodGet, routes.JobPath(jobID), nil, &job)
	return job, err
}

// jobListData is the data shape of the list endpoint.
type jobListData struct {
	Jobs       []models.GenerationJob   `json:"jobs"`
	Pagination types.PaginationResponse `json:"pagination"`
}

// ListJobs retrieves a page of jobs, optionally filtered by status.
func (c *APIClient) ListJobs(ctx context.Context, page int, status string) ([]models.GenerationJob, error) {
	endpoint := fmt.Sprintf("%s?page=%d", routes.JobsPath(), page)
	if status != "" {
		endpoint += "&status=" + url.QueryEscape(status)
	}

	var data jobListData
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &data); err != nil {
		return nil, err
	}
	return data.Jobs, nil
}

// PollJob reconciles a single job against its provider.
func (c *APIClient) PollJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	var job models.GenerationJob
	err := c.executeRequest(ctx, http.MethodPost, routes.JobPollPath(jobID), nil, &job)
	return job, err
}

// Sweep triggers a bulk poll over all non-terminal jobs.
func (c *APIClient) Sweep(ctx context.Context) (types.SweepReport, error) {
	var report types.SweepReport
	err := c.executeRequest(ctx, http.MethodPost, routes.SweepPath(), nil, &report)
	return report, err
}

// StartPipeline begins a persona creation pipeline.
func (c *APIClient) StartPipeline(ctx context.Context, req types.StartPipelineRequest) (types.PipelineResponse, error) {
	var resp types.PipelineResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.PipelinesPath(), req, &resp)
	return resp, err
}

// GetPipeline retrieves a persona pipeline's position.
func (c *APIClient) GetPipeline(ctx context.Context, personaID string) (types.PipelineResponse, error) {
	var resp types.PipelineResponse
	err := c.executeRequest(ctx, http.MethodGet, routes.PipelinePath(personaID), nil, &resp)
	return resp, err
}
