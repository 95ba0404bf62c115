package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/veltra/genflow/internal/types"
)

// SeedanceName is the registry key for the seedance provider.
const SeedanceName = "seedance"

// Seedance task status strings as reported by the API.
const (
	seedanceStatusQueued     = "IN_QUEUE"
	seedanceStatusInProgress = "IN_PROGRESS"
	seedanceStatusCompleted  = "COMPLETED"
	seedanceStatusFailed     = "FAILED"
)

// Seedance is the client for the queue-style seedance generation API: a
// creation request returns a request id, and the task is then read from
// GET /v1/generations/{id} or pushed through a callback.
type Seedance struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSeedance creates a seedance client.
func NewSeedance(apiKey, baseURL string, client *http.Client) *Seedance {
	if client == nil {
		client = http.DefaultClient
	}
	return &Seedance{apiKey: apiKey, baseURL: baseURL, client: client}
}

// Name returns the provider's registry key.
func (s *Seedance) Name() string {
	return SeedanceName
}

type seedanceCreateRequest struct {
	Kind  string                 `json:"kind"`
	Input map[string]interface{} `json:"input"`
}

type seedanceCreateResponse struct {
	RequestID string `json:"request_id"`
	Detail    string `json:"detail,omitempty"`
}

// seedanceTask is the wire shape shared by the status endpoint and callbacks.
type seedanceTask struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Output    *struct {
		URL string `json:"url"`
	} `json:"output,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CreateTask submits a generation request and returns the request id.
func (s *Seedance) CreateTask(ctx context.Context, req CreateTaskRequest) (string, error) {
	input := make(map[string]interface{}, len(req.Payload)+1)
	for k, v := range req.Payload {
		input[k] = v
	}
	if req.InputURL != "" {
		input["input_url"] = req.InputURL
	}

	body, err := json.Marshal(seedanceCreateRequest{
		Kind:  string(req.Kind),
		Input: input,
	})
	if err != nil {
		return "", fmt.Errorf("encode seedance request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	s.setHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("seedance create request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read seedance response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("seedance returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var created seedanceCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("decode seedance response: %w", err)
	}
	if created.RequestID == "" {
		return "", fmt.Errorf("seedance response missing request_id: %s", string(respBody))
	}

	return created.RequestID, nil
}

// GetTask fetches the current state of a generation request. Any failure to
// ask or to understand the answer is transient, never a task failure.
func (s *Seedance) GetTask(ctx context.Context, taskID string) (TaskState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/generations/"+taskID, nil)
	if err != nil {
		return TaskState{}, err
	}
	s.setHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return TaskState{}, fmt.Errorf("%w: seedance status request: %v", types.ErrProviderTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return TaskState{}, fmt.Errorf("%w: read seedance status: %v", types.ErrProviderTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TaskState{}, fmt.Errorf("%w: seedance status %d: %s", types.ErrProviderTransient, resp.StatusCode, string(respBody))
	}

	var task seedanceTask
	if err := json.Unmarshal(respBody, &task); err != nil {
		return TaskState{}, fmt.Errorf("%w: decode seedance status: %v", types.ErrProviderTransient, err)
	}

	state, err := s.normalize(task)
	if err != nil {
		return TaskState{}, fmt.Errorf("%w: %v", types.ErrProviderTransient, err)
	}
	return state, nil
}

// ParseCallback normalizes a seedance callback payload.
func (s *Seedance) ParseCallback(body []byte) (string, TaskState, error) {
	var task seedanceTask
	if err := json.Unmarshal(body, &task); err != nil {
		return "", TaskState{}, fmt.Errorf("decode seedance callback: %w", err)
	}
	if task.RequestID == "" {
		return "", TaskState{}, fmt.Errorf("seedance callback missing request_id")
	}

	state, err := s.normalize(task)
	if err != nil {
		return "", TaskState{}, err
	}
	return task.RequestID, state, nil
}

func (s *Seedance) normalize(task seedanceTask) (TaskState, error) {
	switch task.Status {
	case seedanceStatusQueued, seedanceStatusInProgress:
		return Pending(), nil
	case seedanceStatusCompleted:
		if task.Output == nil || task.Output.URL == "" {
			return TaskState{}, fmt.Errorf("seedance completed task missing output url")
		}
		return Success(task.Output.URL), nil
	case seedanceStatusFailed:
		code, message := "unknown", "generation failed"
		if task.Error != nil {
			if task.Error.Code != "" {
				code = task.Error.Code
			}
			if task.Error.Message != "" {
				message = task.Error.Message
			}
		}
		return Failure(code, message), nil
	default:
		return TaskState{}, fmt.Errorf("unknown seedance status %q", task.Status)
	}
}

func (s *Seedance) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

var _ Provider = (*Seedance)(nil)
