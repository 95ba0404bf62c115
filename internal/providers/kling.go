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

// KlingName is the registry key for the kling provider.
const KlingName = "kling"

// Kling task status strings as reported by the API.
const (
	klingStatusSubmitted  = "submitted"
	klingStatusProcessing = "processing"
	klingStatusSucceed    = "succeed"
	klingStatusFailed     = "failed"
)

// Kling is the client for the envelope-style kling generation API: every
// response wraps its data in {code, message, data} and a zero code means
// success.
type Kling struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewKling creates a kling client.
func NewKling(apiKey, baseURL string, client *http.Client) *Kling {
	if client == nil {
		client = http.DefaultClient
	}
	return &Kling{apiKey: apiKey, baseURL: baseURL, client: client}
}

// Name returns the provider's registry key.
func (k *Kling) Name() string {
	return KlingName
}

type klingEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type klingCreateData struct {
	TaskID string `json:"task_id"`
}

// klingTaskData is the wire shape shared by the task endpoint and callbacks.
type klingTaskData struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg,omitempty"`
	TaskResult    *struct {
		URL string `json:"url"`
	} `json:"task_result,omitempty"`
}

// CreateTask submits a generation request and returns the task id.
func (k *Kling) CreateTask(ctx context.Context, req CreateTaskRequest) (string, error) {
	input := make(map[string]interface{}, len(req.Payload)+1)
	for key, v := range req.Payload {
		input[key] = v
	}
	if req.InputURL != "" {
		input["image_url"] = req.InputURL
	}

	body, err := json.Marshal(map[string]interface{}{
		"task_type": string(req.Kind),
		"input":     input,
	})
	if err != nil {
		return "", fmt.Errorf("encode kling request: %w", err)
	}

	env, err := k.do(ctx, http.MethodPost, "/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if env.Code != 0 {
		return "", fmt.Errorf("kling refused creation (code %d): %s", env.Code, env.Message)
	}

	var data klingCreateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("decode kling create data: %w", err)
	}
	if data.TaskID == "" {
		return "", fmt.Errorf("kling response missing task_id")
	}

	return data.TaskID, nil
}

// GetTask fetches the current state of a task. A non-success envelope while
// checking is transient: it means we failed to ask, not that the generation
// failed.
func (k *Kling) GetTask(ctx context.Context, taskID string) (TaskState, error) {
	env, err := k.do(ctx, http.MethodGet, "/v1/tasks/"+taskID, nil)
	if err != nil {
		return TaskState{}, fmt.Errorf("%w: kling status request: %v", types.ErrProviderTransient, err)
	}
	if env.Code != 0 {
		return TaskState{}, fmt.Errorf("%w: kling status envelope code %d: %s", types.ErrProviderTransient, env.Code, env.Message)
	}

	var data klingTaskData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return TaskState{}, fmt.Errorf("%w: decode kling task data: %v", types.ErrProviderTransient, err)
	}

	state, err := k.normalize(data)
	if err != nil {
		return TaskState{}, fmt.Errorf("%w: %v", types.ErrProviderTransient, err)
	}
	return state, nil
}

// ParseCallback normalizes a kling callback payload. Callbacks carry the task
// data directly, without the response envelope.
func (k *Kling) ParseCallback(body []byte) (string, TaskState, error) {
	var data klingTaskData
	if err := json.Unmarshal(body, &data); err != nil {
		return "", TaskState{}, fmt.Errorf("decode kling callback: %w", err)
	}
	if data.TaskID == "" {
		return "", TaskState{}, fmt.Errorf("kling callback missing task_id")
	}

	state, err := k.normalize(data)
	if err != nil {
		return "", TaskState{}, err
	}
	return data.TaskID, state, nil
}

func (k *Kling) normalize(data klingTaskData) (TaskState, error) {
	switch data.TaskStatus {
	case klingStatusSubmitted, klingStatusProcessing:
		return Pending(), nil
	case klingStatusSucceed:
		if data.TaskResult == nil || data.TaskResult.URL == "" {
			return TaskState{}, fmt.Errorf("kling succeeded task missing result url")
		}
		return Success(data.TaskResult.URL), nil
	case klingStatusFailed:
		message := data.TaskStatusMsg
		if message == "" {
			message = "generation failed"
		}
		return Failure("kling_failed", message), nil
	default:
		return TaskState{}, fmt.Errorf("unknown kling task_status %q", data.TaskStatus)
	}
}

func (k *Kling) do(ctx context.Context, method, path string, body io.Reader) (*klingEnvelope, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, k.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+k.apiKey)

	resp, err := k.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kling request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read kling response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kling returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var env klingEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decode kling envelope: %w", err)
	}

	return &env, nil
}

var _ Provider = (*Kling)(nil)
