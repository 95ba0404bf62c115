package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/veltra/genflow/internal/types"
)

// MockName is the registry key for the in-memory provider.
const MockName = "mock"

// Mock is an in-memory Provider used in tests and local development. Created
// tasks start pending; tests drive them to terminal states with SetState.
type Mock struct {
	mu      sync.Mutex
	seq     int
	states  map[string]TaskState
	created []CreateTaskRequest

	// CreateErr, when set, is returned by CreateTask to simulate a provider
	// refusal. GetErr likewise simulates a transient status failure.
	CreateErr error
	GetErr    error
}

// NewMock creates an empty mock provider.
func NewMock() *Mock {
	return &Mock{states: make(map[string]TaskState)}
}

// Name returns the provider's registry key.
func (m *Mock) Name() string {
	return MockName
}

// CreateTask records the request and returns a fresh task id.
func (m *Mock) CreateTask(_ context.Context, req CreateTaskRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	m.seq++
	taskID := fmt.Sprintf("mock-task-%d", m.seq)
	m.states[taskID] = Pending()
	m.created = append(m.created, req)
	return taskID, nil
}

// GetTask returns the scripted state for the task.
func (m *Mock) GetTask(_ context.Context, taskID string) (TaskState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return TaskState{}, fmt.Errorf("%w: %v", types.ErrProviderTransient, m.GetErr)
	}

	state, ok := m.states[taskID]
	if !ok {
		return TaskState{}, fmt.Errorf("%w: unknown mock task %s", types.ErrProviderTransient, taskID)
	}
	return state, nil
}

// mockCallback is the callback payload shape the mock understands.
type mockCallback struct {
	TaskID         string `json:"task_id"`
	Status         string `json:"status"`
	ResultURL      string `json:"result_url,omitempty"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

// ParseCallback normalizes a mock callback payload.
func (m *Mock) ParseCallback(body []byte) (string, TaskState, error) {
	var cb mockCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return "", TaskState{}, fmt.Errorf("decode mock callback: %w", err)
	}
	if cb.TaskID == "" {
		return "", TaskState{}, fmt.Errorf("mock callback missing task_id")
	}

	switch StateKind(cb.Status) {
	case StatePending:
		return cb.TaskID, Pending(), nil
	case StateSuccess:
		return cb.TaskID, Success(cb.ResultURL), nil
	case StateFailure:
		return cb.TaskID, Failure(cb.FailureCode, cb.FailureMessage), nil
	default:
		return "", TaskState{}, fmt.Errorf("unknown mock callback status %q", cb.Status)
	}
}

// SetState scripts the state returned by GetTask for the given task.
func (m *Mock) SetState(taskID string, state TaskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[taskID] = state
}

// LastTaskID returns the most recently created task id, or empty.
func (m *Mock) LastTaskID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq == 0 {
		return ""
	}
	return fmt.Sprintf("mock-task-%d", m.seq)
}

// CreatedRequests returns a copy of every recorded creation request.
func (m *Mock) CreatedRequests() []CreateTaskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CreateTaskRequest, len(m.created))
	copy(out, m.created)
	return out
}

var _ Provider = (*Mock)(nil)
