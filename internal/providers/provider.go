// Package providers defines the uniform interface to external generation
// backends and the concrete clients for each supported provider.
package providers

import (
	"context"
	"fmt"

	"github.com/veltra/genflow/internal/db/models"
)

// StateKind classifies a provider task's normalized state.
type StateKind string

// Normalized task states. Everything a provider reports collapses into one of
// these three; transport problems while asking are not states at all, they
// surface as ErrProviderTransient.
const (
	// StatePending indicates the provider is still working on the task
	StatePending StateKind = "pending"
	// StateSuccess indicates the task finished and produced a result
	StateSuccess StateKind = "success"
	// StateFailure indicates the provider explicitly reported the generation
	// failed
	StateFailure StateKind = "failure"
)

// TaskState is a provider task's state normalized to the shape shared by
// callbacks and polling.
type TaskState struct {
	Kind           StateKind
	ResultURL      string
	FailureCode    string
	FailureMessage string
}

// Pending returns a pending TaskState.
func Pending() TaskState {
	return TaskState{Kind: StatePending}
}

// Success returns a successful TaskState carrying the result URL.
func Success(resultURL string) TaskState {
	return TaskState{Kind: StateSuccess, ResultURL: resultURL}
}

// Failure returns a failed TaskState carrying the provider's code and message
// verbatim.
func Failure(code, message string) TaskState {
	return TaskState{Kind: StateFailure, FailureCode: code, FailureMessage: message}
}

// CreateTaskRequest is the provider-agnostic creation request.
type CreateTaskRequest struct {
	Kind     models.JobKind
	Payload  map[string]interface{}
	InputURL string
}

// Provider is the uniform interface to one external generation backend.
type Provider interface {
	// Name returns the provider's registry key.
	Name() string

	// CreateTask submits a creation request and returns the provider's opaque
	// task handle. Any error means the provider refused or the submission
	// could not be delivered; no retry happens here.
	CreateTask(ctx context.Context, req CreateTaskRequest) (string, error)

	// GetTask fetches and normalizes the task's current state. Transport,
	// HTTP, and parse failures return an error wrapping
	// types.ErrProviderTransient and must never be reported as StateFailure.
	GetTask(ctx context.Context, taskID string) (TaskState, error)

	// ParseCallback normalizes an inbound callback payload into the task
	// handle and its reported state.
	ParseCallback(body []byte) (string, TaskState, error)
}

// Registry resolves provider names to clients.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its name. Later registrations win.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get resolves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return p, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
