// Package types defines the request and response shapes of the v1 API and the
// error taxonomy shared across the service.
package types

// SubmitJobRequest asks the gateway to create one generation task.
type SubmitJobRequest struct {
	OwnerKind string                 `json:"owner_kind"`
	OwnerID   string                 `json:"owner_id"`
	Provider  string                 `json:"provider"`
	Kind      string                 `json:"kind"`
	Payload   map[string]interface{} `json:"payload,omitempty"`

	// InputURL optionally references input media (an image to animate, a face
	// reference). Validated for reachability and size before submission.
	InputURL string `json:"input_url,omitempty"`

	// NotifyURL optionally receives a one-shot POST when the job reaches a
	// terminal state.
	NotifyURL string `json:"notify_url,omitempty"`

	// PersonaID links the job to a persona pipeline. Set internally by the
	// orchestrator, never by API callers.
	PersonaID string `json:"-"`
}

// SubmitJobResponse is returned on successful submission.
type SubmitJobResponse struct {
	JobID          string `json:"job_id"`
	ExternalTaskID string `json:"external_task_id"`
	Status         string `json:"status"`
}

// Sweep outcome labels.
const (
	SweepOutcomeReady      = "ready"
	SweepOutcomeFailed     = "failed"
	SweepOutcomeProcessing = "processing"
	SweepOutcomeTransient  = "transient"
	SweepOutcomeError      = "error"
)

// SweepOutcome reports the result of polling one job during a sweep.
type SweepOutcome struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// SweepReport is the batch report returned by a bulk poll.
type SweepReport struct {
	Polled   int            `json:"polled"`
	Outcomes []SweepOutcome `json:"outcomes"`
}

// StartPipelineRequest begins a persona creation pipeline.
type StartPipelineRequest struct {
	PersonaID string                 `json:"persona_id"`
	Provider  string                 `json:"provider"`
	Params    map[string]interface{} `json:"params,omitempty"`
	NotifyURL string                 `json:"notify_url,omitempty"`
}

// PipelineResponse describes a pipeline's current position.
type PipelineResponse struct {
	PersonaID  string  `json:"persona_id"`
	Stage      string  `json:"stage"`
	StageJobID *string `json:"stage_job_id,omitempty"`
	LastError  string  `json:"last_error,omitempty"`
}
