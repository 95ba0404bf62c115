// Package models defines the persisted records of the generation subsystem.
package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Database field names used by conditional updates.
const (
	// JobStatusField is the field name for job status
	JobStatusField = "status"
	// JobProviderField is the field name for the provider
	JobProviderField = "provider"
)

// JobKind enumerates the media a job produces.
type JobKind string

// Job kind constants
const (
	// JobKindImage is a still image generation
	JobKindImage JobKind = "image"
	// JobKindVideo is a video generation
	JobKindVideo JobKind = "video"
)

// ParseJobKind converts a string to a JobKind.
func ParseJobKind(str string) (JobKind, error) {
	switch str {
	case string(JobKindImage):
		return JobKindImage, nil
	case string(JobKindVideo):
		return JobKindVideo, nil
	default:
		return "", fmt.Errorf("invalid job kind: %s", str)
	}
}

// JobStatus represents the current state of a generation job.
type JobStatus string

// Job status constants
const (
	// JobStatusQueued indicates the task was accepted by the provider and is
	// waiting to run
	JobStatusQueued JobStatus = "queued"
	// JobStatusProcessing indicates the provider reported the task as running
	JobStatusProcessing JobStatus = "processing"
	// JobStatusReady indicates the provider produced a result
	JobStatusReady JobStatus = "ready"
	// JobStatusFailed indicates the provider reported the generation failed
	JobStatusFailed JobStatus = "failed"
)

// String returns the string representation of the job status.
func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is final. A terminal job never
// transitions again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// NonTerminalStatuses lists the statuses eligible for reconciliation. Used as
// the guard set of every compare-and-transition update.
func NonTerminalStatuses() []JobStatus {
	return []JobStatus{JobStatusQueued, JobStatusProcessing}
}

// ParseJobStatus converts a string to a JobStatus.
func ParseJobStatus(str string) (JobStatus, error) {
	switch str {
	case string(JobStatusQueued):
		return JobStatusQueued, nil
	case string(JobStatusProcessing):
		return JobStatusProcessing, nil
	case string(JobStatusReady):
		return JobStatusReady, nil
	case string(JobStatusFailed):
		return JobStatusFailed, nil
	default:
		return "", fmt.Errorf("invalid job status: %s", str)
	}
}

// Owner kinds for the entities a job produces media for.
const (
	OwnerKindVideo          = "video"
	OwnerKindImagePost      = "image_post"
	OwnerKindPersonaProfile = "persona_profile"
	OwnerKindPersonaBody    = "persona_body_map"
)

// GenerationJob is one request/response lifecycle against a provider for one
// unit of media.
//
// ExternalTaskID is immutable once set and unique per provider. ResultURL is
// populated iff the status is ready; the failure fields iff failed. Only the
// reconciler mutates status and result fields, and only through a guarded
// conditional update.
type GenerationJob struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerKind string  `json:"owner_kind" gorm:"not null;index:idx_jobs_owner"`
	OwnerID   string  `json:"owner_id" gorm:"not null;index:idx_jobs_owner"`
	Provider  string  `json:"provider" gorm:"not null;uniqueIndex:uq_jobs_provider_task"`
	Kind      JobKind `json:"kind" gorm:"not null"`

	ExternalTaskID *string `json:"external_task_id" gorm:"uniqueIndex:uq_jobs_provider_task"`

	Status         JobStatus `json:"status" gorm:"not null;index"`
	ResultURL      string    `json:"result_url,omitempty" gorm:"type:text"`
	FailureCode    string    `json:"failure_code,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty" gorm:"type:text"`

	// Payload is the creation request as submitted, kept for diagnostics and
	// for rebuilding pipeline stage requests.
	Payload datatypes.JSON `json:"payload,omitempty" gorm:"type:jsonb"`

	// PersonaID backlinks pipeline-owned jobs to their pipeline. Empty for
	// ad-hoc jobs.
	PersonaID string `json:"persona_id,omitempty" gorm:"index"`

	// NotifyURL receives a one-shot POST when the job reaches a terminal
	// state. NotifySent guards against duplicate delivery.
	NotifyURL  string `json:"notify_url,omitempty" gorm:"type:text"`
	NotifySent bool   `json:"notify_sent" gorm:"not null;default:false"`

	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName overrides the table name.
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// Validate ensures the job record is well formed before persistence.
func (j *GenerationJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if j.Provider == "" {
		return fmt.Errorf("job provider cannot be empty")
	}
	if j.OwnerKind == "" || j.OwnerID == "" {
		return fmt.Errorf("job owner cannot be empty")
	}
	if _, err := ParseJobKind(string(j.Kind)); err != nil {
		return err
	}
	return nil
}
