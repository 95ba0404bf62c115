package models

import (
	"fmt"
	"time"
)

// PipelineStageField is the field name for the pipeline stage.
const PipelineStageField = "stage"

// PipelineStage represents the position of a persona pipeline.
type PipelineStage string

// Pipeline stages, in order. A pipeline advances intro_video -> profile_image
// -> body_map -> completed; failed is reachable from any active stage.
const (
	StageIntroVideo   PipelineStage = "intro_video"
	StageProfileImage PipelineStage = "profile_image"
	StageBodyMap      PipelineStage = "body_map"
	StageCompleted    PipelineStage = "completed"
	StageFailed       PipelineStage = "failed"
)

// String returns the string representation of the stage.
func (s PipelineStage) String() string {
	return string(s)
}

// Terminal reports whether the stage is final.
func (s PipelineStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Next returns the stage that follows s in the fixed order, or an error if s
// is terminal or unknown.
func (s PipelineStage) Next() (PipelineStage, error) {
	switch s {
	case StageIntroVideo:
		return StageProfileImage, nil
	case StageProfileImage:
		return StageBodyMap, nil
	case StageBodyMap:
		return StageCompleted, nil
	default:
		return "", fmt.Errorf("no stage follows %s", s)
	}
}

// JobKindForStage returns the media kind the given stage produces.
func JobKindForStage(s PipelineStage) (JobKind, error) {
	switch s {
	case StageIntroVideo:
		return JobKindVideo, nil
	case StageProfileImage, StageBodyMap:
		return JobKindImage, nil
	default:
		return "", fmt.Errorf("stage %s produces no media", s)
	}
}

// OwnerKindForStage returns the owner kind recorded on the stage's job.
func OwnerKindForStage(s PipelineStage) (string, error) {
	switch s {
	case StageIntroVideo:
		return OwnerKindVideo, nil
	case StageProfileImage:
		return OwnerKindPersonaProfile, nil
	case StageBodyMap:
		return OwnerKindPersonaBody, nil
	default:
		return "", fmt.Errorf("stage %s has no owner kind", s)
	}
}

// PersonaPipeline is the ordered chain of jobs building one persona. The
// stage only moves forward, and only when the active stage's job is ready.
// Once terminal the row is immutable.
type PersonaPipeline struct {
	PersonaID  string        `json:"persona_id" gorm:"primaryKey;type:varchar(64)"`
	Stage      PipelineStage `json:"stage" gorm:"not null;index"`
	StageJobID *string       `json:"stage_job_id"`
	LastError  string        `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName overrides the table name.
func (PersonaPipeline) TableName() string {
	return "persona_pipelines"
}
