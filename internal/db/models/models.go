package models

const (
	// DefaultLimit is the max number of rows retrieved per listing call
	DefaultLimit = 50
)

// ListOptions represents pagination and filtering options for list operations.
type ListOptions struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`

	// Status filters jobs by status when set.
	Status *JobStatus `json:"status,omitempty"`
}

// Normalize clamps the options to sane bounds.
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 || o.Limit > DefaultLimit {
		o.Limit = DefaultLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
