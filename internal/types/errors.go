package types

import "errors"

// Error taxonomy for the generation subsystem. Provider-reported generation
// failures are not represented here: they are carried as terminal job state,
// never as an error returned to a caller.
var (
	// ErrInvalidInput indicates a malformed submission or query. The caller's
	// fault; never retried automatically.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderRejected indicates the provider refused a creation request.
	// Surfaced to the submitting caller; no job record is created.
	ErrProviderRejected = errors.New("provider rejected creation request")

	// ErrProviderTransient indicates a network, HTTP, or parse failure while
	// checking a task's status. The job stays non-terminal and is retried on
	// the next poll or callback.
	ErrProviderTransient = errors.New("transient provider error")

	// ErrStaleTransition indicates a status write was attempted on a job (or a
	// stage advance on a pipeline) that is already past the expected state.
	// Callers treat it as a no-op.
	ErrStaleTransition = errors.New("stale transition")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
)
