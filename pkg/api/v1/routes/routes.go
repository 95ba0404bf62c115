// Package routes defines the API URL structure shared by the server and the
// client.
package routes

import "fmt"

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
	// HealthPath is the liveness endpoint
	HealthPath = "/health"
)

// DefaultBaseURL is the default base URL for the API.
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// JobsPath returns the collection path for jobs.
func JobsPath() string {
	return APIv1Prefix + "/jobs"
}

// JobPath returns the path for one job.
func JobPath(jobID string) string {
	return fmt.Sprintf("%s/jobs/%s", APIv1Prefix, jobID)
}

// JobPollPath returns the single-job poll path.
func JobPollPath(jobID string) string {
	return fmt.Sprintf("%s/jobs/%s/poll", APIv1Prefix, jobID)
}

// SweepPath returns the bulk poll path.
func SweepPath() string {
	return APIv1Prefix + "/jobs/poll"
}

// CallbackPath returns the callback ingestion path for a provider.
func CallbackPath(provider string) string {
	return fmt.Sprintf("%s/callbacks/%s", APIv1Prefix, provider)
}

// PipelinesPath returns the collection path for pipelines.
func PipelinesPath() string {
	return APIv1Prefix + "/pipelines"
}

// PipelinePath returns the path for one persona's pipeline.
func PipelinePath(personaID string) string {
	return fmt.Sprintf("%s/pipelines/%s", APIv1Prefix, personaID)
}
