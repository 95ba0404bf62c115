package types

// Slug categorizes API responses so clients can branch on outcome without
// parsing error strings.
type Slug string

const (
	SuccessSlug       Slug = "success"
	IgnoredSlug       Slug = "ignored"
	InvalidInputSlug  Slug = "invalid-input"
	NotFoundSlug      Slug = "not-found"
	ProviderErrorSlug Slug = "provider-error"
	ServerErrorSlug   Slug = "server-error"
)

// SlugResponse is the envelope for every API response.
type SlugResponse struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Success returns a SlugResponse carrying data.
func Success(data interface{}) SlugResponse {
	return SlugResponse{Slug: SuccessSlug, Data: data}
}

// Ignored returns a SlugResponse for requests that were accepted but produced
// no state change, such as a callback for an unknown task.
func Ignored(msg string) SlugResponse {
	return SlugResponse{Slug: IgnoredSlug, Error: msg}
}

// ErrInvalidInputResponse returns a SlugResponse for malformed requests.
func ErrInvalidInputResponse(msg string) SlugResponse {
	return SlugResponse{Slug: InvalidInputSlug, Error: msg}
}

// ErrNotFoundResponse returns a SlugResponse for missing records.
func ErrNotFoundResponse(msg string) SlugResponse {
	return SlugResponse{Slug: NotFoundSlug, Error: msg}
}

// ErrProviderResponse returns a SlugResponse for provider refusals.
func ErrProviderResponse(msg string) SlugResponse {
	return SlugResponse{Slug: ProviderErrorSlug, Error: msg}
}

// ErrServerResponse returns a SlugResponse for internal failures.
func ErrServerResponse(msg string) SlugResponse {
	return SlugResponse{Slug: ServerErrorSlug, Error: msg}
}

// PaginationResponse describes the window of a list response.
type PaginationResponse struct {
	Total  int `json:"total"`
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
