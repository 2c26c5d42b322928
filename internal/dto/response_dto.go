package dto

// ErrorResponse is the uniform error body. Details carries the full
// violation list for validation failures, never just the first one.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
