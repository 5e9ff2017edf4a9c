// Package llm provides the JSON envelopes exchanged with the local tool
// backend: one request and one response shape per endpoint.
package llm

// ErrorResponse is the body the backend returns alongside a non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
