package types

// SuccessEnvelope is the body shape for every 2xx JSON response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the body shape for every error response. Data carries
// structured detail (field errors, per-file failures) when the error code
// allows it; Debug carries the internal dump in debug mode only.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Debug   any    `json:"debug,omitempty"`
}
