package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the failure envelope: success is always false and
// the message deliberately carries no internal detail.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes a JSON response
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondErrorWithCode writes an error response with an error code
func RespondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// RespondValidationError writes a validation error response
func RespondValidationError(w http.ResponseWriter, details any) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation error",
		Code:    "VALIDATION_ERROR",
		Details: details,
	})
}

// DecodeJSON decodes a JSON request body
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
