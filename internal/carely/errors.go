package carely

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const maxErrorBody = 300

// ErrInvalidRequest is returned for arguments rejected before any request is sent
var ErrInvalidRequest = errors.New("invalid request")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	// Message is the backend's "message" field when it sent one.
	Message string
	Body    string
}

func newAPIError(status int, method, path string, body []byte) *APIError {
	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	e := &APIError{StatusCode: status, Method: method, Path: path, Body: msg}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("carely API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("carely API returned %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
