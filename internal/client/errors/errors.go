package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the SkillTree backend.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Body       string `json:"body,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("skilltree API error (%d) %s %s: %s [%s]", e.StatusCode, e.Method, e.Path, msg, e.Code)
	}
	return fmt.Sprintf("skilltree API error (%d) %s %s: %s", e.StatusCode, e.Method, e.Path, msg)
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, method, path, message, code, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Message:    message,
		Code:       code,
		Body:       body,
	}
}

// NetworkError represents a network-related error
type NetworkError struct {
	Operation string `json:"operation"`
	URL       string `json:"url"`
	Err       error  `json:"error"`
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s to %s: %v", e.Operation, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is raised before a request is sent when the fixture
// arguments cannot produce a valid entity.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == status
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsBadRequest checks if an error is a bad request error
func IsBadRequest(err error) bool { return hasStatus(err, http.StatusBadRequest) }

// IsConflict reports duplicate-entity answers, e.g. exporting a skill to
// the catalog twice.
func IsConflict(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	return apiErr.StatusCode == http.StatusConflict || apiErr.Code == "SkillAlreadyInCatalog"
}
