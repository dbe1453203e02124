package rollcallsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/rollcall/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeNoSession          = "no_session"
	ErrorCodeStorageUnavailable = "storage_unavailable"
	ErrorCodeEmailNotFound      = "email_not_found"
	ErrorCodeCodeInvalid        = "code_invalid"
	ErrorCodeCodeExpired        = "code_expired"
	ErrorCodeTokenInvalid       = "token_invalid"
	ErrorCodeTokenExpired       = "token_expired"
	ErrorCodeAlreadyUsed        = "already_used"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is an error response from the daemon. It is used both by the
// server to write responses and by the Client to report them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the stable error code (e.g., "code_expired")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Details maps field names to reasons for validation errors
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches any *APIError with the same Code, so callers can write
// errors.Is(err, rollcallsdk.ErrTokenExpired).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
		Details:          e.Details,
	})
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details map[string]string) *APIError {
	out := *e
	out.Details = details
	return &out
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the body is not valid JSON for the endpoint.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed",
	}

	// ErrValidation is returned when one or more fields were rejected.
	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "validation failed for some fields",
	}

	// ErrInvalidCredentials never says which of identifier or password was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	// ErrNoSession is returned when the device has no active session.
	ErrNoSession = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNoSession,
		Description: "no active session",
	}

	// ErrStorageUnavailable is returned when persisted state could not be read
	// or written. The session is left as it was.
	ErrStorageUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeStorageUnavailable,
		Description: "storage is unavailable, try again",
	}

	// ErrEmailNotFound is returned when no account uses the email.
	ErrEmailNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeEmailNotFound,
		Description: "no account uses this email",
	}

	ErrCodeInvalid = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeInvalid,
		Description: "reset code is invalid",
	}

	ErrCodeExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeCodeExpired,
		Description: "reset code has expired, request a new one",
	}

	ErrTokenInvalid = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeTokenInvalid,
		Description: "reset token is invalid",
	}

	ErrTokenExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeTokenExpired,
		Description: "reset token has expired, request a new one",
	}

	ErrAlreadyUsed = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeAlreadyUsed,
		Description: "reset code was already used, request a new one",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many requests, try again later",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Returns nil
// for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			Details:     errResp.Details,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
