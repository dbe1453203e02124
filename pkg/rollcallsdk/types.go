package rollcallsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the stable error code (e.g., "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`

	// Details maps field names to reasons for validation errors
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Session Types
// ============================================================================

// LoginRequest is the body of POST /v1/session.
type LoginRequest struct {
	// Role is one of admin, teacher, student, dept_head
	Role string `json:"role" validate:"required,role"`

	// Identifier is a username or an email address
	Identifier string `json:"identifier" validate:"notblank,max=254"`

	Password string `json:"password" validate:"required,max=256"`
}

// UserProfile is the secret-free copy of the user record cached in the
// session.
type UserProfile struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"display_name"`
	Username       string            `json:"username,omitempty"`
	Email          string            `json:"email,omitempty"`
	DepartmentHead bool              `json:"department_head,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// SessionResponse describes the active device session.
type SessionResponse struct {
	UserID string      `json:"user_id"`
	Role   string      `json:"role"`
	User   UserProfile `json:"user"`

	// IssuedAt is when the user signed in; edits never move it
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is IssuedAt plus the maximum session age
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileUpdateRequest is the body of PATCH /v1/session/profile. Omitted
// fields are left unchanged; an empty attribute value deletes the key.
type ProfileUpdateRequest struct {
	DisplayName *string           `json:"display_name,omitempty" validate:"omitempty,notblank,max=100"`
	Email       *string           `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Attributes  map[string]string `json:"attributes,omitempty" validate:"omitempty,max=32,dive,keys,notblank,max=64,endkeys,max=1024"`
}

// ============================================================================
// Routing Types
// ============================================================================

// View kinds returned by GET /v1/route.
const (
	ViewOnboarding    = "onboarding"
	ViewRoleDashboard = "role_dashboard"
	ViewRoleSelection = "role_selection"
)

// RouteResponse tells the app which screen to open.
type RouteResponse struct {
	// View is onboarding, role_dashboard or role_selection
	View string `json:"view"`

	// Role is set for role_dashboard only
	Role string `json:"role,omitempty"`

	// LastRole is the role of the most recent sign-in, if still remembered
	LastRole string `json:"last_role,omitempty"`

	Session *SessionResponse `json:"session,omitempty"`
}

// ============================================================================
// Password Reset Types
// ============================================================================

// ResetCodeRequest is the body of POST /v1/password-reset/code.
type ResetCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ResetCodeResponse carries the issued 6-digit code.
type ResetCodeResponse struct {
	RequestID string    `json:"request_id"`
	Code      string    `json:"code"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetCodeVerifyRequest is the body of POST /v1/password-reset/code/verify.
type ResetCodeVerifyRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required,max=16"`
}

// ResetCodeCompleteRequest is the body of POST /v1/password-reset/code/complete.
type ResetCodeCompleteRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Code        string `json:"code" validate:"required,max=16"`
	NewPassword string `json:"new_password"`
}

// ResetTokenRequest is the body of POST /v1/password-reset/token.
type ResetTokenRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role" validate:"required,role"`
}

// ResetTokenResponse carries the issued opaque token.
type ResetTokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetTokenVerifyRequest is the body of POST /v1/password-reset/token/verify.
type ResetTokenVerifyRequest struct {
	Token string `json:"token" validate:"required,max=512"`
	Role  string `json:"role" validate:"required,role"`
}

// ResetTokenCompleteRequest is the body of POST /v1/password-reset/token/complete.
type ResetTokenCompleteRequest struct {
	Token       string `json:"token" validate:"required,max=512"`
	Role        string `json:"role" validate:"required,role"`
	NewPassword string `json:"new_password"`
}

// VerificationResponse is returned by both verify endpoints. ResetID is only
// set by the code protocol.
type VerificationResponse struct {
	ResetID string `json:"reset_id,omitempty"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each storage backend the daemon depends on.
type HealthChecks struct {
	// Database is the directory database
	Database string `json:"database"`

	// Credentials is the device credential store
	Credentials string `json:"credentials"`
}
