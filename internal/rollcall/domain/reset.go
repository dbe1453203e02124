package domain

import "time"

// DefaultResetTTL bounds both reset protocols.
const DefaultResetTTL = 30 * time.Minute

// ResetRequest is a row of the code protocol's request log.
type ResetRequest struct {
	ID        string
	UserID    string
	Role      Role
	Email     string
	CodeHash  string // keyed fingerprint of the 6-digit code
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the request can no longer be verified at now.
func (r ResetRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Verification is the successful outcome of a verify step. ResetID is only
// set by the code protocol.
type Verification struct {
	ResetID string
	UserID  string
	Role    Role
}
