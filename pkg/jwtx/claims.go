package jwtx

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session claims sealed into the device credential store.
// There is no exp claim: session age is judged by the holder against its own
// maximum age using IssuedAtMs.
type Claims struct {
	jwt.RegisteredClaims

	// Role the session was established under.
	Role string `json:"role"`

	// IssuedAtMs is the issue time in unix milliseconds. The registered iat
	// claim only has second precision.
	IssuedAtMs int64 `json:"iat_ms"`

	// Profile is the opaque user snapshot cached alongside the session.
	Profile json.RawMessage `json:"profile,omitempty"`
}

// NewSessionClaims builds claims for subject signed in as role at now.
func NewSessionClaims(subject, role, issuer string, profile json.RawMessage, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Role:       role,
		IssuedAtMs: now.UnixMilli(),
		Profile:    profile,
	}
}

// IssuedAtTime returns IssuedAtMs as a UTC time.
func (c *Claims) IssuedAtTime() time.Time {
	return time.UnixMilli(c.IssuedAtMs).UTC()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateRequired ensures the fields a session cannot work without are present.
func (c *Claims) ValidateRequired() error {
	if c.Subject == "" || c.Role == "" || c.IssuedAtMs <= 0 {
		return ErrInvalidClaim
	}
	return nil
}
