package domain

import "time"

// DefaultSessionMaxAge is how long a persisted session stays valid.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// Session is the persisted proof that a user is signed in on this device.
type Session struct {
	UserID   string
	Role     Role
	User     UserSnapshot
	IssuedAt time.Time
}

// Expired reports whether the session is older than maxAge at now.
func (s Session) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.IssuedAt) > maxAge
}
