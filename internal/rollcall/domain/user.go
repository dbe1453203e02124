package domain

import (
	"maps"
	"time"
)

type User struct {
	ID               string
	Role             Role // Collection tag; teachers flagged as heads still carry RoleTeacher
	DisplayName      string
	Username         string
	Email            string
	PasswordHash     string // argon2 encoded
	DepartmentHead   bool
	Attributes       map[string]string // Role-specific, passed through untouched
	ResetTokenHash   *string           // Token protocol state (nullable)
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot returns the copy of u that is cached inside a Session.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Username:       u.Username,
		Email:          u.Email,
		DepartmentHead: u.DepartmentHead,
		Attributes:     maps.Clone(u.Attributes),
	}
}

// UserSnapshot is the secret-free view of a user record taken at login.
type UserSnapshot struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"display_name"`
	Username       string            `json:"username,omitempty"`
	Email          string            `json:"email,omitempty"`
	DepartmentHead bool              `json:"department_head,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	DisplayName *string
	Email       *string
	Attributes  map[string]string // Merged key by key; empty value deletes
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.Email == nil && len(p.Attributes) == 0
}

// Apply merges p into s and returns the result. s is not modified.
func (p ProfileUpdate) Apply(s UserSnapshot) UserSnapshot {
	out := s
	out.Attributes = maps.Clone(s.Attributes)
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	for k, v := range p.Attributes {
		if out.Attributes == nil {
			out.Attributes = make(map[string]string, len(p.Attributes))
		}
		if v == "" {
			delete(out.Attributes, k)
			continue
		}
		out.Attributes[k] = v
	}
	return out
}
