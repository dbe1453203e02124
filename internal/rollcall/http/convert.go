package http

import (
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

func toSessionResponse(s domain.Session, maxAge time.Duration) *rollcallsdk.SessionResponse {
	return &rollcallsdk.SessionResponse{
		UserID: s.UserID,
		Role:   s.Role.String(),
		User: rollcallsdk.UserProfile{
			ID:             s.User.ID,
			DisplayName:    s.User.DisplayName,
			Username:       s.User.Username,
			Email:          s.User.Email,
			DepartmentHead: s.User.DepartmentHead,
			Attributes:     s.User.Attributes,
		},
		IssuedAt:  s.IssuedAt.UTC(),
		ExpiresAt: s.IssuedAt.Add(maxAge).UTC(),
	}
}

func toVerificationResponse(v domain.Verification) rollcallsdk.VerificationResponse {
	return rollcallsdk.VerificationResponse{
		ResetID: v.ResetID,
		UserID:  v.UserID,
		Role:    v.Role.String(),
	}
}

// parseRole accepts the aliases domain.ParseRole knows. Validation has
// already rejected unknown roles.
func parseRole(s string) domain.Role {
	role, _ := domain.ParseRole(s)
	return role
}
