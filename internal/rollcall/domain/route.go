package domain

// ViewKind names the screen the application opens into.
type ViewKind string

const (
	ViewOnboarding    ViewKind = "onboarding"
	ViewRoleDashboard ViewKind = "role_dashboard"
	ViewRoleSelection ViewKind = "role_selection"
)

// InitialView is the route selected at startup. Role is only set for
// ViewRoleDashboard.
type InitialView struct {
	Kind ViewKind
	Role Role
}
