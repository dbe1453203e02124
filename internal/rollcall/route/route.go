// Package route decides which screen the application opens into.
package route

import "github.com/aussiebroadwan/rollcall/internal/rollcall/domain"

// Resolve maps the onboarding flag and the current session to the initial
// view. It performs no I/O.
func Resolve(onboardingComplete bool, s *domain.Session) domain.InitialView {
	switch {
	case !onboardingComplete:
		return domain.InitialView{Kind: domain.ViewOnboarding}
	case s == nil:
		return domain.InitialView{Kind: domain.ViewRoleSelection}
	case !s.Role.Known():
		return domain.InitialView{Kind: domain.ViewRoleSelection}
	default:
		return domain.InitialView{Kind: domain.ViewRoleDashboard, Role: s.Role}
	}
}
