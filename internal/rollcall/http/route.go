package http

import (
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type RouteHandler struct {
	StartupService *service.StartupService
}

// HandleGet resolves the initial view.
//
//	@Summary		Initial route
//	@Description	Combines the onboarding flag and the device session into the screen the app opens into: onboarding, role_dashboard (with role) or role_selection.
//	@Tags			Route
//	@Produce		json
//	@Success		200	{object}	rollcallsdk.RouteResponse	"The initial view"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/route [get].
func (h *RouteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	start, err := h.StartupService.Resolve(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := rollcallsdk.RouteResponse{
		View:     string(start.View.Kind),
		Role:     start.View.Role.String(),
		LastRole: start.LastRole.String(),
	}
	if start.Session != nil {
		resp.Session = toSessionResponse(*start.Session, h.StartupService.Sessions.MaxAge())
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCompleteOnboarding sets the onboarding flag.
//
//	@Summary		Complete onboarding
//	@Tags			Route
//	@Success		204	"Flag set"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/onboarding [put].
func (h *RouteHandler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.StartupService.CompleteOnboarding(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetOnboarding clears the onboarding flag.
//
//	@Summary		Reset onboarding
//	@Tags			Route
//	@Success		204	"Flag cleared"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/onboarding [delete].
func (h *RouteHandler) HandleResetOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.StartupService.ResetOnboarding(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
