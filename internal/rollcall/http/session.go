package http

import (
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type SessionHandler struct {
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
}

// HandleLogin signs a user in.
//
//	@Summary		Sign in
//	@Description	Checks the identifier (username first, then email) and password against the role's collection and persists the device session, replacing any earlier one. Every mismatch returns the same invalid_credentials error.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.LoginRequest	true	"Role and credentials"
//	@Success		201		{object}	rollcallsdk.SessionResponse	"The new session"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse	"Malformed body or validation failed"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse	"Invalid credentials"
//	@Failure		503		{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/session [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	// 1. Parse and validate
	var req rollcallsdk.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	// 2. Authenticate
	sess, err := h.AuthService.Login(r.Context(), parseRole(req.Role), req.Identifier, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(sess, h.AuthService.Sessions.MaxAge()))
}

// HandleGet returns the active session.
//
//	@Summary		Current session
//	@Description	Returns the device session. A session older than the maximum age is cleared and reported as no_session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	rollcallsdk.SessionResponse	"The active session"
//	@Failure		404	{object}	rollcallsdk.ErrorResponse	"No active session"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.AuthService.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(sess, h.AuthService.Sessions.MaxAge()))
}

// HandleLogout clears the session.
//
//	@Summary		Sign out
//	@Description	Clears the device session and routing hints. The onboarding flag is kept. Succeeds when no session exists.
//	@Tags			Session
//	@Success		204	"Signed out"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse	"Storage unavailable"
//	@Router			/v1/session [delete].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateProfile edits the signed-in user's profile.
//
//	@Summary		Update profile
//	@Description	Writes the changed fields to the directory record and refreshes the session snapshot. The session keeps its original issue time.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ProfileUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	rollcallsdk.SessionResponse			"The refreshed session"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse			"Malformed body or validation failed"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse			"No active session"
//	@Failure		503		{object}	rollcallsdk.ErrorResponse			"Storage unavailable"
//	@Router			/v1/session/profile [patch].
func (h *SessionHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ProfileUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.ProfileService.Update(r.Context(), domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Attributes:  req.Attributes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(sess, h.AuthService.Sessions.MaxAge()))
}
