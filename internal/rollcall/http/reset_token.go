package http

import (
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type TokenResetHandler struct {
	TokenResetService *service.TokenResetService
}

// HandleRequest issues a reset token.
//
//	@Summary		Request a reset token
//	@Description	Looks the email up in the given role's collection only and stores a fresh token on the record, valid for 30 minutes.
//	@Tags			Password reset (token)
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ResetTokenRequest	true	"Email and role"
//	@Success		201		{object}	rollcallsdk.ResetTokenResponse	"Issued token"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse		"Malformed body or validation failed"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse		"No account in the role uses this email"
//	@Failure		429		{object}	rollcallsdk.ErrorResponse		"Rate limit exceeded"
//	@Router			/v1/password-reset/token [post].
func (h *TokenResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetTokenRequest
	if !decode(w, r, &req) {
		return
	}

	issue, err := h.TokenResetService.RequestByEmailAndRole(r.Context(), req.Email, parseRole(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, rollcallsdk.ResetTokenResponse{
		Token:     issue.Token,
		UserID:    issue.UserID,
		Role:      issue.Role.String(),
		ExpiresAt: issue.ExpiresAt.UTC(),
	})
}

// HandleVerify checks a reset token.
//
//	@Summary		Verify a reset token
//	@Description	Checks the token within the role's collection. An expired token is cleared from the record.
//	@Tags			Password reset (token)
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ResetTokenVerifyRequest	true	"Token and role"
//	@Success		200		{object}	rollcallsdk.VerificationResponse	"Verified"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse			"Invalid token"
//	@Failure		410		{object}	rollcallsdk.ErrorResponse			"Token expired"
//	@Router			/v1/password-reset/token/verify [post].
func (h *TokenResetHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetTokenVerifyRequest
	if !decode(w, r, &req) {
		return
	}

	v, err := h.TokenResetService.VerifyToken(r.Context(), req.Token, parseRole(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

// HandleComplete sets a new password with a reset token.
//
//	@Summary		Complete a token reset
//	@Description	Re-verifies the token, sets the new password (at least 6 characters) and clears the token from the record.
//	@Tags			Password reset (token)
//	@Accept			json
//	@Param			request	body	rollcallsdk.ResetTokenCompleteRequest	true	"Token, role and new password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse	"Invalid token or password rejected"
//	@Failure		410		{object}	rollcallsdk.ErrorResponse	"Token expired"
//	@Router			/v1/password-reset/token/complete [post].
func (h *TokenResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetTokenCompleteRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.TokenResetService.CompleteWithToken(r.Context(), req.Token, req.NewPassword, parseRole(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
