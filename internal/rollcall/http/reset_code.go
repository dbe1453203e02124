package http

import (
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type CodeResetHandler struct {
	CodeResetService *service.CodeResetService
}

// HandleRequest issues a reset code.
//
//	@Summary		Request a reset code
//	@Description	Finds the first account using the email (admins, then teachers, then students) and issues a 6-digit code valid for 30 minutes. The code is returned and, when mail is configured, sent to the address.
//	@Tags			Password reset (code)
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ResetCodeRequest	true	"Email address"
//	@Success		201		{object}	rollcallsdk.ResetCodeResponse	"Issued code"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse		"Malformed body or validation failed"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse		"No account uses this email"
//	@Failure		429		{object}	rollcallsdk.ErrorResponse		"Rate limit exceeded"
//	@Router			/v1/password-reset/code [post].
func (h *CodeResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetCodeRequest
	if !decode(w, r, &req) {
		return
	}

	issue, err := h.CodeResetService.RequestByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, rollcallsdk.ResetCodeResponse{
		RequestID: issue.RequestID,
		Code:      issue.Code,
		Role:      issue.Role.String(),
		ExpiresAt: issue.ExpiresAt.UTC(),
	})
}

// HandleVerify checks a reset code.
//
//	@Summary		Verify a reset code
//	@Description	Checks the code against the newest open request for the email without consuming it. Used codes are reported as code_invalid.
//	@Tags			Password reset (code)
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ResetCodeVerifyRequest	true	"Email and code"
//	@Success		200		{object}	rollcallsdk.VerificationResponse	"Verified"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse			"Invalid code"
//	@Failure		410		{object}	rollcallsdk.ErrorResponse			"Code expired"
//	@Router			/v1/password-reset/code/verify [post].
func (h *CodeResetHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetCodeVerifyRequest
	if !decode(w, r, &req) {
		return
	}

	v, err := h.CodeResetService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

// HandleComplete sets a new password with a reset code.
//
//	@Summary		Complete a code reset
//	@Description	Re-verifies the code, sets the new password (at least 6 characters) and marks the request used. A second attempt with the same code returns already_used.
//	@Tags			Password reset (code)
//	@Accept			json
//	@Param			request	body	rollcallsdk.ResetCodeCompleteRequest	true	"Email, code and new password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse	"Invalid code or password rejected"
//	@Failure		410		{object}	rollcallsdk.ErrorResponse	"Code expired or already used"
//	@Router			/v1/password-reset/code/complete [post].
func (h *CodeResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req rollcallsdk.ResetCodeCompleteRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.CodeResetService.CompleteWithCode(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
