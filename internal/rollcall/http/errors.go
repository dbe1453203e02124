package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/validate"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// apiError maps a service error onto its wire form.
func apiError(err error) *rollcallsdk.APIError {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return rollcallsdk.ErrValidation.WithDetails(verrs.Details())
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return rollcallsdk.ErrValidation.WithDetails(map[string]string{ve.Field: ve.Reason})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return rollcallsdk.ErrInvalidCredentials
	case errors.Is(err, domain.ErrNoSession):
		return rollcallsdk.ErrNoSession
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return rollcallsdk.ErrStorageUnavailable
	case errors.Is(err, domain.ErrEmailNotFound):
		return rollcallsdk.ErrEmailNotFound
	case errors.Is(err, domain.ErrCodeInvalid):
		return rollcallsdk.ErrCodeInvalid
	case errors.Is(err, domain.ErrCodeExpired):
		return rollcallsdk.ErrCodeExpired
	case errors.Is(err, domain.ErrTokenInvalid):
		return rollcallsdk.ErrTokenInvalid
	case errors.Is(err, domain.ErrTokenExpired):
		return rollcallsdk.ErrTokenExpired
	case errors.Is(err, domain.ErrAlreadyUsed):
		return rollcallsdk.ErrAlreadyUsed
	default:
		return rollcallsdk.ErrServerError
	}
}

// writeError logs unexpected failures and writes the mapped error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("code", apiErr.Code),
			slog.Any("error", err),
		)
	}
	apiErr.WriteError(w)
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		slogx.FromContext(r.Context()).Debug("rejected request body", slog.Any("error", err))
		rollcallsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}
