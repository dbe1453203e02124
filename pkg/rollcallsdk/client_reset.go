package rollcallsdk

import (
	"context"
	"net/http"
)

// ============================================================================
// Code protocol
// ============================================================================

// RequestResetCode issues a 6-digit code for the first account using email.
func (c *Client) RequestResetCode(ctx context.Context, email string) (*ResetCodeResponse, error) {
	var out ResetCodeResponse
	err := c.call(ctx, http.MethodPost, "/v1/password-reset/code",
		ResetCodeRequest{Email: email}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResetCode checks a code without consuming it.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (*VerificationResponse, error) {
	var out VerificationResponse
	err := c.call(ctx, http.MethodPost, "/v1/password-reset/code/verify",
		ResetCodeVerifyRequest{Email: email, Code: code}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteResetCode sets a new password and consumes the code.
func (c *Client) CompleteResetCode(ctx context.Context, email, code, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/v1/password-reset/code/complete",
		ResetCodeCompleteRequest{Email: email, Code: code, NewPassword: newPassword},
		nil, http.StatusNoContent)
}

// ============================================================================
// Token protocol
// ============================================================================

// RequestResetToken issues a token for the account using email in role.
func (c *Client) RequestResetToken(ctx context.Context, email, role string) (*ResetTokenResponse, error) {
	var out ResetTokenResponse
	err := c.call(ctx, http.MethodPost, "/v1/password-reset/token",
		ResetTokenRequest{Email: email, Role: role}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResetToken checks a token without consuming it.
func (c *Client) VerifyResetToken(ctx context.Context, token, role string) (*VerificationResponse, error) {
	var out VerificationResponse
	err := c.call(ctx, http.MethodPost, "/v1/password-reset/token/verify",
		ResetTokenVerifyRequest{Token: token, Role: role}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteResetToken sets a new password and clears the token.
func (c *Client) CompleteResetToken(ctx context.Context, token, role, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/v1/password-reset/token/complete",
		ResetTokenCompleteRequest{Token: token, Role: role, NewPassword: newPassword},
		nil, http.StatusNoContent)
}
