package rollcallsdk

import (
	"context"
	"net/http"
)

// Login signs in and returns the new session. Any earlier session on the
// device is replaced.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodPost, "/v1/session", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session returns the active session, or ErrNoSession.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodGet, "/v1/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the device session. It succeeds when no session exists.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/v1/session", nil, nil, http.StatusNoContent)
}

// UpdateProfile edits the signed-in user's profile and returns the refreshed
// session. The session lifetime is unchanged.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodPatch, "/v1/session/profile", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
