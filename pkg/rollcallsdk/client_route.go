package rollcallsdk

import (
	"context"
	"net/http"
)

// Route resolves the screen the app should open into.
func (c *Client) Route(ctx context.Context) (*RouteResponse, error) {
	var out RouteResponse
	if err := c.call(ctx, http.MethodGet, "/v1/route", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteOnboarding records that the onboarding flow has been seen.
func (c *Client) CompleteOnboarding(ctx context.Context) error {
	return c.call(ctx, http.MethodPut, "/v1/onboarding", nil, nil, http.StatusNoContent)
}

// ResetOnboarding makes the next start show onboarding again.
func (c *Client) ResetOnboarding(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/v1/onboarding", nil, nil, http.StatusNoContent)
}
