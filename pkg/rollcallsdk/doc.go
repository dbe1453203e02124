/*
Package rollcallsdk is the Go client for the rollcall daemon's local HTTP API.

# Overview

The daemon owns the device session, the user directory and both password
reset protocols. A Client wraps the JSON API:

	client := rollcallsdk.NewClient("http://127.0.0.1:8080")

	// Which screen should the app open into?
	route, err := client.Route(ctx)

	// Sign in
	sess, err := client.Login(ctx, rollcallsdk.LoginRequest{
		Role:       "teacher",
		Identifier: "frizzle",
		Password:   "magic-bus",
	})

# Password reset

The code and token protocols are separate entry points and are never
interchangeable:

	issue, err := client.RequestResetCode(ctx, "a@b.com")
	_, err = client.VerifyResetCode(ctx, "a@b.com", issue.Code)
	err = client.CompleteResetCode(ctx, "a@b.com", issue.Code, "longenough")

	tok, err := client.RequestResetToken(ctx, "a@b.com", "student")
	err = client.CompleteResetToken(ctx, tok.Token, "student", "longenough")

# Errors

Failed calls return *APIError. Compare against the predefined errors with
errors.Is, which matches on the error code:

	if errors.Is(err, rollcallsdk.ErrCodeExpired) {
		// restart the flow from the first step
	}
*/
package rollcallsdk
