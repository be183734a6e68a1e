package api

import (
	"context"
	"net/http"

	"offertory/internal/core"
	"offertory/internal/session"
)

var _ session.Authenticator = (*Client)(nil)

// Login exchanges a member phone number for a bearer token.
func (c *Client) Login(ctx context.Context, phone string) (core.Credentials, error) {
	var creds core.Credentials
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"phone_number": phone},
	}, &creds)
	return creds, err
}

func (c *Client) CurrentUser(ctx context.Context, token string) (core.User, error) {
	var user core.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/me", token: token}, &user)
	return user, err
}

// VerifyToken reports whether token is still accepted. A 401 is an answer,
// not a failure.
func (c *Client) VerifyToken(ctx context.Context, token string) (core.TokenStatus, error) {
	var status core.TokenStatus
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/verify-token", token: token}, &status)
	if isStatus(err, http.StatusUnauthorized) {
		return core.TokenStatus{}, nil
	}
	return status, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout", token: token}, nil)
}

// Health checks the backend is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health"}, nil)
}
