package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
)

// AuthAPI is the subset of the API used by the session service.
type AuthAPI interface {
	SetToken(token string)
	ClearToken()
	Token() string
	OnUnauthorized(fn func(token string))
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
}

var errEmptyToken = errors.New("empty token in auth response")

// Login exchanges username and password for a credential and identity.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      models.LoginRequest{Username: username, Password: password},
		out:       &resp,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, malformedResponse(http.StatusOK, errEmptyToken)
	}
	return &resp, nil
}

// Register creates an account and returns its credential and identity.
func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      models.RegisterRequest{Username: username, Email: email, Password: password},
		out:       &resp,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, malformedResponse(http.StatusOK, errEmptyToken)
	}
	return &resp, nil
}

// Logout asks the server to invalidate the current credential. It does not
// touch the local credential; that is the session's job.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/auth/logout"})
}

// Me returns the identity behind the current credential.
func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/auth/me", out: &u}); err != nil {
		return nil, err
	}
	if u.ID == 0 && u.Username == "" {
		return nil, malformedResponse(http.StatusOK, errors.New("empty user"))
	}
	return &u, nil
}
