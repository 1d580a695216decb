package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/reelfeed/reelfeed/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for an access token, which the client uses
// for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/auth/login", credentials{Email: email, Password: password})
}

// Register creates an account and signs in with it.
func (c *Client) Register(ctx context.Context, email, password, username string) (string, error) {
	return c.authenticate(ctx, "/api/auth/register", credentials{Email: email, Password: password, Username: username})
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return models.User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

func (c *Client) authenticate(ctx context.Context, path string, creds credentials) (string, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}
