package backend

import (
	"context"
	"net/http"

	"github.com/smartroots/agribot/internal/core"
)

// TokenGrant is the backend's answer to a successful login or signup.
type TokenGrant struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        core.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token grant. The token is not stored
// on the client; session ownership belongs to the auth store.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	body := loginRequest{Email: email, Password: password}

	var grant TokenGrant
	if err := c.do(ctx, "auth_login", http.MethodPost, authPrefix+"/login", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Signup registers a new account and returns a token grant for it.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*TokenGrant, error) {
	body := signupRequest{Name: name, Email: email, Password: password}

	var grant TokenGrant
	if err := c.do(ctx, "auth_signup", http.MethodPost, authPrefix+"/signup", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Me returns the user the current bearer token belongs to. Used by the
// silent session restore at startup.
func (c *Client) Me(ctx context.Context) (*core.User, error) {
	var user core.User
	if err := c.do(ctx, "auth_me", http.MethodGet, authPrefix+"/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
