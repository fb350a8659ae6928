package api

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		in:     loginRequest{Email: email, Password: password},
		out:    &out,
	})
	return out.Token, err
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, reg shop.Registration) (string, error) {
	var out tokenResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", in: reg, out: &out})
	return out.Token, err
}

// Me fetches the profile for token. The token is passed explicitly so a fresh
// credential can be checked before it becomes the session's.
func (c *Client) Me(ctx context.Context, token string) (shop.User, error) {
	var u shop.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", out: &u, token: token})
	return u, err
}

func (c *Client) UpdateMe(ctx context.Context, token string, upd shop.ProfileUpdate) (shop.User, error) {
	var u shop.User
	err := c.do(ctx, request{method: http.MethodPut, path: "/auth/me", in: upd, out: &u, token: token})
	return u, err
}
