package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aura-hr/portal/internal/models"
)

// SearchUsers handles GET /users?name=.
func (s *Session) SearchUsers(ctx context.Context, name string) ([]models.User, error) {
	q := url.Values{}
	q.Set("name", name)
	var out models.UserList
	if err := s.client.do(ctx, "search users", http.MethodGet, "/users", q, s.token, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// LoginResult is the response of POST /auth/login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a bearer token. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
