package api

import (
	"context"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp)
	return resp, err
}

// Signup registers an account. The registry may answer with only a
// message, in which case AccessToken is empty.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", req, &resp)
	return resp, err
}
