package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/skylens/go-api-client/internal/apierrors"
	"github.com/skylens/go-api-client/users"
)

// API endpoint paths.
const (
	loginPath       = "/auth/login"
	signupPath      = "/auth/signup"
	logoutPath      = "/auth/logout"
	refreshPath     = "/auth/refresh-token"
	currentUserPath = "/users/me"
)

// Credentials are the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupDetails are the account creation payload.
type SignupDetails struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Language  string `json:"language,omitempty"`
}

// AuthResponse is what the login and signup endpoints return.
type AuthResponse struct {
	Token string      `json:"token"`
	Data  *users.User `json:"data"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

// Login authenticates with email and password. A 401 here means the
// credentials were rejected; it is never funneled through a refresh.
func (c *Client) Login(ctx context.Context, credentials Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, loginPath, credentials, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account and signs it in.
func (c *Client) Signup(ctx context.Context, details SignupDetails) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, signupPath, details, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the server to invalidate the refresh credential. Local state
// is not touched here; that is the auth service's job.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, logoutPath, nil, nil, false)
}

// RefreshToken exchanges the ambient refresh cookie for a new access token.
// A 401 means the refresh credential itself is no longer honored, which is an
// expired session rather than bad credentials.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodGet, refreshPath, nil, &resp, true); err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return "", apierrors.SessionExpired(c.language)
		}
		return "", err
	}
	return resp.Token, nil
}

// Refresh satisfies the token manager's Refresher contract.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.RefreshToken(ctx)
}

// CurrentUser fetches the authenticated account's profile.
func (c *Client) CurrentUser(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := c.do(ctx, http.MethodGet, currentUserPath, nil, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}
