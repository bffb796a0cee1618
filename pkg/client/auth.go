package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// LoginRequest carries account credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// userEnvelope wraps the {"user": {...}} shape the auth endpoints return.
type userEnvelope struct {
	User *domain.User `json:"user"`
}

// Login authenticates with username + password. The server responds by
// setting HttpOnly access/refresh cookies on the client's jar.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*domain.User, error) {
	var env userEnvelope
	if err := c.post(ctx, "/auth/login/", req, &env); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	c.armAuthExpired()
	return env.User, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	var env userEnvelope
	if err := c.post(ctx, "/auth/register/", req, &env); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	c.armAuthExpired()
	return env.User, nil
}

// Me returns the authenticated account's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var env userEnvelope
	if err := c.get(ctx, "/auth/me", &env); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return env.User, nil
}

// Logout invalidates the server-side session and clears the token cookies.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout/", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// UpdateProfile replaces mutable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, u domain.User) (*domain.User, error) {
	var env userEnvelope
	if err := c.doRequest(ctx, http.MethodPut, "/auth/profile/", u, &env); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return env.User, nil
}

// UploadProfilePicture sets the account's avatar from an image stream.
func (c *Client) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("profile_picture", filename)
	if err != nil {
		return fmt.Errorf("client.UploadProfilePicture: create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("client.UploadProfilePicture: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("client.UploadProfilePicture: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/profile-picture/", &buf)
	if err != nil {
		return fmt.Errorf("client.UploadProfilePicture: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client.UploadProfilePicture: do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return fmt.Errorf("client.UploadProfilePicture: %w", decodeError(resp))
	}
	return nil
}

// DeleteAccount permanently removes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/auth/delete-account/", nil, nil); err != nil {
		return fmt.Errorf("client.DeleteAccount: %w", err)
	}
	return nil
}
