package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// CreateBeamResponse is the server's reply to /beams/create/: a fresh beam
// id and the key that authenticates WebSocket joins.
type CreateBeamResponse struct {
	BeamID   string `json:"beam_id"`
	BeamKey  string `json:"beam_key"`
	BeamName string `json:"beam_name,omitempty"`
}

// CreateBeam provisions a new pairing session.
func (c *Client) CreateBeam(ctx context.Context) (*CreateBeamResponse, error) {
	var beam CreateBeamResponse
	if err := c.post(ctx, "/beams/create/", nil, &beam); err != nil {
		return nil, fmt.Errorf("client.CreateBeam: %w", err)
	}
	return &beam, nil
}

// BeamNotes fetches the authoritative persisted note list for a beam.
func (c *Client) BeamNotes(ctx context.Context, beamID string) ([]domain.Note, error) {
	params := url.Values{}
	params.Set("beam_id", beamID)

	var notes []domain.Note
	if err := c.get(ctx, "/notes/beam_notes/?"+params.Encode(), &notes); err != nil {
		return nil, fmt.Errorf("client.BeamNotes: %w", err)
	}
	return notes, nil
}

// ShareBeamRequest grants another account access to a saved beam.
type ShareBeamRequest struct {
	BeamID     string `json:"beam_id"`
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

// ShareBeam shares a beam with another user.
func (c *Client) ShareBeam(ctx context.Context, req ShareBeamRequest) (*domain.BeamShare, error) {
	var share domain.BeamShare
	if err := c.post(ctx, "/beams/share/", req, &share); err != nil {
		return nil, fmt.Errorf("client.ShareBeam: %w", err)
	}
	return &share, nil
}

// SharedWithMe lists beams other users have shared with this account.
func (c *Client) SharedWithMe(ctx context.Context) ([]domain.BeamShare, error) {
	var shares []domain.BeamShare
	if err := c.get(ctx, "/beams/shared-with-me/", &shares); err != nil {
		return nil, fmt.Errorf("client.SharedWithMe: %w", err)
	}
	return shares, nil
}

// MyShares lists the grants this account has given out.
func (c *Client) MyShares(ctx context.Context) ([]domain.BeamShare, error) {
	var shares []domain.BeamShare
	if err := c.get(ctx, "/beams/my-shares/", &shares); err != nil {
		return nil, fmt.Errorf("client.MyShares: %w", err)
	}
	return shares, nil
}

// Unshare revokes a share grant by its id.
func (c *Client) Unshare(ctx context.Context, shareID int) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/beams/unshare/"+strconv.Itoa(shareID)+"/", nil, nil); err != nil {
		return fmt.Errorf("client.Unshare: %w", err)
	}
	return nil
}

// UpdateShare changes the permission on an existing share grant.
func (c *Client) UpdateShare(ctx context.Context, shareID int, permission string) error {
	body := map[string]string{"permission": permission}
	if err := c.doRequest(ctx, http.MethodPut, "/beams/update-share/"+strconv.Itoa(shareID)+"/", body, nil); err != nil {
		return fmt.Errorf("client.UpdateShare: %w", err)
	}
	return nil
}

// UploadResult is the response from the file relay: a direct link suitable
// for sharing into the beam.
type UploadResult struct {
	URL string
}

// Upload pushes a file through the server's upload relay and returns the
// direct link. The relay answers with a bare URL in the body.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("client.Upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.Upload: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &buf)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("client.Upload: %w", decodeError(resp))
	}

	link, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("client.Upload: read response: %w", err)
	}
	return &UploadResult{URL: string(bytes.TrimSpace(link))}, nil
}
