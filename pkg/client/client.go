package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"
)

// Client is the MoveIt API client. Authentication is cookie-based: the
// server sets HttpOnly access/refresh tokens on login and the jar carries
// them on every subsequent call.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu            sync.Mutex
	onAuthExpired func()
	expiredFired  bool
}

// New creates a new API client rooted at baseURL (e.g. "https://moveit.app/api").
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil) //nolint:errcheck // only fails on a nil PublicSuffixList option
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// OnAuthExpired registers the handler invoked when a 401 survives a token
// refresh — the application-wide logout broadcast. It fires at most once
// per expiry; a successful login re-arms it.
func (c *Client) OnAuthExpired(fn func()) {
	c.mu.Lock()
	c.onAuthExpired = fn
	c.mu.Unlock()
}

func (c *Client) fireAuthExpired() {
	c.mu.Lock()
	fn := c.onAuthExpired
	fired := c.expiredFired
	c.expiredFired = true
	c.mu.Unlock()
	if fn != nil && !fired {
		fn()
	}
}

func (c *Client) armAuthExpired() {
	c.mu.Lock()
	c.expiredFired = false
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

// doRequest performs a JSON round-trip. On a 401 it attempts one token
// refresh and replays the request; a second 401 (or a failed refresh)
// notifies the expiry handler and surfaces the original error.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = data
	}

	err := c.roundTrip(ctx, method, path, payload, "application/json", out)
	if !IsStatus(err, http.StatusUnauthorized) || isAuthPath(path) {
		return err
	}

	// Refresh once, then replay. The refresh endpoint reads the refresh
	// cookie; no body is needed.
	if refreshErr := c.roundTrip(ctx, http.MethodPost, "/auth/refresh/", nil, "application/json", nil); refreshErr != nil {
		c.fireAuthExpired()
		return fmt.Errorf("%w: %s", ErrSessionExpired, err.Error())
	}
	if err := c.roundTrip(ctx, method, path, payload, "application/json", out); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			c.fireAuthExpired()
		}
		return err
	}
	return nil
}

// isAuthPath reports whether a 401 from the path must not trigger a refresh
// cycle: bad login credentials and a dead refresh token are terminal.
func isAuthPath(path string) bool {
	return path == "/auth/login/" || path == "/auth/refresh/"
}

// roundTrip is the bare HTTP exchange with no retry policy.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError extracts the API's error message from a failed response.
// Django REST emits either {"detail": "..."} or field-keyed error maps.
func decodeError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		if apiErr.Detail != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Detail}
		}
		if apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
}
