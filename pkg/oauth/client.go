package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	initiatePath = "/device-auth/initiate"
	pollPath     = "/device-auth/poll"
	refreshPath  = "/device-auth/refresh"
	verifyPath   = "/auth/verify"
)

// Client performs the device-authorization protocol operations against an
// authorization server: flow initiation, polling, token refresh, and remote
// token verification.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the protocol client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a protocol client for the authorization server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// errorResponse is the error body shape shared by all endpoints.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// InitiateDeviceAuth starts a new device-authorization session.
// The request carries the PKCE code challenge; the verifier stays local
// until polling.
func (c *Client) InitiateDeviceAuth(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	body, err := c.postJSON(ctx, c.baseURL+initiatePath, req)
	if err != nil {
		return nil, err
	}

	var resp InitiateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse initiate response: %w", err)
	}
	if resp.SessionID == "" || resp.AuthURL == "" {
		return nil, fmt.Errorf("initiate response missing session_id or auth_url")
	}

	c.logger.Debug("Device auth session initiated",
		"session_id", resp.SessionID,
		"poll_interval", resp.PollInterval,
		"expires_in", resp.ExpiresIn)

	return &resp, nil
}

// PollDeviceAuth polls an in-progress session. The code verifier is revealed
// to the server here so it can be checked against the challenge recorded at
// initiation.
//
// Protocol outcomes (slow_down, access_denied, expired_token, ...) are
// returned as *ProtocolError; transport and parse failures as plain errors.
func (c *Client) PollDeviceAuth(ctx context.Context, sessionID, codeVerifier string) (*PollResponse, error) {
	query := url.Values{
		"session_id":    {sessionID},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pollPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poll response: %w", err)
	}

	if protoErr := parseErrorBody(body); protoErr != nil {
		return nil, protoErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll request failed with status %d", resp.StatusCode)
	}

	var pollResp PollResponse
	if err := json.Unmarshal(body, &pollResp); err != nil {
		return nil, fmt.Errorf("failed to parse poll response: %w", err)
	}
	if pollResp.Status == "" {
		return nil, fmt.Errorf("poll response missing status")
	}

	return &pollResp, nil
}

// RefreshToken exchanges a refresh token for a new access token.
// A grant-invalid rejection is returned as a *ProtocolError for which
// IsGrantInvalid reports true; transport failures as plain errors.
func (c *Client) RefreshToken(ctx context.Context, refreshToken, targetID string) (*RefreshResponse, error) {
	body, err := c.postJSON(ctx, c.baseURL+refreshPath, &RefreshRequest{
		RefreshToken: refreshToken,
		TargetID:     targetID,
	})
	if err != nil {
		return nil, err
	}

	var resp RefreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access_token")
	}

	return &resp, nil
}

// VerifyToken checks an access token against the server.
// Returns nil if the token is accepted. Both rejection and transport
// failure are reported as errors; callers fall back to refresh either way.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+verifyPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token rejected with status %d: %w", resp.StatusCode, ErrAuthRequired)
	}

	return nil
}

// postJSON posts a JSON body and returns the raw response body.
// Error-shaped bodies are converted to *ProtocolError.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if protoErr := parseErrorBody(body); protoErr != nil {
		return nil, protoErr
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Request failed",
			"endpoint", endpoint,
			"status", resp.StatusCode)
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return body, nil
}

// parseErrorBody returns a ProtocolError if the body carries an error code.
func parseErrorBody(body []byte) *ProtocolError {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return nil
	}
	return &ProtocolError{
		Code:        errResp.Error,
		Description: errResp.ErrorDescription,
	}
}
