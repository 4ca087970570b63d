package oauth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultExpiryMargin is the default margin when checking token expiry.
// This accounts for clock skew and network latency.
const DefaultExpiryMargin = 30 * time.Second

// TokenRefreshThreshold is the duration before token expiry when tokens
// should be proactively refreshed. Tokens expiring within this threshold
// are refreshed automatically if a refresh token is available.
const TokenRefreshThreshold = 5 * time.Minute

// Token represents an access token with associated metadata.
type Token struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the token lifetime in seconds (from the token response).
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the calculated expiration timestamp.
	// A zero value means the token never expires.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Scope is the granted scope(s), space-separated.
	Scope string `json:"scope,omitempty"`
}

// IsExpired checks if the token has expired or will expire within the
// default margin.
func (t *Token) IsExpired() bool {
	return t.IsExpiredWithMargin(DefaultExpiryMargin)
}

// IsExpiredWithMargin checks if the token has expired or will expire within
// the given margin.
func (t *Token) IsExpiredWithMargin(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false // Tokens without expiration don't expire
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// SetExpiresAtFromExpiresIn calculates and sets ExpiresAt from ExpiresIn.
func (t *Token) SetExpiresAtFromExpiresIn() {
	if t.ExpiresIn > 0 && t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// Scopes returns the scope as a slice of individual scopes.
func (t *Token) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}

// ToOAuth2Token converts the Token to an oauth2.Token for compatibility
// with golang.org/x/oauth2 transports.
func (t *Token) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// InitiateRequest is the body of POST /device-auth/initiate.
type InitiateRequest struct {
	// TargetID identifies the client application to the authorization server.
	TargetID string `json:"target_id"`

	// CodeChallenge is the S256 PKCE challenge.
	CodeChallenge string `json:"code_challenge"`

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string `json:"code_challenge_method"`

	// Scope is the requested scope(s), space-separated.
	Scope string `json:"scope,omitempty"`
}

// InitiateResponse is the server's answer to an initiation request.
type InitiateResponse struct {
	// SessionID is the opaque identifier for this authorization attempt.
	SessionID string `json:"session_id"`

	// AuthURL is the URL the user must open to approve the request.
	AuthURL string `json:"auth_url"`

	// PollInterval is the server-suggested poll interval in seconds.
	// Zero means the client default applies.
	PollInterval int `json:"poll_interval,omitempty"`

	// ExpiresIn is the session lifetime in seconds. Zero means the
	// client default applies.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// Poll status values returned by GET /device-auth/poll.
const (
	// StatusPending means the user has not yet approved the request.
	StatusPending = "pending"

	// StatusAuthorized means the user approved and tokens are attached.
	StatusAuthorized = "authorized"
)

// PollResponse is the server's answer to a poll request.
// Status is StatusPending or StatusAuthorized; on StatusAuthorized the
// token fields are populated.
type PollResponse struct {
	Status string `json:"status"`

	// PollInterval optionally adjusts the poll interval (seconds) while
	// the status is pending.
	PollInterval int `json:"poll_interval,omitempty"`

	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token returns the token carried by an authorized poll response,
// with ExpiresAt computed from ExpiresIn.
func (r *PollResponse) Token() *Token {
	token := &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		Scope:        r.Scope,
	}
	token.SetExpiresAtFromExpiresIn()
	return token
}

// RefreshRequest is the body of POST /device-auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	TargetID     string `json:"target_id"`
}

// RefreshResponse is the server's answer to a refresh request.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Token returns the refreshed token with ExpiresAt computed from ExpiresIn.
func (r *RefreshResponse) Token() *Token {
	token := &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
	token.SetExpiresAtFromExpiresIn()
	return token
}
