package deviceauth

import (
	"time"

	"github.com/franknobox/agentland-go/pkg/oauth"
)

// Session is one server-assigned authorization attempt. It is created when
// a flow starts and discarded at the terminal state; it is never persisted.
//
// The code verifier stays inside the session until poll time. Only the
// derived challenge is sent with the initiation request, so an observer of
// that request cannot forge a poll.
type Session struct {
	// Verifier is the PKCE code verifier (43 base64url characters).
	Verifier string

	// Challenge is the S256 code challenge derived from Verifier.
	Challenge string

	// ID is the opaque session identifier issued by the server.
	ID string

	// AuthURL is the URL the user must open to approve the request.
	AuthURL string

	// PollInterval is the current interval between poll requests.
	PollInterval time.Duration

	// ExpiresAt is the absolute session deadline.
	ExpiresAt time.Time
}

// newSession builds a session from a PKCE pair and the server's initiation
// response, applying the client defaults where the server omitted values.
func newSession(pkce *oauth.PKCEChallenge, resp *oauth.InitiateResponse, defaultInterval, defaultTTL time.Duration) *Session {
	interval := defaultInterval
	if resp.PollInterval > 0 {
		interval = time.Duration(resp.PollInterval) * time.Second
	}

	ttl := defaultTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}

	return &Session{
		Verifier:     pkce.CodeVerifier,
		Challenge:    pkce.CodeChallenge,
		ID:           resp.SessionID,
		AuthURL:      resp.AuthURL,
		PollInterval: interval,
		ExpiresAt:    time.Now().Add(ttl),
	}
}
