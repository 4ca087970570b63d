package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToken_IsExpiredWithMargin(t *testing.T) {
	tests := []struct {
		name    string
		expiry  time.Time
		margin  time.Duration
		expired bool
	}{
		{
			name:    "no expiry never expires",
			expiry:  time.Time{},
			margin:  time.Hour,
			expired: false,
		},
		{
			name:    "well in the future",
			expiry:  time.Now().Add(time.Hour),
			margin:  30 * time.Second,
			expired: false,
		},
		{
			name:    "already past",
			expiry:  time.Now().Add(-time.Minute),
			margin:  0,
			expired: true,
		},
		{
			name:    "inside margin",
			expiry:  time.Now().Add(10 * time.Second),
			margin:  30 * time.Second,
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &Token{AccessToken: "x", ExpiresAt: tt.expiry}
			assert.Equal(t, tt.expired, token.IsExpiredWithMargin(tt.margin))
		})
	}
}

func TestToken_SetExpiresAtFromExpiresIn(t *testing.T) {
	token := &Token{AccessToken: "x", ExpiresIn: 3600}
	token.SetExpiresAtFromExpiresIn()

	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	// A second call must not move the expiry.
	firstExpiry := token.ExpiresAt
	token.SetExpiresAtFromExpiresIn()
	assert.Equal(t, firstExpiry, token.ExpiresAt)
}

func TestToken_Scopes(t *testing.T) {
	token := &Token{Scope: "chat npc.read npc.write"}
	assert.Equal(t, []string{"chat", "npc.read", "npc.write"}, token.Scopes())

	empty := &Token{}
	assert.Nil(t, empty.Scopes())
}

func TestToken_ToOAuth2Token(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	token := &Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		ExpiresAt:    expiry,
	}

	converted := token.ToOAuth2Token()
	assert.Equal(t, "access", converted.AccessToken)
	assert.Equal(t, "Bearer", converted.TokenType)
	assert.Equal(t, "refresh", converted.RefreshToken)
	assert.Equal(t, expiry, converted.Expiry)
	assert.True(t, converted.Valid())
}

func TestPollResponse_Token(t *testing.T) {
	resp := &PollResponse{
		Status:       StatusAuthorized,
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    600,
		Scope:        "chat",
	}

	token := resp.Token()
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), token.ExpiresAt, 5*time.Second)
}
