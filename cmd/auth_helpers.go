package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/franknobox/agentland-go/internal/authmgr"
	"github.com/franknobox/agentland-go/pkg/oauth"
)

// tokenRecordFrom converts a granted token into the persisted record shape.
func tokenRecordFrom(token *oauth.Token) *authmgr.TokenRecord {
	return &authmgr.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
}

// formatExpiry renders a token expiry for status output, colored by how
// close it is.
func formatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "never"
	}

	remaining := time.Until(expiresAt)
	formatted := expiresAt.Format(time.RFC1123)

	switch {
	case remaining <= 0:
		return text.FgRed.Sprintf("%s (expired)", formatted)
	case remaining <= oauth.TokenRefreshThreshold:
		return text.FgYellow.Sprintf("%s (expiring soon)", formatted)
	default:
		return formatted
	}
}
