package authmgr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/franknobox/agentland-go/internal/storage"
)

// Storage keys used by the token store. Values are strings; the expiry is
// stored as Unix seconds in decimal so any string-valued backend can hold
// it and comparisons stay monotonic.
const (
	keyAccessToken  = "auth.access_token"
	keyRefreshToken = "auth.refresh_token"
	keyTokenExpiry  = "auth.token_expiry"
)

// TokenRecord is the durable credential persisted between runs.
type TokenRecord struct {
	// AccessToken is the bearer credential.
	AccessToken string

	// RefreshToken is optional. Without it the record cannot be refreshed,
	// only replaced by a full re-authentication.
	RefreshToken string

	// ExpiresAt is the absolute expiry. A zero value means never expires.
	ExpiresAt time.Time
}

// CanRefresh reports whether the record holds a refresh token.
func (r *TokenRecord) CanRefresh() bool {
	return r.RefreshToken != ""
}

// TokenStore persists the token record through an injected storage backend.
// The lifecycle manager is its sole writer.
type TokenStore struct {
	store storage.Store
}

// NewTokenStore creates a token store over the given backend.
func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Save writes the record. A missing refresh token or expiry removes the
// corresponding key so stale values never outlive the token they belonged to.
func (s *TokenStore) Save(rec *TokenRecord) error {
	if rec == nil || rec.AccessToken == "" {
		return fmt.Errorf("refusing to save empty token record")
	}

	if err := s.store.Set(keyAccessToken, rec.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}

	if rec.RefreshToken != "" {
		if err := s.store.Set(keyRefreshToken, rec.RefreshToken); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
	} else if err := s.store.Delete(keyRefreshToken); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	if !rec.ExpiresAt.IsZero() {
		if err := s.store.Set(keyTokenExpiry, strconv.FormatInt(rec.ExpiresAt.Unix(), 10)); err != nil {
			return fmt.Errorf("failed to store token expiry: %w", err)
		}
	} else if err := s.store.Delete(keyTokenExpiry); err != nil {
		return fmt.Errorf("failed to clear token expiry: %w", err)
	}

	return nil
}

// Load reads the persisted record. Returns nil when no access token is
// stored. A malformed expiry value is treated as no expiry rather than
// discarding an otherwise usable token.
func (s *TokenStore) Load() (*TokenRecord, error) {
	accessToken, err := s.store.Get(keyAccessToken, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load access token: %w", err)
	}
	if accessToken == "" {
		return nil, nil
	}

	refreshToken, err := s.store.Get(keyRefreshToken, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	rec := &TokenRecord{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	expiryStr, err := s.store.Get(keyTokenExpiry, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load token expiry: %w", err)
	}
	if expiryStr != "" {
		if unix, parseErr := strconv.ParseInt(expiryStr, 10, 64); parseErr == nil && unix > 0 {
			rec.ExpiresAt = time.Unix(unix, 0)
		}
	}

	return rec, nil
}

// Clear removes all three keys. Called on logout and when the server
// reports the refresh grant as permanently invalid.
func (s *TokenStore) Clear() error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyTokenExpiry} {
		if err := s.store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
