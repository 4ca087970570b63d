package authmgr

import (
	"errors"
	"time"
)

// AuthResult is the provider-agnostic outcome of one authentication
// attempt. It is constructed once per attempt and not reused.
type AuthResult struct {
	// Success reports whether the attempt produced a usable credential.
	Success bool

	// AccessToken is the primary credential. Non-empty iff Success.
	AccessToken string

	// RefreshToken is the optional refresh credential.
	RefreshToken string

	// ExpiresIn is the token lifetime in seconds from now. At most one of
	// ExpiresIn and ExpiresAt may be set.
	ExpiresIn int

	// ExpiresAt is the absolute expiry. At most one of ExpiresIn and
	// ExpiresAt may be set.
	ExpiresAt time.Time

	// Subject identifies the authenticated user.
	Subject string

	// PlatformSubject is the platform-specific subject identifier.
	PlatformSubject string

	// ErrorMessage describes the failure. Present iff Success is false.
	ErrorMessage string

	// Metadata carries free-form provider data.
	Metadata map[string]string

	// ProviderID names the provider that produced the result, for
	// diagnostics.
	ProviderID string
}

// Validate checks the structural invariants of the result.
func (r *AuthResult) Validate() error {
	if r.Success && r.AccessToken == "" {
		return errors.New("successful auth result without access token")
	}
	if !r.Success && r.ErrorMessage == "" {
		return errors.New("failed auth result without error message")
	}
	if r.ExpiresIn > 0 && !r.ExpiresAt.IsZero() {
		return errors.New("auth result sets both relative and absolute expiry")
	}
	return nil
}

// Expiry returns the absolute expiry of the result's token, resolving a
// relative ExpiresIn against the current time. Zero means never expires.
func (r *AuthResult) Expiry() time.Time {
	if !r.ExpiresAt.IsZero() {
		return r.ExpiresAt
	}
	if r.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return time.Time{}
}
