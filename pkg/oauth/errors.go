package oauth

import (
	"errors"
	"fmt"
)

// Error codes returned by the authorization server.
const (
	// ErrorCodeSlowDown tells the client to back off its poll interval.
	ErrorCodeSlowDown = "slow_down"

	// ErrorCodeAccessDenied means the user rejected the authorization request.
	ErrorCodeAccessDenied = "access_denied"

	// ErrorCodeExpiredToken means the device-auth session expired before
	// the user approved it.
	ErrorCodeExpiredToken = "expired_token"

	// ErrorCodeInvalidGrant means the presented grant (typically a refresh
	// token) was permanently rejected by the server.
	ErrorCodeInvalidGrant = "invalid_grant"

	// ErrorCodeExpiredGrant means the presented grant has expired.
	ErrorCodeExpiredGrant = "expired_grant"
)

// ErrAuthRequired is returned when no valid credential exists and
// authentication is needed.
var ErrAuthRequired = errors.New("authentication required")

// ErrNoRefreshToken is returned when a refresh is requested but no refresh
// token is stored.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ProtocolError is an error response from the authorization server.
// It distinguishes protocol-level outcomes (denied, expired, slow down)
// from transport failures, which are reported as plain errors.
type ProtocolError struct {
	// Code is the machine-readable error code from the server.
	Code string

	// Description is the optional human-readable error description.
	Description string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization server error %q: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization server error %q", e.Code)
}

// IsSlowDown reports whether the server asked the client to back off.
func (e *ProtocolError) IsSlowDown() bool {
	return e.Code == ErrorCodeSlowDown
}

// IsTerminal reports whether the error ends the device-auth flow.
// Terminal errors must not be retried; the flow has to be restarted.
func (e *ProtocolError) IsTerminal() bool {
	return e.Code == ErrorCodeAccessDenied || e.Code == ErrorCodeExpiredToken
}

// IsGrantInvalid reports whether the server permanently rejected the grant.
// A grant-invalid refresh failure clears stored tokens; a transient network
// failure must not.
func (e *ProtocolError) IsGrantInvalid() bool {
	return e.Code == ErrorCodeInvalidGrant || e.Code == ErrorCodeExpiredGrant
}

// AsProtocolError extracts a ProtocolError from an error chain.
// Returns nil if err does not carry one.
func AsProtocolError(err error) *ProtocolError {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr
	}
	return nil
}

// IsGrantInvalid reports whether err carries a grant-invalid protocol error.
func IsGrantInvalid(err error) bool {
	protoErr := AsProtocolError(err)
	return protoErr != nil && protoErr.IsGrantInvalid()
}
