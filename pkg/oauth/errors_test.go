package oauth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolError_Classification(t *testing.T) {
	tests := []struct {
		code         string
		slowDown     bool
		terminal     bool
		grantInvalid bool
	}{
		{code: ErrorCodeSlowDown, slowDown: true},
		{code: ErrorCodeAccessDenied, terminal: true},
		{code: ErrorCodeExpiredToken, terminal: true},
		{code: ErrorCodeInvalidGrant, grantInvalid: true},
		{code: ErrorCodeExpiredGrant, grantInvalid: true},
		{code: "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			protoErr := &ProtocolError{Code: tt.code}
			assert.Equal(t, tt.slowDown, protoErr.IsSlowDown())
			assert.Equal(t, tt.terminal, protoErr.IsTerminal())
			assert.Equal(t, tt.grantInvalid, protoErr.IsGrantInvalid())
		})
	}
}

func TestProtocolError_Error(t *testing.T) {
	withDescription := &ProtocolError{Code: "access_denied", Description: "user rejected"}
	assert.Contains(t, withDescription.Error(), "access_denied")
	assert.Contains(t, withDescription.Error(), "user rejected")

	bare := &ProtocolError{Code: "slow_down"}
	assert.Contains(t, bare.Error(), "slow_down")
}

func TestAsProtocolError(t *testing.T) {
	protoErr := &ProtocolError{Code: ErrorCodeInvalidGrant}
	wrapped := fmt.Errorf("refresh failed: %w", protoErr)

	assert.Equal(t, protoErr, AsProtocolError(wrapped))
	assert.True(t, IsGrantInvalid(wrapped))

	assert.Nil(t, AsProtocolError(errors.New("plain")))
	assert.False(t, IsGrantInvalid(errors.New("plain")))
	assert.False(t, IsGrantInvalid(nil))
}
