package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// pkceVerifierBytes is the number of random bytes for the PKCE code verifier.
// 32 bytes provides 256 bits of entropy and encodes to 43 base64url
// characters, satisfying the 43-128 character bound required by RFC 7636.
const pkceVerifierBytes = 32

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) pair.
// PKCE prevents an observer of the initiation request from forging the
// final poll: only the challenge is sent up front, the verifier travels
// exclusively with the poll request.
type PKCEChallenge struct {
	// CodeVerifier is the cryptographically random string. It is kept
	// secret and only transmitted with the final poll request.
	CodeVerifier string

	// CodeChallenge is the SHA256 hash of the verifier (base64url-encoded).
	// This is sent in the initiation request.
	CodeChallenge string

	// CodeChallengeMethod is always "S256" (plain is not supported).
	CodeChallengeMethod string
}

// GeneratePKCE generates a new PKCE code verifier and its derived challenge.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       DeriveChallenge(verifier),
		CodeChallengeMethod: "S256",
	}, nil
}

// GenerateVerifier produces a new PKCE code verifier: 32 cryptographically
// secure random bytes, base64url-encoded without padding.
//
// A failing secure-random source is a fatal condition; callers should treat
// an error here as a startup failure, not a retryable runtime error.
func GenerateVerifier() (string, error) {
	verifierBytes := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(verifierBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(verifierBytes), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// SHA256 of the verifier's UTF-8 bytes, base64url-encoded without padding.
// Deterministic for a given verifier.
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
