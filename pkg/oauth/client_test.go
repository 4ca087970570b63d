package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_InitiateDeviceAuth(t *testing.T) {
	var gotReq InitiateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/device-auth/initiate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(InitiateResponse{
			SessionID:    "sess-1",
			AuthURL:      "https://auth.example.com/approve?s=sess-1",
			PollInterval: 3,
			ExpiresIn:    300,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.InitiateDeviceAuth(context.Background(), &InitiateRequest{
		TargetID:            "game-1",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		Scope:               "chat",
	})
	require.NoError(t, err)

	assert.Equal(t, "game-1", gotReq.TargetID)
	assert.Equal(t, "challenge", gotReq.CodeChallenge)
	assert.Equal(t, "S256", gotReq.CodeChallengeMethod)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, 3, resp.PollInterval)
	assert.Equal(t, 300, resp.ExpiresIn)
}

func TestClient_InitiateDeviceAuth_MissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.InitiateDeviceAuth(context.Background(), &InitiateRequest{TargetID: "game-1"})
	assert.Error(t, err)
	assert.Nil(t, AsProtocolError(err))
}

func TestClient_PollDeviceAuth_Pending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/device-auth/poll", r.URL.Path)
		require.Equal(t, "sess-1", r.URL.Query().Get("session_id"))
		require.Equal(t, "verifier", r.URL.Query().Get("code_verifier"))

		json.NewEncoder(w).Encode(PollResponse{Status: StatusPending, PollInterval: 7})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.PollDeviceAuth(context.Background(), "sess-1", "verifier")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, 7, resp.PollInterval)
}

func TestClient_PollDeviceAuth_Authorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PollResponse{
			Status:       StatusAuthorized,
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.PollDeviceAuth(context.Background(), "sess-1", "verifier")
	require.NoError(t, err)

	assert.Equal(t, StatusAuthorized, resp.Status)
	assert.Equal(t, "access", resp.AccessToken)
}

func TestClient_PollDeviceAuth_ProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "access_denied",
			"error_description": "the user rejected the request",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.PollDeviceAuth(context.Background(), "sess-1", "verifier")
	require.Error(t, err)

	protoErr := AsProtocolError(err)
	require.NotNil(t, protoErr)
	assert.Equal(t, ErrorCodeAccessDenied, protoErr.Code)
	assert.True(t, protoErr.IsTerminal())
}

func TestClient_PollDeviceAuth_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.PollDeviceAuth(context.Background(), "sess-1", "verifier")
	// Malformed responses are plain (transient) errors, not protocol errors.
	require.Error(t, err)
	assert.Nil(t, AsProtocolError(err))
}

func TestClient_RefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/device-auth/refresh", r.URL.Path)

		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "old-refresh", req.RefreshToken)
		require.Equal(t, "game-1", req.TargetID)

		json.NewEncoder(w).Encode(RefreshResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.RefreshToken(context.Background(), "old-refresh", "game-1")
	require.NoError(t, err)

	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestClient_RefreshToken_GrantInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RefreshToken(context.Background(), "dead-refresh", "game-1")
	require.Error(t, err)
	assert.True(t, IsGrantInvalid(err))
}

func TestClient_VerifyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/verify", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	assert.NoError(t, client.VerifyToken(context.Background(), "good"))
	assert.Error(t, client.VerifyToken(context.Background(), "bad"))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL)
	_, err := client.PollDeviceAuth(ctx, "sess-1", "verifier")
	assert.Error(t, err)
}
