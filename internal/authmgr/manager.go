package authmgr

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/franknobox/agentland-go/pkg/oauth"
)

// DefaultRefreshBuffer is the window before expiry during which a token is
// proactively refreshed instead of used until it fails.
const DefaultRefreshBuffer = oauth.TokenRefreshThreshold

// ErrMissingTargetID is returned when the manager is constructed without a
// target id. This fails fast, before any network call.
var ErrMissingTargetID = errors.New("target id is required")

// TokenClient is the slice of the protocol client the manager needs.
type TokenClient interface {
	RefreshToken(ctx context.Context, refreshToken, targetID string) (*oauth.RefreshResponse, error)
	VerifyToken(ctx context.Context, accessToken string) error
}

// AuthFlow starts a fresh device-authorization flow. Implemented by
// deviceauth.Orchestrator.
type AuthFlow interface {
	StartAuthFlow(ctx context.Context, scope string) (*oauth.Token, error)
}

// ManagerConfig configures the lifecycle manager.
type ManagerConfig struct {
	// TargetID identifies the client application to the authorization
	// server. Required.
	TargetID string

	// Scope is the scope requested when a fresh flow is started.
	Scope string

	// DeveloperToken is a non-expiring override credential. When set,
	// Authenticate succeeds immediately and all expiry/refresh logic is
	// bypassed. Logout does not clear it; it is configuration, not state.
	DeveloperToken string

	// RefreshBuffer is the proactive-refresh window. Defaults to
	// DefaultRefreshBuffer.
	RefreshBuffer time.Duration

	// VerifyRemote enables the remote verification call for tokens that
	// are outside the refresh buffer.
	VerifyRemote bool

	// Logger is the logger used by the manager. Defaults to slog.Default.
	Logger *slog.Logger
}

// Manager orchestrates the end-to-end authentication decision: developer
// token bypass, cached token reuse, proactive and reactive refresh, remote
// verification, and falling back to a device-authorization flow or a
// registered external provider.
//
// Public entry points never surface raw transport errors: expected failure
// modes are logged and reported as a boolean result.
type Manager struct {
	client         TokenClient
	flow           AuthFlow
	tokens         *TokenStore
	targetID       string
	scope          string
	developerToken string
	refreshBuffer  time.Duration
	verifyRemote   bool
	logger         *slog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	provider     Provider

	// group collapses concurrent Authenticate calls into one sequence;
	// every caller observes the same result.
	group singleflight.Group
}

// NewManager creates a lifecycle manager. The device flow may be nil when
// the host authenticates exclusively through a registered provider.
func NewManager(client TokenClient, flow AuthFlow, tokens *TokenStore, cfg ManagerConfig) (*Manager, error) {
	if cfg.TargetID == "" {
		return nil, ErrMissingTargetID
	}

	refreshBuffer := cfg.RefreshBuffer
	if refreshBuffer <= 0 {
		refreshBuffer = DefaultRefreshBuffer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		client:         client,
		flow:           flow,
		tokens:         tokens,
		targetID:       cfg.TargetID,
		scope:          cfg.Scope,
		developerToken: cfg.DeveloperToken,
		refreshBuffer:  refreshBuffer,
		verifyRemote:   cfg.VerifyRemote,
		logger:         logger,
	}, nil
}

// RegisterProvider registers an external credential provider. A registered,
// available provider takes precedence over the device flow when a fresh
// authentication is needed.
func (m *Manager) RegisterProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
}

// Authenticate makes sure a usable credential exists, running at most one
// underlying authentication sequence process-wide. Concurrent callers wait
// for the in-flight sequence and receive its result.
func (m *Manager) Authenticate(ctx context.Context) bool {
	result, _, _ := m.group.Do("authenticate", func() (value interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("Panic during authentication",
					"panic", r)
				value, err = false, nil
			}
		}()
		return m.authenticate(ctx), nil
	})

	ok, _ := result.(bool)
	return ok
}

// authenticate runs the decision sequence: developer token, cached token
// (with proactive refresh and optional remote verification), then a fresh
// flow or provider.
func (m *Manager) authenticate(ctx context.Context) bool {
	if m.developerToken != "" {
		m.mu.Lock()
		m.accessToken = m.developerToken
		m.mu.Unlock()
		m.logger.Debug("Using developer override token")
		return true
	}

	rec, err := m.tokens.Load()
	if err != nil {
		m.logger.Warn("Failed to load stored tokens",
			"error", err.Error())
		rec = nil
	}

	if rec != nil {
		m.setTokens(rec.AccessToken, rec.RefreshToken, rec.ExpiresAt)

		if !rec.ExpiresAt.IsZero() && time.Until(rec.ExpiresAt) <= m.refreshBuffer {
			// Inside the refresh buffer: refresh proactively.
			if err := m.refresh(ctx); err == nil {
				return true
			}
			m.logger.Info("Proactive token refresh failed, starting fresh authentication")
		} else if m.verifyRemote && m.client != nil {
			if err := m.client.VerifyToken(ctx, rec.AccessToken); err == nil {
				return true
			}
			m.logger.Debug("Remote token verification failed, attempting refresh")
			if err := m.refresh(ctx); err == nil {
				return true
			}
			m.logger.Info("Token refresh after failed verification failed, starting fresh authentication")
		} else {
			// Cached token outside the buffer, verification disabled.
			return true
		}
	}

	return m.freshAuthentication(ctx)
}

// freshAuthentication runs the fallback path: a registered provider when
// one is available, otherwise the device-authorization flow.
func (m *Manager) freshAuthentication(ctx context.Context) bool {
	m.mu.Lock()
	provider := m.provider
	m.mu.Unlock()

	if provider != nil && provider.Available() {
		return m.AuthenticateWithProvider(ctx, provider)
	}

	if m.flow == nil {
		m.logger.Error("No authentication path available",
			"error", "no device flow and no available provider configured")
		return false
	}

	token, err := m.flow.StartAuthFlow(ctx, m.scope)
	if err != nil || token == nil {
		if err != nil {
			m.logger.Info("Device auth flow did not produce a token",
				"error", err.Error())
		}
		return false
	}

	if err := m.persistToken(token.AccessToken, token.RefreshToken, token.ExpiresAt); err != nil {
		m.logger.Warn("Failed to persist token",
			"error", err.Error())
		// The in-memory credential is still usable for this process.
	}

	return true
}

// Refresh exchanges the stored refresh token for a new access token.
// A grant-invalid rejection clears all stored tokens so the next attempt
// re-authenticates from scratch; a transient failure preserves them.
func (m *Manager) Refresh(ctx context.Context) bool {
	if err := m.refresh(ctx); err != nil {
		return false
	}
	return true
}

func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	refreshToken := m.refreshToken
	m.mu.Unlock()

	if refreshToken == "" {
		rec, err := m.tokens.Load()
		if err == nil && rec != nil {
			refreshToken = rec.RefreshToken
		}
	}
	if refreshToken == "" {
		m.logger.Debug("No refresh token available")
		return oauth.ErrNoRefreshToken
	}

	resp, err := m.client.RefreshToken(ctx, refreshToken, m.targetID)
	if err != nil {
		if oauth.IsGrantInvalid(err) {
			// The grant itself is dead; a retry can never succeed.
			m.logger.Info("Refresh grant rejected by server, clearing stored tokens",
				"error", err.Error())
			m.clearTokens()
			return err
		}
		// Transient (timeout, connection error): the stored refresh token
		// is still good for a later retry.
		m.logger.Debug("Transient refresh failure, keeping stored tokens",
			"error", err.Error())
		return err
	}

	token := resp.Token()
	newRefresh := token.RefreshToken
	if newRefresh == "" {
		// Server did not rotate the refresh token.
		newRefresh = refreshToken
	}

	if err := m.persistToken(token.AccessToken, newRefresh, token.ExpiresAt); err != nil {
		m.logger.Warn("Failed to persist refreshed token",
			"error", err.Error())
	}

	m.logger.Debug("Token refreshed",
		"rotated_refresh_token", token.RefreshToken != "")
	return nil
}

// AuthenticateWithProvider authenticates through the given provider. It
// subscribes to the provider's status messages for the duration of the
// call and unsubscribes on every exit path.
func (m *Manager) AuthenticateWithProvider(ctx context.Context, provider Provider) (ok bool) {
	unsubscribe := provider.SubscribeStatus(func(status string) {
		m.logger.Info("Provider status",
			"provider", provider.ID(),
			"status", status)
	})
	defer unsubscribe()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic in auth provider",
				"provider", provider.ID(),
				"panic", r)
			ok = false
		}
	}()

	result, err := provider.Authenticate(ctx)
	if err != nil {
		m.logger.Info("Provider authentication failed",
			"provider", provider.ID(),
			"error", err.Error())
		return false
	}
	if result == nil || !result.Success || result.AccessToken == "" {
		message := "provider returned no token"
		if result != nil && result.ErrorMessage != "" {
			message = result.ErrorMessage
		}
		m.logger.Info("Provider authentication unsuccessful",
			"provider", provider.ID(),
			"message", message)
		return false
	}

	if err := m.persistToken(result.AccessToken, result.RefreshToken, result.Expiry()); err != nil {
		m.logger.Warn("Failed to persist provider token",
			"provider", provider.ID(),
			"error", err.Error())
	}

	m.logger.Info("Authenticated via provider",
		"provider", provider.ID(),
		"subject", result.Subject)
	return true
}

// Logout clears persisted and in-memory tokens. A configured developer
// token is unaffected; it is a separate configuration channel.
func (m *Manager) Logout() error {
	err := m.tokens.Clear()
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.logger.Info("Logged out, stored tokens cleared")
	return nil
}

// AccessToken returns the current credential: the developer token when one
// is configured, otherwise the token from the last authentication. Empty
// when not authenticated.
func (m *Manager) AccessToken() string {
	if m.developerToken != "" {
		return m.developerToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

// Token returns the current credential as an oauth.Token, or nil when not
// authenticated. Useful for hosts that plug the credential into an
// oauth2-aware transport via Token.ToOAuth2Token.
func (m *Manager) Token() *oauth.Token {
	if m.developerToken != "" {
		return &oauth.Token{AccessToken: m.developerToken, TokenType: "Bearer"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accessToken == "" {
		return nil
	}
	return &oauth.Token{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    m.expiresAt,
	}
}

// persistToken updates the in-memory fields and writes through the store.
func (m *Manager) persistToken(accessToken, refreshToken string, expiresAt time.Time) error {
	m.setTokens(accessToken, refreshToken, expiresAt)
	return m.tokens.Save(&TokenRecord{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

func (m *Manager) setTokens(accessToken, refreshToken string, expiresAt time.Time) {
	m.mu.Lock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.expiresAt = expiresAt
	m.mu.Unlock()
}

func (m *Manager) clearTokens() {
	if err := m.tokens.Clear(); err != nil {
		m.logger.Warn("Failed to clear stored tokens",
			"error", err.Error())
	}
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}
