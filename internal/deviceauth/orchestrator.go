package deviceauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/franknobox/agentland-go/pkg/oauth"
)

const (
	// DefaultPollInterval is used when the server does not suggest one.
	DefaultPollInterval = 5 * time.Second

	// DefaultSessionTTL is used when the server does not send expires_in.
	DefaultSessionTTL = 10 * time.Minute

	// MaxPollInterval caps the interval growth from slow_down responses.
	MaxPollInterval = 30 * time.Second

	// DefaultMaxConsecutiveFailures bounds how many poll attempts in a row
	// may fail with transient or unrecognized errors before the flow gives
	// up. The session deadline alone would let a misbehaving server keep
	// the client polling for the full TTL.
	DefaultMaxConsecutiveFailures = 10
)

var (
	// ErrFlowInProgress is returned when a flow is started while another is
	// still running on the same orchestrator.
	ErrFlowInProgress = errors.New("device auth flow already in progress")

	// ErrFlowCancelled marks cooperative cancellation of a flow. It is not
	// a failure: the flow unwound cleanly to the idle state.
	ErrFlowCancelled = errors.New("device auth flow cancelled")

	// ErrSessionExpired is returned when the session deadline elapsed
	// before the user approved the request.
	ErrSessionExpired = errors.New("device auth session expired")

	// ErrTooManyPollFailures is returned when the consecutive-failure
	// bound is exceeded.
	ErrTooManyPollFailures = errors.New("too many consecutive poll failures")
)

// ProtocolClient is the slice of the protocol client the orchestrator needs.
type ProtocolClient interface {
	InitiateDeviceAuth(ctx context.Context, req *oauth.InitiateRequest) (*oauth.InitiateResponse, error)
	PollDeviceAuth(ctx context.Context, sessionID, codeVerifier string) (*oauth.PollResponse, error)
}

// Orchestrator drives one device-authorization flow at a time: it initiates
// a session, hands the authorize URL to the URL opener collaborator, and
// polls the server until a terminal state is reached or the flow is
// cancelled.
type Orchestrator struct {
	client   ProtocolClient
	targetID string
	openURL  func(url string) error
	logger   *slog.Logger

	defaultInterval time.Duration
	sessionTTL      time.Duration
	maxInterval     time.Duration
	maxFailures     int

	// wait is replaced in tests to observe intervals without sleeping.
	wait func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	running      bool
	state        FlowState
	flowID       string
	cancelFlow   context.CancelFunc
	listeners    map[int]StateListener
	nextListener int
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithOpenURL sets the collaborator that presents the authorize URL to the
// user, typically by opening a browser. A nil opener is valid: the URL is
// then only surfaced through state events.
func WithOpenURL(open func(url string) error) Option {
	return func(o *Orchestrator) {
		o.openURL = open
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithDefaultPollInterval sets the poll interval used when the server does
// not suggest one.
func WithDefaultPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.defaultInterval = interval
	}
}

// WithSessionTTL sets the session lifetime used when the server does not
// send expires_in.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.sessionTTL = ttl
	}
}

// WithMaxConsecutiveFailures sets the bound on consecutive transient poll
// failures before the flow transitions to the error state.
func WithMaxConsecutiveFailures(limit int) Option {
	return func(o *Orchestrator) {
		o.maxFailures = limit
	}
}

// NewOrchestrator creates an orchestrator for the given target id.
func NewOrchestrator(client ProtocolClient, targetID string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:          client,
		targetID:        targetID,
		logger:          slog.Default(),
		defaultInterval: DefaultPollInterval,
		sessionTTL:      DefaultSessionTTL,
		maxInterval:     MaxPollInterval,
		maxFailures:     DefaultMaxConsecutiveFailures,
		wait:            waitWithContext,
		state:           StateIdle,
		listeners:       make(map[int]StateListener),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Subscribe registers a listener for state change events. The returned
// function removes the registration. Listeners are invoked only when the
// state value actually changes.
func (o *Orchestrator) Subscribe(listener StateListener) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = listener
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// State returns the current flow state.
func (o *Orchestrator) State() FlowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// StartAuthFlow runs one complete device-authorization flow and returns the
// granted token. At most one flow may be active per orchestrator; a second
// concurrent start is rejected with ErrFlowInProgress rather than queued.
//
// Cancellation (via ctx or CancelFlow) unwinds to StateIdle and returns
// ErrFlowCancelled. Terminal protocol outcomes return a nil token together
// with the classifying error.
func (o *Orchestrator) StartAuthFlow(ctx context.Context, scope string) (*oauth.Token, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrFlowInProgress
	}
	flowCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancelFlow = cancel
	o.flowID = uuid.NewString()
	flowID := o.flowID
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.running = false
		o.cancelFlow = nil
		o.mu.Unlock()
	}()

	o.logger.Debug("Starting device auth flow",
		"flow_id", flowID,
		"target_id", o.targetID,
		"scope", scope)

	token, err := o.run(flowCtx, scope)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, ErrFlowCancelled)) {
		o.setState(StateIdle, "authentication cancelled")
		return nil, ErrFlowCancelled
	}
	return token, err
}

// CancelFlow cancels a running flow. It is idempotent and a no-op when no
// flow is in progress.
func (o *Orchestrator) CancelFlow() {
	o.mu.Lock()
	cancel := o.cancelFlow
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// run executes the initiate / present / poll sequence.
func (o *Orchestrator) run(ctx context.Context, scope string) (*oauth.Token, error) {
	pkce, err := oauth.GeneratePKCE()
	if err != nil {
		o.setState(StateError, "could not start authorization")
		return nil, err
	}

	o.setState(StateInitiating, "")

	resp, err := o.client.InitiateDeviceAuth(ctx, &oauth.InitiateRequest{
		TargetID:            o.targetID,
		CodeChallenge:       pkce.CodeChallenge,
		CodeChallengeMethod: pkce.CodeChallengeMethod,
		Scope:               scope,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrFlowCancelled
		}
		o.setState(StateError, "could not reach the authorization server")
		return nil, fmt.Errorf("device auth initiation failed: %w", err)
	}

	session := newSession(pkce, resp, o.defaultInterval, o.sessionTTL)

	o.logger.Debug("Device auth session created",
		"session_id", session.ID,
		"poll_interval", session.PollInterval,
		"expires_at", session.ExpiresAt.Format(time.RFC3339))

	o.setState(StateWaitingForUserApproval, "")

	if o.openURL != nil {
		if openErr := o.openURL(session.AuthURL); openErr != nil {
			// The user can still open the URL manually; it is carried in
			// the state event message below.
			o.logger.Warn("Failed to open authorize URL",
				"session_id", session.ID,
				"error", openErr.Error())
		}
	}

	o.setState(StatePolling, "waiting for approval at "+session.AuthURL)

	return o.poll(ctx, session)
}

// poll repeatedly checks the session until a terminal outcome, the session
// deadline, cancellation, or the consecutive-failure bound.
func (o *Orchestrator) poll(ctx context.Context, session *Session) (*oauth.Token, error) {
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil, ErrFlowCancelled
		}
		remaining := time.Until(session.ExpiresAt)
		if remaining <= 0 {
			o.setState(StateExpired, "authorization session expired")
			return nil, ErrSessionExpired
		}

		resp, err := o.client.PollDeviceAuth(ctx, session.ID, session.Verifier)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ErrFlowCancelled

		case err != nil:
			protoErr := oauth.AsProtocolError(err)
			switch {
			case protoErr == nil:
				// Transport failure or unparseable response: transient.
				failures++
				o.logger.Debug("Transient poll failure",
					"session_id", session.ID,
					"consecutive_failures", failures,
					"error", err.Error())

			case protoErr.IsSlowDown():
				failures = 0
				session.PollInterval = capInterval(session.PollInterval*2, o.maxInterval)
				o.logger.Debug("Server requested slow down",
					"session_id", session.ID,
					"poll_interval", session.PollInterval)

			case protoErr.Code == oauth.ErrorCodeAccessDenied:
				o.setState(StateDenied, "authorization denied")
				return nil, err

			case protoErr.Code == oauth.ErrorCodeExpiredToken:
				o.setState(StateExpired, "authorization session expired")
				return nil, err

			default:
				// Unrecognized server error: retry like a transient one.
				failures++
				o.logger.Warn("Unrecognized poll error, retrying",
					"session_id", session.ID,
					"code", protoErr.Code,
					"consecutive_failures", failures)
			}

			if failures >= o.maxFailures {
				o.setState(StateError, "authorization server unavailable")
				return nil, ErrTooManyPollFailures
			}

		case resp.Status == oauth.StatusAuthorized:
			token := resp.Token()
			if token.AccessToken == "" {
				// Authorized without a token is a server bug; retry.
				failures++
				o.logger.Warn("Authorized poll response without access token",
					"session_id", session.ID)
				if failures >= o.maxFailures {
					o.setState(StateError, "authorization server unavailable")
					return nil, ErrTooManyPollFailures
				}
				break
			}
			o.setState(StateAuthorized, "")
			o.logger.Info("Device auth flow authorized",
				"session_id", session.ID,
				"has_refresh_token", token.RefreshToken != "")
			return token, nil

		case resp.Status == oauth.StatusPending:
			failures = 0
			if resp.PollInterval > 0 {
				session.PollInterval = capInterval(time.Duration(resp.PollInterval)*time.Second, o.maxInterval)
			}

		default:
			failures++
			o.logger.Warn("Unrecognized poll status, retrying",
				"session_id", session.ID,
				"status", resp.Status,
				"consecutive_failures", failures)
			if failures >= o.maxFailures {
				o.setState(StateError, "authorization server unavailable")
				return nil, ErrTooManyPollFailures
			}
		}

		wait := session.PollInterval
		if remaining < wait {
			wait = remaining
		}
		if err := o.wait(ctx, wait); err != nil {
			return nil, ErrFlowCancelled
		}
	}
}

// setState transitions to a new state and notifies listeners. Re-entering
// the current state is a no-op so listeners never see duplicate events.
func (o *Orchestrator) setState(state FlowState, message string) {
	o.mu.Lock()
	if o.state == state {
		o.mu.Unlock()
		return
	}
	o.state = state
	flowID := o.flowID
	listeners := make([]StateListener, 0, len(o.listeners))
	for _, l := range o.listeners {
		listeners = append(listeners, l)
	}
	o.mu.Unlock()

	o.logger.Debug("Device auth state changed",
		"flow_id", flowID,
		"state", state.String())

	event := StateEvent{FlowID: flowID, State: state, Message: message}
	for _, listener := range listeners {
		listener(event)
	}
}

// waitWithContext sleeps for d or until ctx is cancelled.
func waitWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func capInterval(interval, max time.Duration) time.Duration {
	if interval > max {
		return max
	}
	return interval
}
