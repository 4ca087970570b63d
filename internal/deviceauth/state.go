package deviceauth

// FlowState represents the current state of a device-authorization flow.
type FlowState int

const (
	// StateIdle means no flow is in progress. It is both the initial state
	// and the state reached after cancellation.
	StateIdle FlowState = iota

	// StateInitiating means the initiation request is in flight.
	StateInitiating

	// StateWaitingForUserApproval means a session exists and the authorize
	// URL is being presented to the user.
	StateWaitingForUserApproval

	// StatePolling means the orchestrator is polling the server for the
	// user's decision.
	StatePolling

	// StateAuthorized is the terminal success state.
	StateAuthorized

	// StateDenied is the terminal state after the user rejected the request.
	StateDenied

	// StateExpired is the terminal state after the session deadline elapsed
	// or the server reported the session as expired.
	StateExpired

	// StateError is the terminal state for initiation failures and
	// persistent poll failures.
	StateError
)

// String returns the string representation of the flow state.
func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitiating:
		return "initiating"
	case StateWaitingForUserApproval:
		return "waiting_for_user_approval"
	case StatePolling:
		return "polling"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	case StateExpired:
		return "expired"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a flow. Idle is not terminal in
// this sense: it is the resting state a cancelled flow unwinds to.
func (s FlowState) Terminal() bool {
	switch s {
	case StateAuthorized, StateDenied, StateExpired, StateError:
		return true
	default:
		return false
	}
}

// StateEvent is delivered to subscribed listeners whenever the flow state
// actually changes. Message carries a human-readable description for
// terminal non-success outcomes and cancellation, so host UIs can render
// feedback without inspecting internal state.
type StateEvent struct {
	// FlowID identifies the flow the event belongs to.
	FlowID string

	// State is the state just entered.
	State FlowState

	// Message is an optional user-facing description.
	Message string
}

// StateListener receives state change events.
type StateListener func(event StateEvent)
