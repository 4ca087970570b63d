// Package deviceauth implements the device-authorization flow orchestrator:
// a state machine that initiates a PKCE-protected session, delegates
// presenting the authorize URL to a collaborator, and polls the
// authorization server until the user approves, rejects, or the session
// expires.
//
// One orchestrator runs at most one flow at a time. State transitions are
// published to subscribed listeners, firing only when the state value
// actually changes, so host UIs can bind to the flow without polling it.
//
// Session state (including the PKCE verifier) lives only for the duration
// of a flow and is never persisted.
package deviceauth
