// Package oauth implements the protocol layer of the Agentland
// device-authorization grant: PKCE generation, the wire types for the
// initiate/poll/refresh endpoints, the HTTP protocol client, and the
// error taxonomy that separates protocol outcomes from transport failures.
//
// The package is deliberately free of storage and lifecycle concerns;
// those live in internal/authmgr and internal/deviceauth.
package oauth
