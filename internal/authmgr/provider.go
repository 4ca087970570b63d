package authmgr

import "context"

// Provider is implemented by external credential sources, such as a
// platform identity service, that can authenticate the user without the
// device-authorization flow. Providers are registered explicitly with the
// Manager; there is no runtime discovery.
type Provider interface {
	// ID returns the stable provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Available reports whether the provider can currently authenticate,
	// e.g. whether the platform service is reachable on this device.
	Available() bool

	// Authenticate performs the provider's authentication flow.
	// Expected failures are reported in the result, not as an error.
	Authenticate(ctx context.Context) (*AuthResult, error)

	// Cleanup releases provider resources.
	Cleanup() error

	// SubscribeStatus registers a listener for human-readable status
	// messages emitted while Authenticate runs, for UI feedback. The
	// returned function removes the registration.
	SubscribeStatus(listener func(status string)) (unsubscribe func())
}
