// Package logging provides the shared logging setup for the SDK and CLI.
//
// It is a thin layer over log/slog: Init configures the process-wide
// handler (text or JSON, minimum level), and the Debug/Info/Warn/Error
// helpers attach a subsystem attribute so log lines can be traced back to
// the component that emitted them.
//
// Credential values must never be passed to these helpers; log endpoints,
// session ids, and states instead.
package logging
