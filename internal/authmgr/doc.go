// Package authmgr owns the token lifecycle: loading and persisting the
// credential record, deciding between cached reuse, proactive or reactive
// refresh, remote verification, and a fresh device-authorization flow or
// external provider.
//
// The Manager is the entry point for hosts. Concurrent Authenticate calls
// collapse into one underlying sequence; all callers observe the same
// result. Token mutations are guarded by a mutex so the manager is safe in
// preemptively scheduled hosts.
package authmgr
