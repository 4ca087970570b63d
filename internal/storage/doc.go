// Package storage defines the key-value persistence contract the SDK
// stores credentials through, plus the two implementations it ships:
// a JSON file store with restricted permissions and an in-memory store
// for tests and embedding hosts.
package storage
