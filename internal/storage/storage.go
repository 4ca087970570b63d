package storage

// Store is the key-value contract the SDK persists credentials through.
// Values are strings; hosts may back it with any engine (file, keychain,
// platform preference store). Implementations must be safe for concurrent
// use.
type Store interface {
	// Set stores a value under key, overwriting any previous value.
	Set(key, value string) error

	// Get returns the value for key, or def if the key is absent.
	Get(key, def string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
