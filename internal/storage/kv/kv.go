// Package kv abstracts the durable key-value storage the embedded engine
// persists its database image to. Production uses a Charm KV store; tests
// use the in-memory implementation.
package kv

// Store is the minimal contract the embedded engine needs.
type Store interface {
	// Get retrieves a value. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Set stores a value durably.
	Set(key string, value []byte) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}
