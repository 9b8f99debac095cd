package storage

import "context"

// Backend is the durable medium behind the persistent stores: a namespaced
// string key mapped to a raw JSON payload. Backends store bytes only; schema
// validation lives in the store layer.
type Backend interface {
	// Get returns the payload at key and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes the payload at key, replacing any prior value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Rename moves the payload at oldKey to newKey, deleting oldKey. A missing
// oldKey is a no-op, and an existing newKey is left untouched (first write
// wins), which keeps the legacy-key migration idempotent.
func Rename(ctx context.Context, b Backend, oldKey, newKey string) error {
	payload, ok, err := b.Get(ctx, oldKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if _, exists, err := b.Get(ctx, newKey); err != nil {
		return err
	} else if !exists {
		if err := b.Set(ctx, newKey, payload); err != nil {
			return err
		}
	}
	return b.Delete(ctx, oldKey)
}
