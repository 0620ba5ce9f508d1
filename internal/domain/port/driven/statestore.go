package driven

import "context"

// StateStore defines the driven port for the process-wide key/value store
// that holds the JSON-encoded credential index.
type StateStore interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Update stores value under key, replacing any existing value.
	Update(ctx context.Context, key, value string) error
}
