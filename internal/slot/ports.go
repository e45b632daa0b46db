package slot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing was ever stored under a key.
var ErrNotFound = errors.New("slot: key not found")

// Ports for the durable key-value slot holding the serialized store.
type (
	Reader interface {
		// Get returns the value stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
	}

	// Writer replaces the whole value under key. A single Put is atomic:
	// readers observe either the previous value or the new one.
	Writer interface {
		Put(ctx context.Context, key string, value []byte) error
	}

	Slot interface {
		Reader
		Writer
	}
)
