// Package storage defines the durable object-store interface the transport
// core consumes, along with filesystem and HTTP backed implementations.
// Backend choice is injected configuration.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/opencontainers/go-digest"
)

// ErrNotExist indicates the requested object key is absent from the store.
var ErrNotExist = errors.New("object does not exist")

// Store is a durable object store addressed by slash-separated keys.
//
// Put streams its input to the backend without whole-object buffering, pack
// uploads may exceed available memory.
type Store interface {
	// List returns every key under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Get opens the object at key for reading. Returns an error wrapping
	// [ErrNotExist] when the key is absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes the object at key, replacing any existing object, and
	// returns the content digest computed while streaming.
	Put(ctx context.Context, key string, r io.Reader) (digest.Digest, error)

	// Move renames an object. Returns an error wrapping [ErrNotExist] when
	// the source key is absent.
	Move(ctx context.Context, from, to string) error

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}
