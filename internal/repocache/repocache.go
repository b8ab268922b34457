// Package repocache maps a logical (owner, name) repository to a guaranteed
// local filesystem path, syncing with a durable object store when the
// repository data lives remotely.
package repocache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTTL is how long a cached local copy is trusted without re-download.
const DefaultTTL = 5 * time.Minute

// ErrBadName indicates an owner or repository name that cannot address a
// hosted repository.
var ErrBadName = errors.New("invalid repository name")

// Cache provides local working copies of hosted repositories.
//
// Implementations are constructed once and passed to every handler, there is
// no ambient singleton.
type Cache interface {
	// Acquire returns a local filesystem path holding the repository,
	// downloading it from durable storage when needed.
	Acquire(ctx context.Context, owner, name string) (string, error)

	// Release signals the caller is done with the local copy. When modified
	// is true every local file is uploaded back under the repository's
	// storage prefix before Release returns.
	Release(ctx context.Context, owner, name string, modified bool) error

	// Cleanup evicts entries whose age exceeds the time-to-live, removing
	// their local directories.
	Cleanup(ctx context.Context) error
}

// StoragePath is the logical storage prefix of a hosted repository.
func StoragePath(owner, name string) string {
	return owner + "/" + name + ".git"
}

// checkName rejects owner/name pairs that would escape the repository root
// when joined into a filesystem path. Request routers decode percent
// escapes, so "." segments and separators arrive here verbatim.
func checkName(owner, name string) error {
	for _, s := range []string{owner, name} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("%w: %q/%q", ErrBadName, owner, name)
		}
	}
	return nil
}
