package repocache

import (
	"context"
	"path/filepath"
)

// localCache serves repositories straight from local disk. Acquire is a pure
// path join, no I/O.
type localCache struct {
	root string
}

// NewLocal returns a [Cache] for a local-disk backend rooted at root.
func NewLocal(root string) Cache {
	return &localCache{root: root}
}

// Acquire implements [Cache].
func (c *localCache) Acquire(_ context.Context, owner, name string) (string, error) {
	if err := checkName(owner, name); err != nil {
		return "", err
	}
	return filepath.Join(c.root, owner, name+".git"), nil
}

// Release implements [Cache]. The data already lives at its home, nothing to
// sync.
func (c *localCache) Release(_ context.Context, _, _ string, _ bool) error {
	return nil
}

// Cleanup implements [Cache].
func (c *localCache) Cleanup(_ context.Context) error {
	return nil
}
