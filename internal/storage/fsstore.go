package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

// FSStore is a [Store] rooted at a local directory. Keys map to file paths
// under the root.
type FSStore struct {
	root string
}

// NewFSStore returns an [FSStore] rooted at root, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// keyPath maps a slash-separated key to a path under the store root,
// rejecting keys that would escape it.
func (s *FSStore) keyPath(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// List implements [Store]. An empty prefix lists the whole store.
func (s *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	dir := s.root
	if prefix != "" {
		var err error
		dir, err = s.keyPath(prefix)
		if err != nil {
			return nil, err
		}
	}

	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing objects under %q: %w", prefix, err)
	}

	return keys, nil
}

// Get implements [Store].
func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("opening object %q: %w", key, err)
	}
	return f, nil
}

// Put implements [Store]. The object is staged to a temporary file and
// renamed into place so readers never observe a partial write.
func (s *FSStore) Put(_ context.Context, key string, r io.Reader) (digest.Digest, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return "", fmt.Errorf("staging object %q: %w", key, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	digester := digest.Canonical.Digester()
	if _, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), r); err != nil {
		return "", fmt.Errorf("writing object %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing staged object %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("publishing object %q: %w", key, err)
	}

	return digester.Digest(), nil
}

// Move implements [Store].
func (s *FSStore) Move(_ context.Context, from, to string) error {
	src, err := s.keyPath(from)
	if err != nil {
		return err
	}
	dst, err := s.keyPath(to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	err = os.Rename(src, dst)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotExist, from)
	}
	if err != nil {
		return fmt.Errorf("moving object %q to %q: %w", from, to, err)
	}
	return nil
}

// Delete implements [Store].
func (s *FSStore) Delete(_ context.Context, key string) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	return nil
}

// TrimPrefix strips prefix and any leading separator from key, used by
// callers translating listed keys into relative paths.
func TrimPrefix(key, prefix string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}
