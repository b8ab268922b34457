package repocache

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/act3-ai/go-common/pkg/logger"
	"github.com/sourcegraph/conc/pool"

	"github.com/act3-ai/forge/internal/storage"
)

// defaultConcurrency bounds parallel object transfers during a sync.
const defaultConcurrency = 8

// entry tracks one locally materialized repository. dir is immutable after
// insertion; lastUsed is guarded by the cache mutex.
type entry struct {
	dir      string
	lastUsed time.Time
}

// remoteCache materializes remote-backed repositories on local disk with a
// time-to-live.
type remoteCache struct {
	store       storage.Store
	workDir     string
	ttl         time.Duration
	now         func() time.Time
	concurrency int

	mu      sync.Mutex
	entries map[string]*entry
	// locks serializes cold acquisitions per storage path so concurrent
	// acquires of the same repository download once, not twice
	locks map[string]*refLock
}

// refLock is a per-storage-path mutex counting its holders and waiters so
// unused locks can be pruned from the table.
type refLock struct {
	sync.Mutex
	refs int
}

// Option configures a remote [Cache].
type Option func(*remoteCache)

// WithTTL overrides [DefaultTTL].
func WithTTL(ttl time.Duration) Option {
	return func(c *remoteCache) { c.ttl = ttl }
}

// WithClock injects the time source, tests substitute a fake.
func WithClock(now func() time.Time) Option {
	return func(c *remoteCache) { c.now = now }
}

// WithConcurrency bounds parallel object transfers.
func WithConcurrency(n int) Option {
	return func(c *remoteCache) { c.concurrency = n }
}

// NewRemote returns a [Cache] materializing repositories from store into
// workDir.
func NewRemote(store storage.Store, workDir string, opts ...Option) Cache {
	c := &remoteCache{
		store:       store,
		workDir:     workDir,
		ttl:         DefaultTTL,
		now:         time.Now,
		concurrency: defaultConcurrency,
		entries:     make(map[string]*entry),
		locks:       make(map[string]*refLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lockKey locks the per-storage-path mutex, creating it on first use.
func (c *remoteCache) lockKey(key string) *refLock {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &refLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return l
}

// unlockKey releases l and prunes it from the table once nobody holds or
// awaits it. A key's lock is only ever recreated after its refs hit zero,
// so two goroutines can never hold distinct locks for the same key.
func (c *remoteCache) unlockKey(key string, l *refLock) {
	l.Unlock()

	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()
}

// Acquire implements [Cache].
func (c *remoteCache) Acquire(ctx context.Context, owner, name string) (string, error) {
	if err := checkName(owner, name); err != nil {
		return "", err
	}
	key := StoragePath(owner, name)
	lock := c.lockKey(key)
	defer c.unlockKey(key, lock)

	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	var dir string
	fresh := ok && now.Sub(e.lastUsed) < c.ttl
	if fresh {
		e.lastUsed = now
		dir = e.dir
	}
	c.mu.Unlock()

	if fresh {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	dir = filepath.Join(c.workDir, owner, name+".git")
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("removing stale local copy: %w", err)
	}
	if err := c.download(ctx, key, dir); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = &entry{dir: dir, lastUsed: now}
	c.mu.Unlock()

	return dir, nil
}

// download materializes every object under the storage prefix into dir.
func (c *remoteCache) download(ctx context.Context, prefix, dir string) error {
	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("listing repository objects: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating local repository directory: %w", err)
	}

	p := pool.New().WithMaxGoroutines(c.concurrency).WithContext(ctx).WithCancelOnError()
	for _, key := range keys {
		p.Go(func(ctx context.Context) error {
			rel := storage.TrimPrefix(key, prefix)
			dst := filepath.Join(dir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return fmt.Errorf("creating directory for %q: %w", rel, err)
			}

			rc, err := c.store.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("downloading %q: %w", key, err)
			}
			defer rc.Close()

			f, err := os.Create(dst)
			if err != nil {
				return fmt.Errorf("creating %q: %w", dst, err)
			}
			defer f.Close()

			if _, err := io.Copy(f, rc); err != nil {
				return fmt.Errorf("writing %q: %w", dst, err)
			}
			return f.Close()
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("downloading repository %q: %w", prefix, err)
	}
	return nil
}

// Release implements [Cache]. Upload happens eagerly, never deferred, so a
// crash after Release loses nothing.
func (c *remoteCache) Release(ctx context.Context, owner, name string, modified bool) error {
	if !modified {
		return nil
	}

	key := StoragePath(owner, name)
	lock := c.lockKey(key)
	defer c.unlockKey(key, lock)

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("repository %s released without a cache entry", key)
	}

	return c.upload(ctx, key, e.dir)
}

// upload pushes every local file back under the storage prefix.
func (c *remoteCache) upload(ctx context.Context, prefix, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking local repository: %w", err)
	}

	p := pool.New().WithMaxGoroutines(c.concurrency).WithContext(ctx).WithCancelOnError()
	for _, file := range files {
		p.Go(func(ctx context.Context) error {
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %q: %w", file, err)
			}
			defer f.Close()

			if _, err := c.store.Put(ctx, prefix+"/"+filepath.ToSlash(rel), f); err != nil {
				return fmt.Errorf("uploading %q: %w", rel, err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("uploading repository %q: %w", prefix, err)
	}
	return nil
}

// Cleanup implements [Cache].
func (c *remoteCache) Cleanup(ctx context.Context) error {
	now := c.now()
	log := logger.FromContext(ctx)

	c.mu.Lock()
	var stale []string
	for key, e := range c.entries {
		if now.Sub(e.lastUsed) >= c.ttl {
			stale = append(stale, key)
		}
	}
	c.mu.Unlock()

	for _, key := range stale {
		lock := c.lockKey(key)

		c.mu.Lock()
		e, ok := c.entries[key]
		// re-check under the key lock, the entry may have been refreshed
		if ok && now.Sub(e.lastUsed) >= c.ttl {
			delete(c.entries, key)
		} else {
			ok = false
		}
		c.mu.Unlock()

		if ok {
			if err := os.RemoveAll(e.dir); err != nil {
				log.ErrorContext(ctx, "evicting cached repository", slog.String("path", key), slog.String("error", err.Error()))
			} else {
				log.DebugContext(ctx, "evicted cached repository", slog.String("path", key))
			}
		}

		c.unlockKey(key, lock)
	}

	return nil
}
