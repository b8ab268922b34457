package repocache

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/act3-ai/forge/internal/mocks/storemock"
	"github.com/act3-ai/forge/internal/storage"
)

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "alice/widgets.git", StoragePath("alice", "widgets"))
}

func TestLocal_Acquire(t *testing.T) {
	root := t.TempDir()
	c := NewLocal(root)

	dir, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "alice", "widgets.git"), dir)

	// release and cleanup are no-ops for a local root
	require.NoError(t, c.Release(t.Context(), "alice", "widgets", true))
	require.NoError(t, c.Cleanup(t.Context()))
}

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func seedStore(t *testing.T, store storage.Store, prefix string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		_, err := store.Put(t.Context(), prefix+"/"+name, strings.NewReader(content))
		require.NoError(t, err)
	}
}

func TestRemote_AcquireRoundTrip(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedStore(t, store, "alice/widgets.git", map[string]string{
		"HEAD":                 "ref: refs/heads/main\n",
		"refs/heads/main":      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
		"objects/pack/p.pack":  "PACKDATA",
		"objects/pack/p.idx":   "IDXDATA",
		"objects/info/packs":   "P p.pack\n",
	})

	c := NewRemote(store, t.TempDir())

	dir, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	head, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(head))

	pack, err := os.ReadFile(filepath.Join(dir, "objects", "pack", "p.pack"))
	require.NoError(t, err)
	assert.Equal(t, "PACKDATA", string(pack))
}

func TestRemote_AcquireReusesWithinTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storemock.NewMockStore(ctrl)

	store.EXPECT().
		List(gomock.Any(), "alice/widgets.git").
		Return([]string{"alice/widgets.git/HEAD"}, nil).
		Times(1)
	store.EXPECT().
		Get(gomock.Any(), "alice/widgets.git/HEAD").
		Return(io.NopCloser(strings.NewReader("ref: refs/heads/main\n")), nil).
		Times(1)

	clock := &fakeClock{t: time.Now()}
	c := NewRemote(store, t.TempDir(), WithClock(clock.Now))

	first, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	// still warm, the mock would fail the test on a second download
	clock.Advance(DefaultTTL / 2)
	second, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRemote_AcquireRefreshesAfterTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storemock.NewMockStore(ctrl)

	store.EXPECT().
		List(gomock.Any(), "alice/widgets.git").
		Return([]string{"alice/widgets.git/HEAD"}, nil).
		Times(2)
	store.EXPECT().
		Get(gomock.Any(), "alice/widgets.git/HEAD").
		Return(io.NopCloser(strings.NewReader("ref: refs/heads/main\n")), nil).
		Times(2)

	clock := &fakeClock{t: time.Now()}
	c := NewRemote(store, t.TempDir(), WithClock(clock.Now))

	_, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	clock.Advance(DefaultTTL + time.Second)
	_, err = c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)
}

func TestRemote_AcquireRedownloadsMissingDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storemock.NewMockStore(ctrl)

	store.EXPECT().
		List(gomock.Any(), "alice/widgets.git").
		Return([]string{"alice/widgets.git/HEAD"}, nil).
		Times(2)
	store.EXPECT().
		Get(gomock.Any(), "alice/widgets.git/HEAD").
		Return(io.NopCloser(strings.NewReader("ref: refs/heads/main\n")), nil).
		Times(2)

	c := NewRemote(store, t.TempDir())

	dir, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	// simulate an external purge of the working tree
	require.NoError(t, os.RemoveAll(dir))

	_, err = c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)
}

func TestRemote_ReleaseUploadsModified(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedStore(t, store, "alice/widgets.git", map[string]string{
		"HEAD": "ref: refs/heads/main\n",
	})

	c := NewRemote(store, t.TempDir())

	dir, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	refDir := filepath.Join(dir, "refs", "heads")
	require.NoError(t, os.MkdirAll(refDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(refDir, "main"), []byte("bbbb\n"), 0o644))

	require.NoError(t, c.Release(t.Context(), "alice", "widgets", true))

	rc, err := store.Get(t.Context(), "alice/widgets.git/refs/heads/main")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bbbb\n", string(data))
}

func TestRemote_ReleaseUnmodifiedSkipsUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storemock.NewMockStore(ctrl)
	// no expectations, any store call fails the test

	c := NewRemote(store, t.TempDir())
	require.NoError(t, c.Release(t.Context(), "alice", "widgets", false))
}

func TestRemote_CleanupEvictsExpired(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedStore(t, store, "alice/widgets.git", map[string]string{
		"HEAD": "ref: refs/heads/main\n",
	})

	clock := &fakeClock{t: time.Now()}
	c := NewRemote(store, t.TempDir(), WithClock(clock.Now))

	dir, err := c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)

	// warm entries survive cleanup
	require.NoError(t, c.Cleanup(t.Context()))
	_, err = os.Stat(dir)
	require.NoError(t, err)

	clock.Advance(DefaultTTL + time.Second)
	require.NoError(t, c.Cleanup(t.Context()))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquire_RejectsBadNames(t *testing.T) {
	bad := [][2]string{
		{"..", "secret"},
		{"alice", ".."},
		{".", "widgets"},
		{"alice", "."},
		{"", "widgets"},
		{"alice", ""},
		{"a/b", "widgets"},
		{"alice", `wid\gets`},
	}

	t.Run("Local", func(t *testing.T) {
		c := NewLocal(t.TempDir())
		for _, pair := range bad {
			_, err := c.Acquire(t.Context(), pair[0], pair[1])
			assert.ErrorIs(t, err, ErrBadName, "%s/%s", pair[0], pair[1])
		}
	})

	t.Run("Remote", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := storemock.NewMockStore(ctrl)
		// no expectations, a rejected name must never touch the store

		c := NewRemote(store, t.TempDir())
		for _, pair := range bad {
			_, err := c.Acquire(t.Context(), pair[0], pair[1])
			assert.ErrorIs(t, err, ErrBadName, "%s/%s", pair[0], pair[1])
		}
	})
}

func TestRemote_ConcurrentAcquireCleanup(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedStore(t, store, "alice/widgets.git", map[string]string{
		"HEAD": "ref: refs/heads/main\n",
	})

	// every acquire is immediately stale, keeping eviction and re-download
	// in constant contention
	c := NewRemote(store, t.TempDir(), WithTTL(time.Nanosecond))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 25 {
				_, err := c.Acquire(t.Context(), "alice", "widgets")
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 25 {
				assert.NoError(t, c.Cleanup(t.Context()))
			}
		}()
	}
	wg.Wait()
}

func TestRemote_LockTablePruned(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedStore(t, store, "alice/widgets.git", map[string]string{
		"HEAD": "ref: refs/heads/main\n",
	})

	clock := &fakeClock{t: time.Now()}
	c := NewRemote(store, t.TempDir(), WithClock(clock.Now)).(*remoteCache)

	_, err = c.Acquire(t.Context(), "alice", "widgets")
	require.NoError(t, err)
	require.NoError(t, c.Release(t.Context(), "alice", "widgets", true))

	clock.Advance(DefaultTTL + time.Second)
	require.NoError(t, c.Cleanup(t.Context()))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.entries)
	assert.Empty(t, c.locks)
}
