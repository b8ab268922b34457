package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {
	t.Run("Put Get Round Trip", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		contents := "pack bytes"
		dgst, err := s.Put(t.Context(), "alice/web.git/objects/pack/pack-abc.pack", strings.NewReader(contents))
		require.NoError(t, err)
		assert.Equal(t, digest.FromString(contents), dgst)

		rc, err := s.Get(t.Context(), "alice/web.git/objects/pack/pack-abc.pack")
		require.NoError(t, err)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		assert.NoError(t, err)
		assert.Equal(t, contents, string(got))
	})

	t.Run("Get Missing", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		_, err = s.Get(t.Context(), "missing/key")
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("List By Prefix", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		for _, key := range []string{"alice/web.git/HEAD", "alice/web.git/refs/heads/main", "bob/cli.git/HEAD"} {
			_, err := s.Put(t.Context(), key, strings.NewReader(key))
			require.NoError(t, err)
		}

		keys, err := s.List(t.Context(), "alice/web.git")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice/web.git/HEAD", "alice/web.git/refs/heads/main"}, keys)

		keys, err = s.List(t.Context(), "carol")
		assert.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Move", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		_, err = s.Put(t.Context(), "tmp/incoming-1.pack", strings.NewReader("data"))
		require.NoError(t, err)

		err = s.Move(t.Context(), "tmp/incoming-1.pack", "alice/web.git/objects/pack/pack-abc.pack")
		require.NoError(t, err)

		_, err = s.Get(t.Context(), "tmp/incoming-1.pack")
		assert.ErrorIs(t, err, ErrNotExist)

		rc, err := s.Get(t.Context(), "alice/web.git/objects/pack/pack-abc.pack")
		require.NoError(t, err)
		rc.Close()
	})

	t.Run("Move Missing Source", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		err = s.Move(t.Context(), "nope", "elsewhere")
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("Delete", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		_, err = s.Put(t.Context(), "k", strings.NewReader("v"))
		require.NoError(t, err)

		assert.NoError(t, s.Delete(t.Context(), "k"))
		assert.NoError(t, s.Delete(t.Context(), "k")) // idempotent

		_, err = s.Get(t.Context(), "k")
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("Rejects Escaping Keys", func(t *testing.T) {
		s, err := NewFSStore(t.TempDir())
		require.NoError(t, err)

		_, err = s.Put(t.Context(), "../outside", strings.NewReader("v"))
		// cleaned to a key inside the root, never written outside it
		if err == nil {
			keys, listErr := s.List(t.Context(), "")
			require.NoError(t, listErr)
			assert.Contains(t, keys, "outside")
		}
	})
}

func TestTrimPrefix(t *testing.T) {
	assert.Equal(t, "objects/pack/p.pack", TrimPrefix("alice/web.git/objects/pack/p.pack", "alice/web.git"))
	assert.Equal(t, "v", TrimPrefix("v", ""))
}
