package actions

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/act3-ai/forge/internal/storage"
	"github.com/act3-ai/forge/pkg/apis/forge.act3-ai.io/v1alpha1"
)

func Test_buildStorage(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		cfg := &v1alpha1.Configuration{
			ConfigurationSpec: v1alpha1.ConfigurationSpec{
				RepositoryRoot: t.TempDir(),
				Storage:        v1alpha1.StorageConfig{Backend: v1alpha1.StorageLocal},
			},
		}

		store, cache, err := buildStorage(cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.FSStore{}, store)
		assert.NotNil(t, cache)
	})

	t.Run("HTTP", func(t *testing.T) {
		cfg := &v1alpha1.Configuration{
			ConfigurationSpec: v1alpha1.ConfigurationSpec{
				RepositoryRoot: t.TempDir(),
				CacheTTL:       metav1.Duration{Duration: time.Minute},
				Storage: v1alpha1.StorageConfig{
					Backend:  v1alpha1.StorageHTTP,
					Endpoint: "http://127.0.0.1:7000",
				},
			},
		}

		store, cache, err := buildStorage(cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.HTTPStore{}, store)
		assert.NotNil(t, cache)
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := &v1alpha1.Configuration{
			ConfigurationSpec: v1alpha1.ConfigurationSpec{
				Storage: v1alpha1.StorageConfig{Backend: "s3"},
			},
		}

		_, _, err := buildStorage(cfg)
		assert.ErrorContains(t, err, "unknown storage backend")
	})
}

func TestConfig_Sample(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		action := NewConfig(NewForge("test", nil))
		action.Sample = true

		var buf bytes.Buffer
		err := action.Run(t.Context(), &buf)
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "apiVersion: forge.act3-ai.io/v1alpha1")
		assert.Contains(t, out, "kind: Configuration")
		assert.Contains(t, out, "backend: local")
		assert.Contains(t, out, "# forge sample configuration")
	})
}
