// Package v1alpha1 defines the v1alpha1 schema.
//
// +kubebuilder:object:generate=true
package v1alpha1

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Storage backend selectors.
const (
	// StorageLocal keeps repository data on local disk only.
	StorageLocal = "local"
	// StorageHTTP syncs repository data with a remote blob service.
	StorageHTTP = "http"
)

// +kubebuilder:object:root=true

// Configuration type is used to store the server's configuration settings.
type Configuration struct {
	metav1.TypeMeta `json:",inline"`

	ConfigurationSpec `json:",inline"`
}

// ConfigurationSpec is the actual configuration values.
type ConfigurationSpec struct {
	// Listen is the HTTP listen address.
	Listen string `json:"listen,omitempty"`

	// RepositoryRoot is the local directory holding hosted repositories,
	// the working copies when a remote backend is configured.
	RepositoryRoot string `json:"repositoryRoot,omitempty"`

	// TempDir holds scratch state such as rewrite worktrees.
	TempDir string `json:"tempDir,omitempty"`

	// CacheTTL is how long a locally materialized repository is trusted
	// before it is re-synced from the storage backend.
	CacheTTL metav1.Duration `json:"cacheTTL,omitempty"`

	// Storage selects and configures the object-storage backend.
	Storage StorageConfig `json:"storage,omitempty"`
}

// StorageConfig selects the durable object-storage backend.
type StorageConfig struct {
	// Backend is "local" or "http".
	Backend string `json:"backend,omitempty"`

	// Endpoint is the blob service base URL, http backend only.
	Endpoint string `json:"endpoint,omitempty"`
}

// ConfigurationDefault defaults the fields in Configuration.
func ConfigurationDefault(obj *Configuration) {
	if obj == nil {
		obj = &Configuration{}
	}

	// Default the TypeMeta
	obj.APIVersion = GroupVersion.String()
	obj.Kind = "Configuration"

	if obj.Listen == "" {
		obj.Listen = ":8080"
	}
	if obj.RepositoryRoot == "" {
		obj.RepositoryRoot = filepath.Join(xdg.DataHome, "forge", "repositories")
	}
	if obj.CacheTTL.Duration <= 0 {
		obj.CacheTTL = metav1.Duration{Duration: 5 * time.Minute}
	}
	if obj.Storage.Backend == "" {
		obj.Storage.Backend = StorageLocal
	}
}
