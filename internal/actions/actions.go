// Package actions holds the actions called by the forge commands.
package actions

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/act3-ai/forge/pkg/apis"
	"github.com/act3-ai/forge/pkg/apis/forge.act3-ai.io/v1alpha1"
	"github.com/act3-ai/go-common/pkg/config"
)

// Forge is the base action.
type Forge struct {
	version   string
	apiScheme *runtime.Scheme

	// ConfigFiles contains a list of potential configuration file locations.
	ConfigFiles []string
}

// NewForge creates a new base action with default values.
func NewForge(version string, cfgFiles []string) *Forge {
	return &Forge{
		version:     version,
		apiScheme:   apis.NewScheme(),
		ConfigFiles: cfgFiles,
	}
}

// Version returns the binary version the action was built with.
func (action *Forge) Version() string {
	return action.version
}

// GetScheme returns the runtime scheme used for configuration file loading.
func (action *Forge) GetScheme() *runtime.Scheme {
	return action.apiScheme
}

// GetConfig loads Configuration using the current forge options.
func (action *Forge) GetConfig(ctx context.Context) (c *v1alpha1.Configuration, err error) {
	c = &v1alpha1.Configuration{}

	slog.DebugContext(ctx, "searching for configuration files", slog.Any("cfgFiles", action.ConfigFiles))

	err = config.Load(slog.Default(), action.GetScheme(), c, action.ConfigFiles)
	if err != nil {
		return c, fmt.Errorf("loading configuration: %w", err)
	}

	defer slog.DebugContext(ctx, "using config", slog.Any("configuration", c))

	return c, nil
}
