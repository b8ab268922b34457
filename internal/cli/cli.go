// Package cli defines CLI commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/act3-ai/forge/internal/actions"
	"github.com/act3-ai/go-common/pkg/config"
)

// NewCLI creates the base forge command.
func NewCLI(version string) *cobra.Command {
	// cmd represents the base command when called without any subcommands
	cmd := &cobra.Command{
		Use:          "forge",
		Short:        "Git transport core for self-hosted repositories.",
		Version:      version,
		SilenceUsage: true,
	}

	forge := actions.NewForge(version,
		config.EnvPathOr("FORGE_CONFIG", config.DefaultConfigSearchPath("forge", "config.yaml")))

	cmd.AddCommand(
		newServeCmd(forge),
		newConfigCmd(forge),
		newSSHExecCmd(forge),
	)

	return cmd
}
