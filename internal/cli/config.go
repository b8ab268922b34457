package cli

import (
	"github.com/spf13/cobra"

	"github.com/act3-ai/forge/internal/actions"
)

// newConfigCmd creates the config command.
func newConfigCmd(forge *actions.Forge) *cobra.Command {
	action := actions.NewConfig(forge)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the server configuration as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return action.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&action.Sample, "sample", false, "print a defaulted sample configuration instead of the effective one")

	return cmd
}
