package cli

import (
	"github.com/spf13/cobra"

	"github.com/act3-ai/forge/internal/actions"
)

// newServeCmd creates the serve command.
func newServeCmd(forge *actions.Forge) *cobra.Command {
	action := actions.NewServe(forge)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repositories over the smart-HTTP protocol.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return action.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&action.Listen, "listen", "", "listen address, overrides the configured one")

	return cmd
}
