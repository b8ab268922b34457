package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/act3-ai/forge/internal/actions"
)

// newSSHExecCmd creates the ssh-exec command, invoked once per SSH session by
// the front end (e.g. as a forced command).
func newSSHExecCmd(forge *actions.Forge) *cobra.Command {
	action := actions.NewSSHExec(forge)

	cmd := &cobra.Command{
		Use:   "ssh-exec [EXEC_LINE]",
		Short: "Serve one SSH session's git service on stdin/stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action.ExecLine = os.Getenv("SSH_ORIGINAL_COMMAND")
			if len(args) > 0 {
				action.ExecLine = args[0]
			}
			return action.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&action.UserID, "user", "", "authenticated user id supplied by the SSH front end")

	return cmd
}
