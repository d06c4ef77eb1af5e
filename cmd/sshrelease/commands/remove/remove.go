package remove

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the remove command. The root command sets RunE.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove [target]",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "release",
		Args:    cobra.MaximumNArgs(1),
	}

	cmd.Flags().Bool("dry-run", false, MsgFlagDryRun)
	cmd.Flags().BoolP("yes", "y", false, MsgFlagYes)

	return cmd
}
