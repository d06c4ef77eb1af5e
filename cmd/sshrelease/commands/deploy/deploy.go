package deploy

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the deploy command. The root command sets RunE.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy [target]",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "release",
		Args:    cobra.MaximumNArgs(1),
	}

	cmd.Flags().String("tag", "", MsgFlagTag)
	cmd.Flags().Bool("dry-run", false, MsgFlagDryRun)
	cmd.Flags().BoolP("stream", "s", false, MsgFlagStream)

	return cmd
}
