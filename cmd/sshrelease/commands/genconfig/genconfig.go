package genconfig

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the gen-config command. The root command sets RunE.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gen-config",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "config",
		Args:    cobra.NoArgs,
	}

	cmd.Flags().BoolP("write", "w", false, "Write config to ./sshrelease.toml instead of stdout")

	return cmd
}
