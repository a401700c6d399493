// Package commands implements the kvfs cobra command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kvfs",
	Short: "Mount the networked filesystem over FUSE",
	Long: "kvfs mounts a kvfsd-backed filesystem at a local directory. Every\n" +
		"filesystem call is forwarded over the wire protocol to the daemon\n" +
		"named by --contents.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
