// Package commands implements the kvfsd cobra command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kvfsd",
	Short: "Networked filesystem metadata and content daemon",
	Long: "kvfsd accepts TCP connections from kvfs clients and serves file and\n" +
		"directory metadata out of badger-backed key-value stores, storing file\n" +
		"contents as opaque files on the host filesystem.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(startCmd)
}
