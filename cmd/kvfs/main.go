// Command kvfs mounts the networked filesystem over FUSE: it forwards
// every filesystem call through the client façade to a kvfsd daemon.
package main

import (
	"fmt"
	"os"

	"github.com/kvfs/kvfs/cmd/kvfs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
