// Command kvfsd is the networked filesystem daemon: it accepts TCP
// connections per spec.md §4.3, persists metadata in three badger
// instances, and stores file contents as opaque host files.
package main

import (
	"fmt"
	"os"

	"github.com/kvfs/kvfs/cmd/kvfsd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
