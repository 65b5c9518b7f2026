// Configlib inspects and edits configlib configurations from the command
// line.
//
// Every command takes the name of a configuration. The backing file is
// resolved exactly like the library does it (CONFIGLIB_<NAME>, CONFIGLIB_PATH
// or the per-user default directory), see 'configlib path <name>'.
//
// Usage:
//
//	configlib [command] [flags]
//
// See 'configlib --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/gopasspw/configlib/internal/logging"
	"github.com/gopasspw/configlib/internal/version"
)

func main() {
	rootCmd := newRootCmd(version.Get(), runEditor)

	err := rootCmd.Execute()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
