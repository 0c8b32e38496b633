// Command termhost runs the terminal-sharing server and its companion
// client commands, grounded on the teacher's own daemon/CLI split and, for
// the cobra command tree's shape, on dodorz-tuios/cmd/tuios's subcommand
// layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := &cobra.Command{
		Use:     "termhost",
		Short:   "Share and attach to terminal sessions over HTTP",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Long: `termhost hosts PTY-backed terminal sessions behind a small HTTP/websocket
server, and lets other processes attach to them as if they'd opened the
terminal themselves.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("control-path", "", "session control directory (default: ~/.termhost)")

	root.AddCommand(
		newServeCommand(),
		newNewCommand(),
		newLsCommand(),
		newAttachCommand(),
		newKillCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
