package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vtcore/termhost/internal/config"
)

func newNewCommand() *cobra.Command {
	var name string
	var cols, rows int
	var foreground bool

	cmd := &cobra.Command{
		Use:   "new [-- command [args...]]",
		Short: "Start a new session",
		Long: `Start a new session and print its ID.

This process hosts the session's PTY for as long as it runs. Other
termhost processes (another "termhost attach", or a "termhost serve" on the
same control path) see the session only as its on-disk record: they can
list it, but attach, input and resize need the live PTY, which only this
process holds. Pass --foreground to block here until the child exits
instead of returning immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, "new")
			defer logger.Sync()

			cfg := config.Default()
			if cols > 0 {
				cfg.Cols = cols
			}
			if rows > 0 {
				cfg.Rows = rows
			}

			sessions := newManager(cmd, logger)
			defer sessions.Close()

			sessCfg := sessionConfigFromDefaults(cfg, name, args)
			sess, err := sessions.CreateSession(sessCfg)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			fmt.Println(sess.ID)
			if foreground && sess.Emulator() != nil {
				<-sess.Emulator().Done()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human-readable session name")
	cmd.Flags().IntVar(&cols, "cols", 0, "terminal width (default: from config)")
	cmd.Flags().IntVar(&rows, "rows", 0, "terminal height (default: from config)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "block until the session's command exits")
	return cmd
}
