package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill <session>",
		Short: "Terminate and remove a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, "kill")
			defer logger.Sync()

			sessions := newManager(cmd, logger)
			defer sessions.Close()

			sess, err := sessions.FindSession(args[0])
			if err != nil {
				return err
			}
			if err := sessions.RemoveSession(sess.ID); err != nil {
				return fmt.Errorf("remove session: %w", err)
			}
			return nil
		},
	}
	return cmd
}
