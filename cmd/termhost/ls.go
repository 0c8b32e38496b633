package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, "ls")
			defer logger.Sync()

			sessions := newManager(cmd, logger)
			defer sessions.Close()

			list, err := sessions.ListSessions()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPID\tSTATUS\tSIZE\tSTARTED")
			for _, info := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%dx%d\t%s\n",
					info.ID, info.Name, info.Pid, info.Status, info.Cols, info.Rows, info.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	return cmd
}
