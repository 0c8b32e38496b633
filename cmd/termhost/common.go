package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vtcore/termhost/internal/config"
	"github.com/vtcore/termhost/internal/logging"
	"github.com/vtcore/termhost/pkg/session"
)

func controlPathFlag(cmd *cobra.Command) string {
	cp, _ := cmd.Flags().GetString("control-path")
	if cp != "" {
		return cp
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".termhost"
	}
	return filepath.Join(home, ".termhost")
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

func newLogger(cmd *cobra.Command, component string) *zap.Logger {
	return logging.New(component, debugFlag(cmd))
}

func newManager(cmd *cobra.Command, logger *zap.Logger) *session.Manager {
	return session.NewManager(controlPathFlag(cmd), logger)
}

func sessionConfigFromDefaults(cfg *config.Config, name string, command []string) session.Config {
	if len(command) == 0 {
		command = cfg.Command
	}
	return session.Config{
		Name:           name,
		Command:        command,
		Cols:           cfg.Cols,
		Rows:           cfg.Rows,
		MaxHistoryRows: cfg.MaxHistoryRows,
		BoldIsBright:   cfg.BoldIsBright,
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
