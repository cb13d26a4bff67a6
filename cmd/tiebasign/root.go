package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/tiebasign/internal/log"
	"github.com/spf13/cobra"
)

// environment is the process state the commands read. Tests replace it to
// run commands in parallel without touching os.Environ.
type environment struct {
	getenv func(string) string
}

func osEnvironment() environment {
	return environment{getenv: os.Getenv}
}

// NewRootCmd creates the root command for tiebasign.
func NewRootCmd() *cobra.Command {
	return newRootCmd(osEnvironment())
}

func newRootCmd(env environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiebasign",
		Short: "Daily check-in for every followed Baidu Tieba forum",
		Long: `tiebasign performs the daily check-in on every Baidu Tieba forum the
account follows.

Credentials are read from the TIEBA_USERNAME and TIEBA_PASSWORD environment
variables (or a .env file) and never from flags or the configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(newSignCmd(env))
	cmd.AddCommand(newHistoryCmd(env))
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a flag from the command or the root's persistent set.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the secure logger for a command.
func setupLogger(w io.Writer, verbose, jsonOutput bool) *slog.Logger {
	return log.NewLogger(w, log.Options{Verbose: verbose, JSON: jsonOutput})
}
