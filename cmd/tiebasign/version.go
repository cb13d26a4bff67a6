package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// shortCommitLen is the length of the abbreviated commit hash.
const shortCommitLen = 7

// buildInfo describes the running binary.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// readBuildInfo resolves each field from ldflags first, then from the
// module build information embedded by the Go toolchain.
func readBuildInfo() buildInfo {
	bi := buildInfo{Version: version, Commit: commit, Date: date}

	info, ok := debug.ReadBuildInfo()
	if ok {
		if bi.Version == "" && info.Main.Version != "" {
			bi.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
				if len(bi.Commit) > shortCommitLen {
					bi.Commit = bi.Commit[:shortCommitLen]
				}
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}

	if bi.Version == "" {
		bi.Version = "(devel)"
	}
	if bi.Commit == "" {
		bi.Commit = "unknown"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}

func getVersion() string { return readBuildInfo().Version }

func getCommit() string { return readBuildInfo().Commit }

func getDate() string { return readBuildInfo().Date }

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of tiebasign.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			bi := readBuildInfo()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, bi.Version)
				return nil
			}
			fmt.Fprintf(out, "tiebasign version %s\n", bi.Version)
			fmt.Fprintf(out, "  commit: %s\n", bi.Commit)
			fmt.Fprintf(out, "  built:  %s\n", bi.Date)
			return nil
		},
	}

	cmd.Flags().BoolP("short", "s", false, "Print only the version number")

	return cmd
}
