package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/tiebasign/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/tiebasign.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a tiebasign configuration file",
		Long: `Init writes an annotated .tiebasign configuration file.

The file documents every option: request settings, output files, run
history and e-mail notification. Credentials are not part of it; they
always come from the environment.

Examples:
  # Create .tiebasign in the current directory
  tiebasign init

  # Create the file at a specific path
  tiebasign init -o ~/.config/tiebasign/.tiebasign

  # Overwrite an existing file
  tiebasign init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/tiebasign.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nSet the credentials in the environment before running 'tiebasign sign':")
	fmt.Fprintf(out, "  export %s=<account>\n", config.EnvUsername)
	fmt.Fprintf(out, "  export %s=<password>\n", config.EnvPassword)

	return nil
}
