package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/tiebasign/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "init" {
			t.Errorf("expected use 'init', got %q", cmd.Use)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != configFileName {
			t.Errorf("expected default %q, got %q", configFileName, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", config.DefaultConfigFile)
		out, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Created configuration file") {
			t.Errorf("unexpected output %q", out)
		}
		if !strings.Contains(out, config.EnvUsername) {
			t.Errorf("expected credential hint, got %q", out)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}

		file, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not load: %v", err)
		}
		cfg := config.NewConfig()
		if err := file.Apply(cfg); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if cfg.DetailFile != config.DefaultDetailFile || cfg.SummaryFile != config.DefaultSummaryFile {
			t.Errorf("unexpected output files %q %q", cfg.DetailFile, cfg.SummaryFile)
		}
		if !cfg.SaveToDB {
			t.Error("expected history to stay enabled")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
		if err := os.WriteFile(path, []byte("# mine\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := runInit(t, "-o", path)
		if err == nil {
			t.Fatal("expected error for existing file")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "# mine\n" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
		if err := os.WriteFile(path, []byte("# mine\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "tiebasign configuration") {
			t.Error("expected template content")
		}
	})
}
