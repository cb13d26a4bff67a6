package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "tiebasign" {
			t.Errorf("expected use 'tiebasign', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil {
			t.Fatal("expected verbose flag")
		}
		if verbose.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", verbose.Shorthand)
		}
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Error("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"sign": false, "history": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected SilenceUsage and SilenceErrors")
		}
	})
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(environment{getenv: func(string) string { return "" }})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scan"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unexpected error: %v", err)
	}
}
