// ABOUTME: Tests for sync commands
// ABOUTME: Verifies subcommand structure and the wipe confirmation guard

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestNewSyncCmd(t *testing.T) {
	cmd := NewSyncCmd()

	if cmd.Use != "sync" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sync")
	}

	if !strings.Contains(cmd.Long, "Charm") {
		t.Error("Long description should mention Charm")
	}
}

func findSubcommand(cmd *cobra.Command, use string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Use == use {
			return sub
		}
	}
	return nil
}

func TestSyncCmd_Subcommands(t *testing.T) {
	cmd := NewSyncCmd()

	for _, name := range []string{"status", "now", "wipe", "keys"} {
		t.Run(name, func(t *testing.T) {
			sub := findSubcommand(cmd, name)
			if sub == nil {
				t.Fatalf("Subcommand %q not found", name)
			}
			if sub.Short == "" {
				t.Error("Short description should not be empty")
			}
			if sub.RunE == nil {
				t.Error("RunE should be set")
			}
		})
	}
}

func TestSyncWipe_RequiresConfirm(t *testing.T) {
	cmd := NewSyncCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"wipe"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output.String(), "--confirm") {
		t.Errorf("wipe without --confirm should explain how to proceed, got %q", output.String())
	}

	wipe := findSubcommand(cmd, "wipe")
	if flag := wipe.Flags().Lookup("confirm"); flag == nil || flag.DefValue != "false" {
		t.Error("--confirm flag should exist and default to false")
	}
}
