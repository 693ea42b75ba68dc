package main

import (
	"testing"
)

// TestNewVPNCmd tests the vpn command creation.
func TestNewVPNCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVPNCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "vpn <config-file>" {
			t.Errorf("expected use 'vpn <config-file>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has interface flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("interface")
		if flag == nil {
			t.Fatal("expected interface flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("requires a config file argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewVPNCmd()
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error when no config file is given")
		}
	})
}
