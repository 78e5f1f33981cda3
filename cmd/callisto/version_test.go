package main

import (
	"testing"
)

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}

	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}

	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestRunCommandFlags(t *testing.T) {
	if runCmd == nil {
		t.Fatal("runCmd is nil")
	}

	for _, name := range []string{"listen", "log-level", "dry-run"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("runCmd missing flag %q", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("rootCmd missing persistent flag config")
	}
}
