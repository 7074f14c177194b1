// Package main provides tests for the movierank CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/movierank/internal/cli"
	"github.com/leapstack-labs/movierank/internal/cli/config"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return filepath.Join(wd, "..", "..", "testdata")
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "movierank") {
		t.Errorf("version output should contain 'movierank', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"run", "fetch", "clean", "imdb", "init"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()
	t.Setenv("MOVIERANK_HISTORY__PATH", filepath.Join(t.TempDir(), "history.db"))

	td := filepath.Join(testdataDir(t), "movies")
	out := filepath.Join(t.TempDir(), "ranking.csv")

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"run",
		"--output", "markdown",
		"--popularity", filepath.Join(td, "tmdb_popularity.csv"),
		"--revenue", filepath.Join(td, "tmdb_revenue.csv"),
		"--ratings", filepath.Join(td, "imdb_ratings.csv"),
		"--out", out,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Movie Performance Ranking") {
		t.Errorf("run output should contain the ranking header, got: %s", output)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("ranking file not written: %v", err)
	}
}

func TestRunCommandMissingInput(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()
	t.Setenv("MOVIERANK_HISTORY__ENABLED", "false")

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"run",
		"--popularity", filepath.Join(t.TempDir(), "nope.csv"),
	})

	if err := cmd.Execute(); err == nil {
		t.Error("run with a missing input should fail")
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"nonexistent"})

	if err := cmd.Execute(); err == nil {
		t.Error("unknown command should return an error")
	}
}
