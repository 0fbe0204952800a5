// Package main provides the CLI entry point for loom, the conversation
// orchestration engine.
//
// # Basic Usage
//
// List the model catalog:
//
//	loom models
//	loom models --provider anthropic --capability function_calling
//
// Inspect stored conversations:
//
//	loom conversations list
//	loom conversations show <id>
//
// Validate a configuration file:
//
//	loom config validate --config loom.yaml
//
// # Environment Variables
//
//   - LOOM_CONFIG: Path to configuration file (default: loom.yaml)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"     // Semantic version (e.g., "v1.0.0")
	commit  = "none"    // Git commit SHA
	date    = "unknown" // Build timestamp
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// This is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loom",
		Short: "loom - conversation orchestration engine",
		Long: `loom orchestrates AI conversations for host applications: capability-aware
model selection, validated provider calls, tool execution, and usage
accounting over an immutable conversation log.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildModelsCmd(),
		buildConversationsCmd(),
		buildConfigCmd(),
	)
	return rootCmd
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("LOOM_CONFIG"); env != "" {
		return env
	}
	return "loom.yaml"
}
