// Package main provides the CLI entry point for the Workboard HR client.
//
// Workboard talks to an HR management backend: it authenticates, browses
// employees, departments and attendance, and keeps a realtime chat channel
// open to other signed-in staff.
//
// # Basic Usage
//
// Sign in and look around:
//
//	workboard login alice
//	workboard employees --search 张
//	workboard departments salary
//
// Open the realtime chat:
//
//	workboard chat
//
// # Environment Variables
//
//   - WORKBOARD_CONFIG: Path to configuration file (default: workboard.yaml)
//   - WORKBOARD_BASE_URL: Backend HTTP API root, overrides the config file
//   - WORKBOARD_WS_URL: Realtime channel endpoint, overrides the config file
//   - XDG_STATE_HOME: Where the session token and chat history are kept
package main

import (
	"log/slog"
	"os"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
