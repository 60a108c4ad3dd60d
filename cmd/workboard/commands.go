// commands.go contains the root command and shared flag wiring. Each
// subcommand lives in its own commands_*.go file next to its handler.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debugMode  bool
)

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "workboard",
		Short: "Workboard - HR dashboard client",
		Long: `Workboard is the command-line client for the HR management backend.

It covers authentication, employee and department lookups, attendance
records, spreadsheet import/export, and a realtime chat channel with
presence tracking.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(),
		"Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false,
		"Enable debug logging (verbose output)")

	rootCmd.AddCommand(
		buildLoginCmd(),
		buildRegisterCmd(),
		buildLogoutCmd(),
		buildWhoamiCmd(),
		buildEmployeesCmd(),
		buildDepartmentsCmd(),
		buildAttendanceCmd(),
		buildExportCmd(),
		buildImportCmd(),
		buildChatCmd(),
		buildStatusCmd(),
	)

	return rootCmd
}

func defaultConfigPath() string {
	if path := os.Getenv("WORKBOARD_CONFIG"); path != "" {
		return path
	}
	return "workboard.yaml"
}
