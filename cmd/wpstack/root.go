// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for wpstack.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// noSpinner disables the progress spinner
	noSpinner bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "wpstack",
		Short: "Provision a WordPress development stack",
		Long: TitleStyle.Render("wpstack") + SubtitleStyle.Render(" - Provision a WordPress development stack") + `

wpstack turns a bare Linux host into a working WordPress development
environment: web server, database, PHP, WordPress itself, and
phpMyAdmin. Every step first checks whether its work is already done,
so re-running after a failure or a config change is always safe.

Defaults target Amazon Linux 2023 (httpd, mariadb, php-fpm); a small
CUE config file adapts it to other distributions.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'sudo wpstack up' on a fresh instance
  2. Enter a database password when prompted
  3. Open http://<host>/ and finish the WordPress installer

` + SubtitleStyle.Render("Examples:") + `
  sudo wpstack up           Provision the full stack
  wpstack up --dry-run      Show what would change, change nothing
  wpstack status            Report per-step provisioning state
  wpstack validate          Check the config and custom steps file
  wpstack config show       Show the effective configuration

Running wpstack with no subcommand is the same as 'wpstack up'.`,
		Args: cobra.NoArgs,
		RunE: runUp,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/wpstack/config.cue)")
	rootCmd.PersistentFlags().BoolVar(&noSpinner, "no-spinner", false, "disable the progress spinner")

	// Add subcommands
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Commands re-load below and fail properly; here it is only a warning
		// so that --help and friends still work with a broken config.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply UI settings from config where the flags were not given
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
	if cfg != nil && !noSpinner {
		noSpinner = cfg.UI.NoSpinner
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
