package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/franknobox/agentland-go/internal/deviceauth"
	"github.com/franknobox/agentland-go/pkg/logging"
)

// Exit codes for CLI commands. These follow common conventions so the
// binary can be scripted.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the authentication flow failed.
	ExitCodeAuthFailed = 3
)

var rootLogLevel string

// rootCmd represents the base command for the agentland CLI.
var rootCmd = &cobra.Command{
	Use:   "agentland",
	Short: "Authenticate to the Agentland platform",
	Long: `agentland manages credentials for the Agentland game AI platform.

It implements the device-authorization login flow, token refresh, and
credential storage used by SDK hosts and tooling.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logging.ParseLevel(rootLogLevel), os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "agentland version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	switch {
	case errors.Is(err, errAuthRequired):
		return ExitCodeAuthRequired
	case errors.Is(err, errAuthFailed),
		errors.Is(err, deviceauth.ErrSessionExpired),
		errors.Is(err, deviceauth.ErrTooManyPollFailures):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}
