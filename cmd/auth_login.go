package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/franknobox/agentland-go/internal/deviceauth"
)

// authLoginCmd represents the auth login command.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate to the Agentland platform",
	Long: `Authenticate using the device-authorization flow.

This command opens the authorization page in your browser and waits for
you to approve the request. The granted credential is stored in the
local credential store for SDK hosts and other commands to use.

Examples:
  agentland auth login                 # Login with the configured endpoint
  agentland auth login --endpoint <url>`,
	RunE: runAuthLogin,
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	stack, err := buildAuthStack()
	if err != nil {
		return err
	}

	if stack.cfg.DeveloperToken != "" {
		authPrintln("A developer token is configured; no login is needed.")
		return nil
	}

	var s *spinner.Spinner
	if !authQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Starting authorization..."
		s.Start()
		defer s.Stop()
	}

	unsubscribe := stack.flow.Subscribe(func(event deviceauth.StateEvent) {
		if s == nil {
			return
		}
		switch event.State {
		case deviceauth.StateInitiating:
			s.Suffix = " Contacting authorization server..."
		case deviceauth.StateWaitingForUserApproval:
			s.Suffix = " Opening browser..."
		case deviceauth.StatePolling:
			s.Suffix = " Waiting for approval in your browser..."
		}
	})
	defer unsubscribe()

	token, err := stack.flow.StartAuthFlow(cmd.Context(), stack.cfg.Scope)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := stack.tokens.Save(tokenRecordFrom(token)); err != nil {
		return fmt.Errorf("login succeeded but storing the credential failed: %w", err)
	}

	authPrintln("Login successful.")
	if !token.ExpiresAt.IsZero() {
		authPrint("Token expires at %s.\n", token.ExpiresAt.Format(time.RFC1123))
	}
	return nil
}
