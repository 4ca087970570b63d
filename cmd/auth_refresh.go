package cmd

import (
	"github.com/spf13/cobra"
)

// authRefreshCmd represents the auth refresh command.
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh",
	Long: `Exchange the stored refresh token for a new access token.

If the server rejects the refresh grant as invalid or expired, the stored
tokens are cleared and a new login is required. Transient failures leave
the stored tokens untouched.`,
	RunE: runAuthRefresh,
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	stack, err := buildAuthStack()
	if err != nil {
		return err
	}

	rec, err := stack.tokens.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		authPrintln("Not authenticated. Run: agentland auth login")
		return errAuthRequired
	}
	if !rec.CanRefresh() {
		authPrintln("Stored credential has no refresh token; a new login is required.")
		return errAuthRequired
	}

	if !stack.manager.Refresh(cmd.Context()) {
		authPrintln("Refresh failed. Run 'agentland auth status' for details, or login again.")
		return errAuthFailed
	}

	authPrintln("Token refreshed.")
	return nil
}
