package cmd

import (
	"github.com/spf13/cobra"
)

// authLogoutCmd represents the auth logout command.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored authentication tokens",
	Long: `Clear the stored credential.

This command removes the cached access and refresh tokens, requiring a
new login on the next authentication. A configured developer token is
not affected.`,
	RunE: runAuthLogout,
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	stack, err := buildAuthStack()
	if err != nil {
		return err
	}

	if err := stack.manager.Logout(); err != nil {
		return err
	}

	authPrintln("Logged out.")
	return nil
}
