package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// authStatusCmd represents the auth status command.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the current authentication status.

This command displays the configured endpoint, whether a credential is
stored, when it expires, and whether it can be refreshed.`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	stack, err := buildAuthStack()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendRow(table.Row{"Endpoint", stack.cfg.Endpoint})
	t.AppendRow(table.Row{"Target ID", stack.cfg.TargetID})

	if stack.cfg.DeveloperToken != "" {
		t.AppendRow(table.Row{"Status", text.FgGreen.Sprint("Developer token configured")})
		t.Render()
		return nil
	}

	rec, err := stack.tokens.Load()
	if err != nil {
		return err
	}

	if rec == nil {
		t.AppendRow(table.Row{"Status", text.FgYellow.Sprint("Not authenticated")})
		t.Render()
		authPrintln("\nRun: agentland auth login")
		return errAuthRequired
	}

	t.AppendRow(table.Row{"Status", text.FgGreen.Sprint("Authenticated")})
	t.AppendRow(table.Row{"Expires", formatExpiry(rec.ExpiresAt)})
	refreshable := "no"
	if rec.CanRefresh() {
		refreshable = "yes"
	}
	t.AppendRow(table.Row{"Refreshable", refreshable})
	t.Render()

	return nil
}
