package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franknobox/agentland-go/internal/authmgr"
	"github.com/franknobox/agentland-go/internal/config"
	"github.com/franknobox/agentland-go/internal/deviceauth"
	"github.com/franknobox/agentland-go/internal/storage"
	"github.com/franknobox/agentland-go/pkg/logging"
	"github.com/franknobox/agentland-go/pkg/oauth"
)

// Sentinels used to map command failures to exit codes.
var (
	errAuthRequired = errors.New("authentication required")
	errAuthFailed   = errors.New("authentication failed")
)

// Auth-wide flags
var (
	authEndpoint   string
	authConfigPath string
	authQuiet      bool
)

// authCmd represents the auth command group.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for agentland",
	Long: `Manage authentication for the Agentland platform.

The auth command group provides subcommands to login, logout, check status,
and refresh the stored credential.

Examples:
  agentland auth login                 # Login via the device-authorization flow
  agentland auth status                # Show authentication status
  agentland auth refresh               # Force token refresh
  agentland auth logout                # Clear stored tokens`,
}

func init() {
	authCmd.PersistentFlags().StringVar(&authEndpoint, "endpoint", "", "Authorization server endpoint (overrides config)")
	authCmd.PersistentFlags().StringVar(&authConfigPath, "config-path", "", "Configuration directory (default: ~/.config/agentland)")
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress informational output")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)

	rootCmd.AddCommand(authCmd)
}

// authStack bundles the wired auth components for a command invocation.
type authStack struct {
	cfg     config.Config
	client  *oauth.Client
	flow    *deviceauth.Orchestrator
	manager *authmgr.Manager
	tokens  *authmgr.TokenStore
}

// buildAuthStack loads configuration and wires the protocol client,
// orchestrator, token store, and lifecycle manager.
func buildAuthStack() (*authStack, error) {
	configPath := authConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if authEndpoint != "" {
		cfg.Endpoint = authEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fileStore, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential storage: %w", err)
	}

	client := oauth.NewClient(cfg.Endpoint, oauth.WithLogger(logging.Default()))

	flow := deviceauth.NewOrchestrator(client, cfg.TargetID,
		deviceauth.WithOpenURL(deviceauth.OpenBrowser),
		deviceauth.WithLogger(logging.Default()),
	)

	tokens := authmgr.NewTokenStore(fileStore)

	manager, err := authmgr.NewManager(client, flow, tokens, authmgr.ManagerConfig{
		TargetID:       cfg.TargetID,
		Scope:          cfg.Scope,
		DeveloperToken: cfg.DeveloperToken,
		VerifyRemote:   cfg.VerifyRemote,
		Logger:         logging.Default(),
	})
	if err != nil {
		return nil, err
	}

	return &authStack{
		cfg:     cfg,
		client:  client,
		flow:    flow,
		manager: manager,
		tokens:  tokens,
	}, nil
}

// authPrint prints unless quiet mode is enabled.
func authPrint(format string, args ...interface{}) {
	if !authQuiet {
		fmt.Printf(format, args...)
	}
}

// authPrintln prints a line unless quiet mode is enabled.
func authPrintln(line string) {
	if !authQuiet {
		fmt.Println(line)
	}
}
