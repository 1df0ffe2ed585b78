package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/app"
	"github.com/govsync-org/govsync/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const appKey contextKey = "app"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "govsync",
		Short: "Governance proposal reconciliation engine",
		Long: `Govsync reconciles on-chain governance proposals with their repository
metadata documents and maintains the derived proposal, vote and approval
tables that serve the governance dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				cfg.JSON = true
			}

			appInstance, err := app.InitApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appInstance, err := getApp(cmd); err == nil {
				return appInstance.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Log in JSON format")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "batch",
		Title: "Batch Commands",
	})

	serveCmd := NewServeCmd()
	serveCmd.GroupID = "main"
	rootCmd.AddCommand(serveCmd)

	listCmd := NewListCmd()
	listCmd.GroupID = "main"
	rootCmd.AddCommand(listCmd)

	reconcileCmd := NewReconcileCmd()
	reconcileCmd.GroupID = "main"
	rootCmd.AddCommand(reconcileCmd)

	backfillCmd := NewBackfillCmd()
	backfillCmd.GroupID = "batch"
	rootCmd.AddCommand(backfillCmd)

	approvalsCmd := NewApprovalsCmd()
	approvalsCmd.GroupID = "batch"
	rootCmd.AddCommand(approvalsCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}
	return a, nil
}
