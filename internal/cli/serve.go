package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/webhook"
)

// NewServeCmd creates the serve command: the long-running webhook receiver.
func NewServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook ingestion server",
		Long: `Serve listens for signed event deliveries from the indexer and feeds
each batch through metadata normalization, the state upserter and the
approval ledger.`,
		Example: `  # Serve on the configured address
  govsync serve

  # Override the listen address
  govsync serve --listen :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.WebhookSecret == "" {
				return fmt.Errorf("GOVSYNC_WEBHOOK_SECRET is required for serve")
			}

			addr := listenAddr
			if addr == "" {
				addr = app.Config.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := webhook.NewServer(app.Config.WebhookSecret, app.Ingester, app.Alerter, app.Log)
			return server.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides GOVSYNC_LISTEN_ADDR)")
	return cmd
}
