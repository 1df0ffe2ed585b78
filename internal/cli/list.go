package cli

import (
	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/cli/render"
)

// NewListCmd creates the list command over the persisted proposal table.
func NewListCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored proposals with vote totals",
		Long: `List the persisted proposals for the configured chain, joined with
their vote totals and resubmission history. Active proposals sort first,
then by id descending.`,
		Example: `  # List all stored proposals
  govsync list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			listings, err := app.Listing.Run(cmd.Context(), app.Chain.ChainID())
			if err != nil {
				return err
			}

			renderer := render.NewProposalsRenderer(cmd.OutOrStdout(), !noColor)
			return renderer.RenderListings(listings)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
