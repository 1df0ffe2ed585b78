package cli

import (
	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/cli/render"
	"github.com/govsync-org/govsync/internal/domain"
)

// NewReconcileCmd creates the reconcile command: an on-demand merged view of
// live chain state against the metadata repository.
func NewReconcileCmd() *cobra.Command {
	var (
		noColor bool
		block   uint64
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Show the live merged view of chain state and repository metadata",
		Long: `Reconcile reads the governance queue and dequeue live, fetches the
repository documents, and merges both sides into one canonical record per
proposal. Nothing is written; this is the read-only diagnostic view.`,
		Example: `  # Merge live state against the repository
  govsync reconcile

  # Merge state as of a past block
  govsync reconcile --block 30500000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var at *uint64
			if block != 0 {
				at = &block
			}
			proposals, err := app.Collector.Run(ctx, at)
			if err != nil {
				return err
			}

			normalized, err := app.Metadata.Run(ctx, nil, false)
			if err != nil {
				return err
			}

			// Executed proposals are pruned from chain state; the stored rows
			// are the only record of which ids actually executed.
			executedIDs := make(map[uint64]bool)
			stored, err := app.Listing.Run(ctx, app.Chain.ChainID())
			if err != nil {
				return err
			}
			for _, listing := range stored {
				if listing.Proposal.Stage == domain.StageExecuted.String() {
					executedIDs[listing.Proposal.ProposalID] = true
				}
			}

			merged := app.Reconcile.Merge(proposals, normalized.Records, executedIDs)

			renderer := render.NewMergedRenderer(cmd.OutOrStdout(), !noColor)
			return renderer.RenderMerged(merged)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().Uint64Var(&block, "block", 0, "Read chain state as of this block (defaults to latest)")
	return cmd
}
