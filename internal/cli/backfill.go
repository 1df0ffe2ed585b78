package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/usecase"
)

// NewBackfillCmd creates the backfill command.
func NewBackfillCmd() *cobra.Command {
	var (
		fromBlock uint64
		toBlock   uint64
		window    time.Duration
		include   []uint
		exclude   []uint
		replay    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild proposal state from the raw event history",
		Long: `Backfill scans a block window for proposals touched by lifecycle events
and pushes each through the state upserter. Runs are idempotent; a crashed
run can simply be restarted.`,
		Example: `  # Backfill the default trailing window
  govsync backfill

  # Backfill a specific block range, replacing milestones
  govsync backfill --from 30000000 --to 31000000 --replay

  # Backfill only two proposals
  govsync backfill --include 42 --include 57`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			cursor, err := app.Backfill.Run(cmd.Context(), usecase.BackfillOptions{
				FromBlock: fromBlock,
				ToBlock:   toBlock,
				Window:    window,
				Include:   uintsToUint64s(include),
				Exclude:   uintsToUint64s(exclude),
				Replay:    replay,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Backfilled blocks %d..%d: %d proposals processed, %d skipped\n",
				cursor.FromBlock, cursor.ToBlock, cursor.Processed, cursor.Skipped)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&fromBlock, "from", 0, "First block of the window (defaults to a trailing window before --to)")
	cmd.Flags().Uint64Var(&toBlock, "to", 0, "Last block of the window (defaults to latest)")
	cmd.Flags().DurationVar(&window, "window", 0, "Trailing window size when --from is not given (defaults to 720h)")
	cmd.Flags().UintSliceVar(&include, "include", nil, "Restrict to these proposal ids")
	cmd.Flags().UintSliceVar(&exclude, "exclude", nil, "Skip these proposal ids")
	cmd.Flags().BoolVar(&replay, "replay", false, "Replace milestone columns instead of preserving them")
	return cmd
}

// uintsToUint64s widens pflag's []uint flag values to the []uint64 the
// usecase options expect.
func uintsToUint64s(in []uint) []uint64 {
	if in == nil {
		return nil
	}
	out := make([]uint64, len(in))
	for i, v := range in {
		out[i] = uint64(v)
	}
	return out
}
