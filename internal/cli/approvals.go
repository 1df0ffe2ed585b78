package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/govsync-org/govsync/internal/usecase"
)

// NewApprovalsCmd creates the approvals command: a batch run over the
// multisig confirmation and revocation history.
func NewApprovalsCmd() *cobra.Command {
	var (
		txIDs         []uint
		skipProcessed bool
	)

	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Rebuild the approvals ledger from multisig events",
		Long: `Approvals replays Confirmation and Revocation events from the approver
multisig, decoding each transaction's calldata to find approve calls.
Inserts are insert-ignore, so reruns are safe.`,
		Example: `  # Process the full multisig history
  govsync approvals

  # Resume a long run, skipping already-recorded transactions
  govsync approvals --skip-processed

  # Reprocess two specific multisig transactions
  govsync approvals --tx 118 --tx 121`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			opts := usecase.LedgerOptions{TxIDs: uintsToUint64s(txIDs), SkipProcessed: skipProcessed}
			inserted, err := app.Ledger.ProcessConfirmations(cmd.Context(), opts)
			if err != nil {
				return err
			}
			revoked, err := app.Ledger.ProcessRevocations(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Approvals ledger updated: %d inserted, %d revoked\n", inserted, revoked)
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&txIDs, "tx", nil, "Restrict to these multisig transaction ids")
	cmd.Flags().BoolVar(&skipProcessed, "skip-processed", false, "Skip multisig transactions that already have ledger rows")
	return cmd
}
