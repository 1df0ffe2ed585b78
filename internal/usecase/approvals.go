package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
)

// ApproveMethod is the governance function a tracked multisig transaction is
// expected to call. Anything else in the calldata means the transaction is
// not a proposal approval and is skipped.
const ApproveMethod = "approve"

// ApprovalLedger replays multisig Confirmation and Revocation events into the
// derived approvals table. State machine per (chain, multisig tx, approver):
// unconfirmed -> confirmed (row inserted) -> revoked (row deleted).
type ApprovalLedger struct {
	chain     ChainReader
	events    EventRepository
	approvals ApprovalRepository
	decoder   CalldataDecoder
	log       *slog.Logger
}

func NewApprovalLedger(chain ChainReader, events EventRepository, approvals ApprovalRepository, decoder CalldataDecoder, log *slog.Logger) *ApprovalLedger {
	return &ApprovalLedger{
		chain:     chain,
		events:    events,
		approvals: approvals,
		decoder:   decoder,
		log:       log.With("component", "ApprovalLedger"),
	}
}

// LedgerOptions restricts a ledger run.
type LedgerOptions struct {
	// TxIDs restricts processing to specific multisig transaction ids; empty
	// means the full event history for the tracked wallet.
	TxIDs []uint64
	// SkipProcessed makes long backfills resumable: multisig tx ids that
	// already have a ledger row are skipped up front.
	SkipProcessed bool
}

// ProcessConfirmations handles Confirmation events: decode the underlying
// multisig transaction, verify it is an approve call, and insert-ignore the
// approval row. Returns the number of rows inserted (duplicates excluded).
func (l *ApprovalLedger) ProcessConfirmations(ctx context.Context, opts LedgerOptions) (int, error) {
	chainID := l.chain.ChainID()
	wallet, err := l.chain.ApproverAddress(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve approver multisig: %w", err)
	}

	confirmations, err := l.events.MultisigEvents(ctx, chainID, wallet, domain.EventConfirmation, opts.TxIDs)
	if err != nil {
		return 0, fmt.Errorf("load confirmation events: %w", err)
	}

	var processed map[uint64]bool
	if opts.SkipProcessed {
		if processed, err = l.approvals.ProcessedTxIDs(ctx, chainID); err != nil {
			return 0, fmt.Errorf("load processed tx ids: %w", err)
		}
	}

	inserted := 0
	for _, ev := range confirmations {
		if processed[ev.TransactionID] {
			continue
		}
		row, err := l.confirmationRow(ctx, chainID, ev)
		if err != nil {
			l.log.Warn("skipping confirmation", "multisigTx", ev.TransactionID, "err", err)
			continue
		}
		if row == nil {
			continue // not an approve call
		}
		if err := l.approvals.InsertIgnore(ctx, row); err != nil {
			return inserted, fmt.Errorf("insert approval: %w", err)
		}
		inserted++
	}
	return inserted, nil
}

// confirmationRow decodes one Confirmation event into an approval row, or nil
// when the underlying transaction is not a governance approve call.
func (l *ApprovalLedger) confirmationRow(ctx context.Context, chainID uint64, ev domain.Event) (*models.Approval, error) {
	tx, err := l.chain.MultisigTransaction(ctx, ev.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("read multisig tx: %w", err)
	}

	call := l.decoder.Decode(ctx, tx.Data)
	switch call.Status {
	case DecodeOK:
	case DecodeUnknownSelector:
		l.log.Debug("unknown selector on multisig tx", "multisigTx", ev.TransactionID,
			"selector", fmt.Sprintf("%x", call.Selector))
		return nil, nil
	default:
		return nil, fmt.Errorf("decode calldata: %w", call.Err)
	}
	if !strings.EqualFold(call.Method, ApproveMethod) {
		l.log.Debug("multisig tx is not an approve call", "multisigTx", ev.TransactionID, "method", call.Method)
		return nil, nil
	}

	proposalID, err := firstUintArg(call.Args)
	if err != nil {
		return nil, fmt.Errorf("extract proposal id: %w", err)
	}

	confirmedAt := ev.Timestamp
	if confirmedAt.IsZero() {
		if confirmedAt, err = l.chain.BlockTime(ctx, ev.BlockNumber); err != nil {
			return nil, fmt.Errorf("read block time: %w", err)
		}
	}

	return &models.Approval{
		ChainID:         chainID,
		MultisigTxID:    ev.TransactionID,
		ApproverAddress: ev.Sender.Hex(),
		ProposalID:      proposalID,
		ConfirmedAt:     confirmedAt,
		BlockNumber:     ev.BlockNumber,
		TxHash:          ev.TxHash.Hex(),
	}, nil
}

// ProcessRevocations handles Revocation events: delete the row written by the
// matching confirmation. Revocation events carry no proposal id, so the
// lookup is keyed off the stored confirmation; a revocation with no prior
// confirmation is a no-op.
func (l *ApprovalLedger) ProcessRevocations(ctx context.Context, opts LedgerOptions) (int, error) {
	chainID := l.chain.ChainID()
	wallet, err := l.chain.ApproverAddress(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve approver multisig: %w", err)
	}

	revocations, err := l.events.MultisigEvents(ctx, chainID, wallet, domain.EventRevocation, opts.TxIDs)
	if err != nil {
		return 0, fmt.Errorf("load revocation events: %w", err)
	}

	deleted := 0
	for _, ev := range revocations {
		existing, err := l.approvals.Get(ctx, chainID, ev.TransactionID, ev.Sender.Hex())
		if errors.Is(err, domain.ErrNotFound) {
			l.log.Debug("revocation without prior confirmation",
				"multisigTx", ev.TransactionID, "approver", ev.Sender.Hex())
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("look up approval: %w", err)
		}
		if err := l.approvals.Delete(ctx, chainID, existing.MultisigTxID, existing.ApproverAddress); err != nil {
			return deleted, fmt.Errorf("delete approval: %w", err)
		}
		deleted++
	}
	return deleted, nil
}

func firstUintArg(args []any) (uint64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("no arguments")
	}
	switch v := args[0].(type) {
	case *big.Int:
		if !v.IsUint64() {
			return 0, fmt.Errorf("argument out of range: %s", v)
		}
		return v.Uint64(), nil
	case uint64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected argument type %T", args[0])
	}
}
