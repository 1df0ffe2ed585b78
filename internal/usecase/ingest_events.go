package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/govsync-org/govsync/internal/domain"
)

// IngestEvents is the webhook-side pipeline: dispatch a batch of decoded
// events by emitting contract, then run the state upserter and the approval
// ledger once each with the aggregated id sets, so a hundred events for one
// proposal cost one upsert pass.
type IngestEvents struct {
	governance common.Address
	multisig   common.Address

	metadata *NormalizeMetadata
	upserter *UpsertProposals
	ledger   *ApprovalLedger
	cache    CacheInvalidator
	chainID  uint64
	log      *slog.Logger
}

func NewIngestEvents(governance, multisig common.Address, chainID uint64, metadata *NormalizeMetadata, upserter *UpsertProposals, ledger *ApprovalLedger, cache CacheInvalidator, log *slog.Logger) *IngestEvents {
	return &IngestEvents{
		governance: governance,
		multisig:   multisig,
		chainID:    chainID,
		metadata:   metadata,
		upserter:   upserter,
		ledger:     ledger,
		cache:      cache,
		log:        log.With("component", "IngestEvents"),
	}
}

// IngestResult summarizes one processed batch.
type IngestResult struct {
	ProposalsUpserted  int
	ApprovalsInserted  int
	ApprovalsRevoked   int
	EventsUnrecognized int
}

// Run processes one delivered batch. Events from unrecognized contracts are
// counted and dropped, not errors.
func (i *IngestEvents) Run(ctx context.Context, events []domain.Event) (*IngestResult, error) {
	result := &IngestResult{}

	var proposalIDs []uint64
	var multisigTxIDs []uint64
	for _, ev := range events {
		switch ev.Address {
		case i.governance:
			// Vote and upvote events count too: the upsert pass re-reads live
			// totals, which is exactly what those events change.
			if ev.ProposalID != 0 {
				proposalIDs = append(proposalIDs, ev.ProposalID)
			}
		case i.multisig:
			multisigTxIDs = append(multisigTxIDs, ev.TransactionID)
		default:
			result.EventsUnrecognized++
		}
	}
	proposalIDs = lo.Uniq(proposalIDs)
	multisigTxIDs = lo.Uniq(multisigTxIDs)

	if len(proposalIDs) > 0 {
		normalized, err := i.metadata.Run(ctx, nil, false)
		if err != nil {
			return result, fmt.Errorf("normalize metadata: %w", err)
		}
		n, err := i.upserter.Run(ctx, normalized.Records, UpsertOptions{ProposalIDs: proposalIDs})
		if err != nil {
			return result, fmt.Errorf("upsert proposals: %w", err)
		}
		result.ProposalsUpserted = n
	}

	if len(multisigTxIDs) > 0 {
		inserted, err := i.ledger.ProcessConfirmations(ctx, LedgerOptions{TxIDs: multisigTxIDs})
		if err != nil {
			return result, fmt.Errorf("process confirmations: %w", err)
		}
		result.ApprovalsInserted = inserted
		revoked, err := i.ledger.ProcessRevocations(ctx, LedgerOptions{TxIDs: multisigTxIDs})
		if err != nil {
			return result, fmt.Errorf("process revocations: %w", err)
		}
		result.ApprovalsRevoked = revoked
	}

	if result.ProposalsUpserted > 0 || result.ApprovalsInserted > 0 || result.ApprovalsRevoked > 0 {
		// Best effort; a stale cache entry is not worth failing the batch.
		if err := i.cache.InvalidateProposals(ctx, i.chainID); err != nil {
			i.log.Warn("cache invalidation failed", "err", err)
		}
	}
	return result, nil
}
