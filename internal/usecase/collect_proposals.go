package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/samber/lo"

	"github.com/govsync-org/govsync/internal/domain"
)

// CollectProposals batches chain reads into a flat list of current proposals
// with vote totals and derived expiry.
type CollectProposals struct {
	chain ChainReader
	log   *slog.Logger
}

func NewCollectProposals(chain ChainReader, log *slog.Logger) *CollectProposals {
	return &CollectProposals{chain: chain, log: log.With("component", "CollectProposals")}
}

// Run fetches the queued and dequeued id sets in one batched call, then the
// per-id property, stage and vote-total reads keyed by their union. A single
// id missing one of its three results is skipped with a warning; it must not
// fail the batch.
func (c *CollectProposals) Run(ctx context.Context, block *uint64) ([]*domain.Proposal, error) {
	queued, dequeued, err := c.chain.QueueContents(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("read queue contents: %w", err)
	}

	// The dequeue array keeps zero placeholders for emptied slots.
	queued = lo.Filter(queued, func(e QueuedEntry, _ int) bool { return e.ID != 0 })
	dequeued = lo.Filter(dequeued, func(id uint64, _ int) bool { return id != 0 })

	upvotesByID := make(map[uint64]*big.Int, len(queued))
	for _, entry := range queued {
		upvotesByID[entry.ID] = entry.Upvotes
	}

	ids := lo.Uniq(append(lo.Map(queued, func(e QueuedEntry, _ int) uint64 { return e.ID }), dequeued...))
	if len(ids) == 0 {
		return nil, nil
	}

	batch, err := c.chain.ProposalBatch(ctx, ids, block)
	if err != nil {
		return nil, fmt.Errorf("read proposal batch: %w", err)
	}

	proposals := make([]*domain.Proposal, 0, len(ids))
	for _, id := range ids {
		proposal, ok := batch.Properties[id]
		if !ok {
			c.log.Warn("skipping proposal with missing properties", "id", id)
			continue
		}
		stage, ok := batch.Stages[id]
		if !ok {
			c.log.Warn("skipping proposal with missing stage", "id", id)
			continue
		}
		votes, ok := batch.Votes[id]
		if !ok {
			c.log.Warn("skipping proposal with missing vote totals", "id", id)
			continue
		}

		proposal.ID = id
		proposal.ChainID = c.chain.ChainID()
		proposal.Stage = stage
		proposal.Votes = votes
		if up, ok := upvotesByID[id]; ok {
			proposal.Upvotes = up
		} else {
			proposal.Upvotes = new(big.Int)
		}
		if expiry, ok := domain.ExpiryTimestamp(stage, proposal.Timestamp); ok {
			proposal.ExpiryTime = &expiry
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}
