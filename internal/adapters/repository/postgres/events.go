package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
)

// EventRepo implements usecase.EventRepository over the external append-only
// events table. Read-only by design.
type EventRepo struct {
	db *gorm.DB
}

var lifecycleKindNames = func() []string {
	names := make([]string, 0, len(domain.LifecycleEventKinds))
	for _, kind := range domain.LifecycleEventKinds {
		names = append(names, string(kind))
	}
	return names
}()

func (r *EventRepo) LifecycleEventsByProposal(ctx context.Context, chainID uint64, ids []uint64) (map[uint64][]domain.Event, error) {
	q := r.db.WithContext(ctx).
		Where("chain_id = ? AND kind IN ?", chainID, lifecycleKindNames).
		Where("proposal_id IS NOT NULL")
	if len(ids) > 0 {
		q = q.Where("proposal_id IN ?", ids)
	}

	var rows []*models.Event
	if err := q.Order("block_number ASC, log_index ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list lifecycle events: %w", err)
	}

	groups := make(map[uint64][]domain.Event)
	for _, row := range rows {
		ev := toDomainEvent(row)
		groups[ev.ProposalID] = append(groups[ev.ProposalID], ev)
	}
	return groups, nil
}

func (r *EventRepo) LatestVoteEvent(ctx context.Context, chainID, proposalID uint64) (*domain.Event, error) {
	var row models.Event
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND kind = ? AND proposal_id = ?", chainID, string(domain.EventProposalVoted), proposalID).
		Order("block_number DESC, log_index DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest vote event: %w", err)
	}
	ev := toDomainEvent(&row)
	return &ev, nil
}

func (r *EventRepo) MultisigEvents(ctx context.Context, chainID uint64, wallet common.Address, kind domain.EventKind, txIDs []uint64) ([]domain.Event, error) {
	q := r.db.WithContext(ctx).
		Where("chain_id = ? AND kind = ? AND LOWER(address) = ?", chainID, string(kind), strings.ToLower(wallet.Hex())).
		Where("transaction_id IS NOT NULL")
	if len(txIDs) > 0 {
		q = q.Where("transaction_id IN ?", txIDs)
	}

	var rows []*models.Event
	if err := q.Order("block_number ASC, log_index ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list multisig events: %w", err)
	}
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, toDomainEvent(row))
	}
	return events, nil
}

func (r *EventRepo) ProposalIDsInRange(ctx context.Context, chainID, fromBlock, toBlock uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("chain_id = ? AND kind IN ?", chainID, lifecycleKindNames).
		Where("proposal_id IS NOT NULL AND block_number BETWEEN ? AND ?", fromBlock, toBlock).
		Distinct().
		Pluck("proposal_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("scan block window: %w", err)
	}
	return ids, nil
}

func toDomainEvent(row *models.Event) domain.Event {
	ev := domain.Event{
		Kind:        domain.EventKind(row.Kind),
		Address:     common.HexToAddress(row.Address),
		BlockNumber: row.BlockNumber,
		LogIndex:    row.LogIndex,
		TxHash:      common.HexToHash(row.TxHash),
		Timestamp:   row.Timestamp,
		Sender:      common.HexToAddress(row.Sender),
	}
	if row.ProposalID != nil {
		ev.ProposalID = *row.ProposalID
	}
	if row.TransactionID != nil {
		ev.TransactionID = *row.TransactionID
	}
	return ev
}
