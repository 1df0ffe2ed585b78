package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
)

// UpsertProposals replays grouped lifecycle events into durable proposal
// rows: stage, milestone timestamps, vote totals and resubmission links.
type UpsertProposals struct {
	chain     ChainReader
	events    EventRepository
	proposals ProposalRepository
	votes     VoteRepository
	log       *slog.Logger
}

func NewUpsertProposals(chain ChainReader, events EventRepository, proposals ProposalRepository, votes VoteRepository, log *slog.Logger) *UpsertProposals {
	return &UpsertProposals{
		chain:     chain,
		events:    events,
		proposals: proposals,
		votes:     votes,
		log:       log.With("component", "UpsertProposals"),
	}
}

// UpsertOptions controls one upsert run.
type UpsertOptions struct {
	// ProposalIDs restricts the run; empty means every proposal with events.
	ProposalIDs []uint64
	// Replay replaces all mutable columns instead of preserving milestone
	// columns already recorded (the default "update" intent).
	Replay bool
}

// Run processes each event group and persists one row per proposal. It
// returns the number of rows written. A group that cannot be resolved is
// logged and skipped, never fatal.
func (u *UpsertProposals) Run(ctx context.Context, metadata []*domain.ProposalMetadata, opts UpsertOptions) (int, error) {
	chainID := u.chain.ChainID()
	groups, err := u.events.LifecycleEventsByProposal(ctx, chainID, opts.ProposalIDs)
	if err != nil {
		return 0, fmt.Errorf("load lifecycle events: %w", err)
	}

	byOnChainID := make(map[uint64]*domain.ProposalMetadata)
	byRepoNumber := make(map[uint64]*domain.ProposalMetadata)
	for _, meta := range metadata {
		byRepoNumber[meta.RepoNumber] = meta
		if meta.OnChainID != nil {
			byOnChainID[*meta.OnChainID] = meta
		}
	}

	ids := make([]uint64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []*models.Proposal
	var voteRows []*models.Vote
	for _, id := range ids {
		row, votes, err := u.buildRow(ctx, chainID, id, groups[id], byOnChainID, byRepoNumber)
		if err != nil {
			u.log.Warn("skipping proposal group", "id", id, "err", err)
			continue
		}
		rows = append(rows, row)
		voteRows = append(voteRows, votes...)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := u.proposals.UpsertProposals(ctx, rows, opts.Replay); err != nil {
		return 0, fmt.Errorf("upsert proposals: %w", err)
	}
	if err := u.votes.UpsertVotes(ctx, voteRows); err != nil {
		return 0, fmt.Errorf("upsert votes: %w", err)
	}
	if err := u.linkResubmissions(ctx, chainID); err != nil {
		return 0, fmt.Errorf("link resubmissions: %w", err)
	}
	return len(rows), nil
}

// buildRow derives one persistable row from a proposal's ordered event group.
func (u *UpsertProposals) buildRow(ctx context.Context, chainID, id uint64, group []domain.Event, byOnChainID, byRepoNumber map[uint64]*domain.ProposalMetadata) (*models.Proposal, []*models.Vote, error) {
	if len(group) == 0 {
		return nil, nil, fmt.Errorf("empty event group")
	}

	row := &models.Proposal{ChainID: chainID, ProposalID: id}
	var derived domain.Stage
	var queuedBlock uint64
	for _, ev := range group {
		block := ev.BlockNumber
		ts := ev.Timestamp
		switch ev.Kind {
		case domain.EventProposalQueued:
			row.QueuedAt, row.QueuedAtBlock = &ts, &block
			queuedBlock = block
		case domain.EventProposalDequeued:
			row.DequeuedAt, row.DequeuedAtBlock = &ts, &block
		case domain.EventProposalApproved:
			row.ApprovedAt, row.ApprovedAtBlock = &ts, &block
		case domain.EventProposalExecuted:
			row.ExecutedAt, row.ExecutedAtBlock = &ts, &block
		case domain.EventProposalExpired:
			row.ExpiredAt, row.ExpiredAtBlock = &ts, &block
		}
		if next, ok := domain.StageAfter(ev.Kind); ok {
			derived = next
		}
	}

	snapshot, snapshotBlock, err := u.bestSnapshot(ctx, chainID, id, group)
	if err != nil {
		return nil, nil, err
	}

	// Refine upward against the live stage; never downgrade.
	if live, err := u.chain.StageOf(ctx, id); err == nil {
		derived = domain.RefineStage(derived, live)
	} else {
		u.log.Debug("live stage read failed, keeping derived", "id", id, "err", err)
	}
	row.Stage = derived.String()

	meta, err := u.findMetadata(ctx, id, snapshot, queuedBlock, byOnChainID, byRepoNumber)
	if err != nil {
		return nil, nil, err
	}
	row.RepoNumber = meta.RepoNumber
	row.Title = meta.Title
	row.Author = meta.Author
	row.URL = meta.URL

	votes := domain.EmptyVoteTotals()
	if snapshot != nil {
		row.Proposer = snapshot.Proposer.Hex()
		row.URL = firstNonEmpty(snapshot.URL, row.URL)
		if snapshot.Deposit != nil {
			row.Deposit = snapshot.Deposit.String()
		}
		votes = snapshot.Votes
		weight := snapshot.NetworkWeight
		if weight == nil || weight.Sign() == 0 {
			// Zero weight means the read predates the snapshot's usefulness;
			// backfill from the locked-stake total at the same block.
			weight, err = u.chain.TotalLockedStake(ctx, snapshotBlock)
			if err != nil {
				u.log.Debug("network weight backfill failed", "id", id, "err", err)
				weight = new(big.Int)
			}
		}
		row.NetworkWeight = weight.String()
		if derived >= domain.StageReferendum && weight.Sign() > 0 {
			quorum := new(big.Int).Rsh(weight, 1)
			s := quorum.String()
			row.QuorumVotes = &s
		}
		if snapshot.Upvotes != nil {
			row.Upvotes = snapshot.Upvotes.String()
		}
	} else if meta.Votes != nil {
		votes = *meta.Votes
	}

	voteRows := make([]*models.Vote, 0, len(domain.VoteTypes))
	for _, t := range domain.VoteTypes {
		voteRows = append(voteRows, &models.Vote{
			ChainID:    chainID,
			ProposalID: id,
			Type:       string(t),
			Count:      votes.Get(t).String(),
		})
	}
	return row, voteRows, nil
}

// bestSnapshot reads the live proposal record, falling back to the state at
// the most recent vote event's block when execution has already deleted the
// on-chain storage.
func (u *UpsertProposals) bestSnapshot(ctx context.Context, chainID, id uint64, group []domain.Event) (*domain.Proposal, *uint64, error) {
	live, err := u.chain.ProposalAt(ctx, id, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("read proposal %d: %w", id, err)
	}
	if !snapshotZero(live) {
		return live, nil, nil
	}

	voteEvent, err := u.events.LatestVoteEvent(ctx, chainID, id)
	if err == nil {
		block := voteEvent.BlockNumber
		at, err := u.chain.ProposalAt(ctx, id, &block)
		if err != nil {
			return nil, nil, fmt.Errorf("read proposal %d at block %d: %w", id, block, err)
		}
		if !snapshotZero(at) {
			return at, &block, nil
		}
	}

	// No vote ever recorded; try the block of the last event that still had
	// the record in storage.
	block := group[len(group)-1].BlockNumber
	at, err := u.chain.ProposalAt(ctx, id, &block)
	if err != nil || snapshotZero(at) {
		return nil, nil, nil
	}
	return at, &block, nil
}

func snapshotZero(p *domain.Proposal) bool {
	return p == nil || (p.Timestamp.IsZero() && (p.Deposit == nil || p.Deposit.Sign() == 0))
}

// findMetadata locates the repository document for a proposal: by on-chain id
// first, then by the repository number embedded in the discussion URL, using
// the URL captured at proposal creation when the current one is empty.
func (u *UpsertProposals) findMetadata(ctx context.Context, id uint64, snapshot *domain.Proposal, queuedBlock uint64, byOnChainID, byRepoNumber map[uint64]*domain.ProposalMetadata) (*domain.ProposalMetadata, error) {
	if meta, ok := byOnChainID[id]; ok {
		return meta, nil
	}

	url := ""
	if snapshot != nil {
		url = snapshot.URL
	}
	if url == "" && queuedBlock != 0 {
		if creation, err := u.chain.ProposalAt(ctx, id, &queuedBlock); err == nil && creation != nil {
			url = creation.URL
		}
	}
	if repoNum, ok := domain.RepoNumberFromURL(url); ok {
		if meta, ok := byRepoNumber[repoNum]; ok {
			return meta, nil
		}
	}
	return nil, domain.ErrNoMetadata
}

// linkResubmissions chains persisted rows sharing a repository number via the
// pastId back-reference, oldest to newest.
func (u *UpsertProposals) linkResubmissions(ctx context.Context, chainID uint64) error {
	rows, err := u.proposals.ListProposals(ctx, chainID)
	if err != nil {
		return err
	}
	byRepo := make(map[uint64][]*models.Proposal)
	for _, row := range rows {
		if row.RepoNumber == 0 {
			continue
		}
		byRepo[row.RepoNumber] = append(byRepo[row.RepoNumber], row)
	}
	for _, chain := range byRepo {
		if len(chain) < 2 {
			continue
		}
		sort.Slice(chain, func(i, j int) bool { return chain[i].ProposalID < chain[j].ProposalID })
		for i := 1; i < len(chain); i++ {
			past := chain[i-1].ProposalID
			current := chain[i]
			if current.PastID != nil && *current.PastID == past {
				continue
			}
			if err := u.proposals.SetPastID(ctx, chainID, current.ProposalID, &past); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
