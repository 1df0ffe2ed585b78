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

// ProposalListing is one proposal row joined with its vote totals and the
// resubmission history resolved from the pastId chain.
type ProposalListing struct {
	Proposal *models.Proposal
	Votes    domain.VoteTotals
	// History lists superseded proposal ids, oldest first.
	History []uint64
}

// ListProposals aggregates persisted vote rows per proposal. Totals stay
// arbitrary precision end to end; narrowing to a display type is the
// caller's problem.
type ListProposals struct {
	proposals ProposalRepository
	votes     VoteRepository
	log       *slog.Logger
}

func NewListProposals(proposals ProposalRepository, votes VoteRepository, log *slog.Logger) *ListProposals {
	return &ListProposals{proposals: proposals, votes: votes, log: log.With("component", "ListProposals")}
}

// Run returns the stage-sorted, id-descending listing. Proposals with no
// recorded vote rows get zero totals for all three types.
func (l *ListProposals) Run(ctx context.Context, chainID uint64) ([]ProposalListing, error) {
	rows, err := l.proposals.ListProposals(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	voteRows, err := l.votes.ListVotes(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	totals := make(map[uint64]domain.VoteTotals, len(rows))
	for _, vote := range voteRows {
		t, ok := totals[vote.ProposalID]
		if !ok {
			t = domain.EmptyVoteTotals()
		}
		count, ok := new(big.Int).SetString(vote.Count, 10)
		if !ok {
			l.log.Warn("unparseable vote count", "proposal", vote.ProposalID, "type", vote.Type, "count", vote.Count)
			count = new(big.Int)
		}
		switch domain.VoteType(vote.Type) {
		case domain.VoteYes:
			t.Yes = count
		case domain.VoteNo:
			t.No = count
		case domain.VoteAbstain:
			t.Abstain = count
		}
		totals[vote.ProposalID] = t
	}

	byID := make(map[uint64]*models.Proposal, len(rows))
	for _, row := range rows {
		byID[row.ProposalID] = row
	}

	listings := make([]ProposalListing, 0, len(rows))
	for _, row := range rows {
		t, ok := totals[row.ProposalID]
		if !ok {
			t = domain.EmptyVoteTotals()
		}
		listings = append(listings, ProposalListing{
			Proposal: row,
			Votes:    t,
			History:  resolveHistory(row, byID),
		})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		si := domain.StageFromName(listings[i].Proposal.Stage)
		sj := domain.StageFromName(listings[j].Proposal.Stage)
		if si.IsActive() != sj.IsActive() {
			return si.IsActive()
		}
		return listings[i].Proposal.ProposalID > listings[j].Proposal.ProposalID
	})
	return listings, nil
}

// resolveHistory walks the pastId chain back to the oldest submission. The
// visited set guards against a corrupted cyclic chain.
func resolveHistory(row *models.Proposal, byID map[uint64]*models.Proposal) []uint64 {
	var reversed []uint64
	visited := map[uint64]bool{row.ProposalID: true}
	current := row
	for current.PastID != nil {
		past := *current.PastID
		if visited[past] {
			break
		}
		visited[past] = true
		reversed = append(reversed, past)
		next, ok := byID[past]
		if !ok {
			break
		}
		current = next
	}
	// Oldest first.
	history := make([]uint64, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		history = append(history, reversed[i])
	}
	if len(history) == 0 {
		return nil
	}
	return history
}
