package usecase_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/usecase"
)

func TestCollectProposalsRun(t *testing.T) {
	ctx := context.Background()

	t.Run("unions queued and dequeued ids and drops zero placeholders", func(t *testing.T) {
		chain := new(MockChainReader)
		chain.On("ChainID").Return(testChainID)
		chain.On("QueueContents", ctx, (*uint64)(nil)).Return(
			[]usecase.QueuedEntry{
				{ID: 7, Upvotes: big.NewInt(12)},
				{ID: 0, Upvotes: big.NewInt(0)},
			},
			[]uint64{0, 5, 0},
			nil,
		)
		chain.On("ProposalBatch", ctx, []uint64{7, 5}, (*uint64)(nil)).Return(&usecase.ProposalBatch{
			Properties: map[uint64]*domain.Proposal{
				7: {Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				5: {Timestamp: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
			},
			Stages: map[uint64]domain.Stage{
				7: domain.StageQueued,
				5: domain.StageReferendum,
			},
			Votes: map[uint64]domain.VoteTotals{
				7: domain.EmptyVoteTotals(),
				5: {Yes: big.NewInt(10), No: big.NewInt(2), Abstain: big.NewInt(0)},
			},
		}, nil)

		c := usecase.NewCollectProposals(chain, testLogger())
		proposals, err := c.Run(ctx, nil)

		require.NoError(t, err)
		require.Len(t, proposals, 2)

		assert.Equal(t, uint64(7), proposals[0].ID)
		assert.Equal(t, domain.StageQueued, proposals[0].Stage)
		assert.Equal(t, int64(12), proposals[0].Upvotes.Int64())
		require.NotNil(t, proposals[0].ExpiryTime)
		assert.Equal(t,
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(domain.QueueExpiry),
			*proposals[0].ExpiryTime)

		assert.Equal(t, uint64(5), proposals[1].ID)
		assert.Zero(t, proposals[1].Upvotes.Sign(), "dequeued proposals carry no upvotes")
		assert.Equal(t, int64(10), proposals[1].Votes.Yes.Int64())
	})

	t.Run("an id missing a batch leg is skipped, not fatal", func(t *testing.T) {
		chain := new(MockChainReader)
		chain.On("ChainID").Return(testChainID)
		chain.On("QueueContents", ctx, (*uint64)(nil)).Return(
			[]usecase.QueuedEntry{{ID: 7, Upvotes: big.NewInt(1)}, {ID: 8, Upvotes: big.NewInt(1)}},
			nil, nil,
		)
		chain.On("ProposalBatch", ctx, []uint64{7, 8}, (*uint64)(nil)).Return(&usecase.ProposalBatch{
			Properties: map[uint64]*domain.Proposal{
				7: {Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				8: {Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			},
			Stages: map[uint64]domain.Stage{7: domain.StageQueued},
			Votes: map[uint64]domain.VoteTotals{
				7: domain.EmptyVoteTotals(),
				8: domain.EmptyVoteTotals(),
			},
		}, nil)

		c := usecase.NewCollectProposals(chain, testLogger())
		proposals, err := c.Run(ctx, nil)

		require.NoError(t, err)
		require.Len(t, proposals, 1)
		assert.Equal(t, uint64(7), proposals[0].ID)
	})

	t.Run("empty queue yields no proposals and no batch read", func(t *testing.T) {
		chain := new(MockChainReader)
		chain.On("QueueContents", ctx, (*uint64)(nil)).Return(nil, []uint64{0}, nil)

		c := usecase.NewCollectProposals(chain, testLogger())
		proposals, err := c.Run(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, proposals)
		chain.AssertNotCalled(t, "ProposalBatch", mock.Anything, mock.Anything, mock.Anything)
	})
}
