package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/usecase"
)

var governanceAddr = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

type ingestFixture struct {
	chain     *MockChainReader
	events    *MockEventRepository
	proposals *MockProposalRepository
	votes     *MockVoteRepository
	approvals *MockApprovalRepository
	decoder   *MockCalldataDecoder
	source    *MockMetadataSource
	cache     *MockCacheInvalidator
	ingester  *usecase.IngestEvents
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		chain:     new(MockChainReader),
		events:    new(MockEventRepository),
		proposals: new(MockProposalRepository),
		votes:     new(MockVoteRepository),
		approvals: new(MockApprovalRepository),
		decoder:   new(MockCalldataDecoder),
		source:    new(MockMetadataSource),
		cache:     new(MockCacheInvalidator),
	}
	f.chain.On("ChainID").Return(testChainID)
	log := testLogger()
	metadata := usecase.NewNormalizeMetadata(f.source, log)
	upserter := usecase.NewUpsertProposals(f.chain, f.events, f.proposals, f.votes, log)
	ledger := usecase.NewApprovalLedger(f.chain, f.events, f.approvals, f.decoder, log)
	f.ingester = usecase.NewIngestEvents(governanceAddr, walletAddr, testChainID, metadata, upserter, ledger, f.cache, log)
	return f
}

func TestIngestEventsRun(t *testing.T) {
	ctx := context.Background()

	t.Run("governance events drive one upsert pass", func(t *testing.T) {
		f := newIngestFixture()

		f.source.On("ListDocuments", ctx).Return([]usecase.DocumentRef{
			{RepoNumber: 12, Name: "cgp-0012.md", URL: "u12"},
		}, nil)
		doc := validDocForRepo(12, 7)
		f.source.On("FetchDocument", ctx, mock.Anything).Return(doc, nil)

		f.events.On("LifecycleEventsByProposal", ctx, testChainID, []uint64{7}).
			Return(map[uint64][]domain.Event{7: {lifecycleEvent(domain.EventProposalQueued, 7, 100)}}, nil)
		f.chain.On("ProposalAt", ctx, uint64(7), (*uint64)(nil)).Return(liveSnapshot(7), nil)
		f.chain.On("StageOf", ctx, uint64(7)).Return(domain.StageQueued, nil)
		f.proposals.On("UpsertProposals", ctx, mock.Anything, false).Return(nil)
		f.votes.On("UpsertVotes", ctx, mock.Anything).Return(nil)
		f.proposals.On("ListProposals", ctx, testChainID).Return(nil, nil)

		events := []domain.Event{
			{Kind: domain.EventProposalQueued, Address: governanceAddr, ProposalID: 7, BlockNumber: 100},
			{Kind: domain.EventProposalVoted, Address: governanceAddr, ProposalID: 7, BlockNumber: 120, Value: big.NewInt(5)},
		}
		result, err := f.ingester.Run(ctx, events)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ProposalsUpserted)
		assert.Zero(t, result.EventsUnrecognized)
		assert.Equal(t, 1, f.cache.calls, "writes invalidate the cache once")
		f.proposals.AssertNumberOfCalls(t, "UpsertProposals", 1)
	})

	t.Run("a lone vote event still refreshes its proposal", func(t *testing.T) {
		f := newIngestFixture()

		f.source.On("ListDocuments", ctx).Return([]usecase.DocumentRef{
			{RepoNumber: 12, Name: "cgp-0012.md", URL: "u12"},
		}, nil)
		f.source.On("FetchDocument", ctx, mock.Anything).Return(validDocForRepo(12, 7), nil)

		f.events.On("LifecycleEventsByProposal", ctx, testChainID, []uint64{7}).
			Return(map[uint64][]domain.Event{7: {lifecycleEvent(domain.EventProposalQueued, 7, 100)}}, nil)
		f.chain.On("ProposalAt", ctx, uint64(7), (*uint64)(nil)).Return(liveSnapshot(7), nil)
		f.chain.On("StageOf", ctx, uint64(7)).Return(domain.StageReferendum, nil)
		f.proposals.On("UpsertProposals", ctx, mock.Anything, false).Return(nil)
		f.votes.On("UpsertVotes", ctx, mock.Anything).Return(nil)
		f.proposals.On("ListProposals", ctx, testChainID).Return(nil, nil)

		events := []domain.Event{
			{Kind: domain.EventProposalVoted, Address: governanceAddr, ProposalID: 7, BlockNumber: 120, Value: big.NewInt(5)},
		}
		result, err := f.ingester.Run(ctx, events)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ProposalsUpserted, "vote totals change; the row must be refreshed")
		assert.Zero(t, result.EventsUnrecognized)
		f.votes.AssertCalled(t, "UpsertVotes", ctx, mock.Anything)
	})

	t.Run("multisig events drive the approval ledger", func(t *testing.T) {
		f := newIngestFixture()

		f.chain.On("ApproverAddress", ctx).Return(walletAddr, nil)
		f.events.On("MultisigEvents", ctx, testChainID, walletAddr, domain.EventConfirmation, []uint64{118}).
			Return([]domain.Event{multisigEvent(domain.EventConfirmation, 118)}, nil)
		f.events.On("MultisigEvents", ctx, testChainID, walletAddr, domain.EventRevocation, []uint64{118}).
			Return([]domain.Event{}, nil)
		f.chain.On("MultisigTransaction", ctx, uint64(118)).
			Return(&usecase.MultisigTx{Data: []byte{0x32, 0x9f, 0x04, 0xf0}}, nil)
		f.decoder.On("Decode", ctx, mock.Anything).Return(approveCall(42))
		f.approvals.On("InsertIgnore", ctx, mock.Anything).Return(nil)

		events := []domain.Event{multisigEvent(domain.EventConfirmation, 118)}
		result, err := f.ingester.Run(ctx, events)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ApprovalsInserted)
		assert.Equal(t, 1, f.cache.calls)
	})

	t.Run("events from unrecognized contracts are counted and dropped", func(t *testing.T) {
		f := newIngestFixture()

		events := []domain.Event{
			{Kind: domain.EventProposalQueued, Address: common.HexToAddress("0x1234"), ProposalID: 7},
		}
		result, err := f.ingester.Run(ctx, events)

		require.NoError(t, err)
		assert.Equal(t, 1, result.EventsUnrecognized)
		assert.Zero(t, result.ProposalsUpserted)
		assert.Zero(t, f.cache.calls, "nothing written, nothing invalidated")
	})

	t.Run("cache invalidation failure does not fail the batch", func(t *testing.T) {
		f := newIngestFixture()
		f.cache.err = assert.AnError

		f.chain.On("ApproverAddress", ctx).Return(walletAddr, nil)
		f.events.On("MultisigEvents", ctx, testChainID, walletAddr, domain.EventConfirmation, []uint64{118}).
			Return([]domain.Event{multisigEvent(domain.EventConfirmation, 118)}, nil)
		f.events.On("MultisigEvents", ctx, testChainID, walletAddr, domain.EventRevocation, []uint64{118}).
			Return([]domain.Event{}, nil)
		f.chain.On("MultisigTransaction", ctx, uint64(118)).
			Return(&usecase.MultisigTx{Data: []byte{0x32, 0x9f, 0x04, 0xf0}}, nil)
		f.decoder.On("Decode", ctx, mock.Anything).Return(approveCall(42))
		f.approvals.On("InsertIgnore", ctx, mock.Anything).Return(nil)

		_, err := f.ingester.Run(ctx, []domain.Event{multisigEvent(domain.EventConfirmation, 118)})

		require.NoError(t, err)
	})
}

func validDocForRepo(repoNum, onChainID uint64) *usecase.RawDocument {
	body := "---\n" +
		"cgp: " + itoa(repoNum) + "\n" +
		"title: Test Proposal\n" +
		"author: Jane Doe\n" +
		"status: PROPOSED\n" +
		"governance-proposal-id: " + itoa(onChainID) + "\n" +
		"---\n\nbody\n"
	return &usecase.RawDocument{
		Ref: usecase.DocumentRef{
			RepoNumber: repoNum,
			Name:       "cgp-" + itoa(repoNum) + ".md",
			URL:        cgpURL(repoNum),
		},
		Body: []byte(body),
	}
}

func itoa(n uint64) string {
	return big.NewInt(int64(n)).String()
}
