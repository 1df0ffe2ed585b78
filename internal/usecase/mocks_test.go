package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
	"github.com/govsync-org/govsync/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) ChainID() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *MockChainReader) LatestBlock(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainReader) BlockTime(ctx context.Context, block uint64) (time.Time, error) {
	args := m.Called(ctx, block)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockChainReader) QueueContents(ctx context.Context, block *uint64) ([]usecase.QueuedEntry, []uint64, error) {
	args := m.Called(ctx, block)
	var queued []usecase.QueuedEntry
	if args.Get(0) != nil {
		queued = args.Get(0).([]usecase.QueuedEntry)
	}
	var dequeued []uint64
	if args.Get(1) != nil {
		dequeued = args.Get(1).([]uint64)
	}
	return queued, dequeued, args.Error(2)
}

func (m *MockChainReader) ProposalBatch(ctx context.Context, ids []uint64, block *uint64) (*usecase.ProposalBatch, error) {
	args := m.Called(ctx, ids, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProposalBatch), args.Error(1)
}

func (m *MockChainReader) ProposalAt(ctx context.Context, id uint64, block *uint64) (*domain.Proposal, error) {
	args := m.Called(ctx, id, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockChainReader) StageOf(ctx context.Context, id uint64) (domain.Stage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Stage), args.Error(1)
}

func (m *MockChainReader) TotalLockedStake(ctx context.Context, block *uint64) (*big.Int, error) {
	args := m.Called(ctx, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) ApproverAddress(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainReader) MultisigTransaction(ctx context.Context, txID uint64) (*usecase.MultisigTx, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MultisigTx), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) LifecycleEventsByProposal(ctx context.Context, chainID uint64, ids []uint64) (map[uint64][]domain.Event, error) {
	args := m.Called(ctx, chainID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64][]domain.Event), args.Error(1)
}

func (m *MockEventRepository) LatestVoteEvent(ctx context.Context, chainID, proposalID uint64) (*domain.Event, error) {
	args := m.Called(ctx, chainID, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) MultisigEvents(ctx context.Context, chainID uint64, wallet common.Address, kind domain.EventKind, txIDs []uint64) ([]domain.Event, error) {
	args := m.Called(ctx, chainID, wallet, kind, txIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockEventRepository) ProposalIDsInRange(ctx context.Context, chainID, fromBlock, toBlock uint64) ([]uint64, error) {
	args := m.Called(ctx, chainID, fromBlock, toBlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

// MockProposalRepository is a mock implementation of ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) UpsertProposals(ctx context.Context, rows []*models.Proposal, replay bool) error {
	args := m.Called(ctx, rows, replay)
	return args.Error(0)
}

func (m *MockProposalRepository) ListProposals(ctx context.Context, chainID uint64) ([]*models.Proposal, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Proposal), args.Error(1)
}

func (m *MockProposalRepository) SetPastID(ctx context.Context, chainID, proposalID uint64, pastID *uint64) error {
	args := m.Called(ctx, chainID, proposalID, pastID)
	return args.Error(0)
}

// MockVoteRepository is a mock implementation of VoteRepository
type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) UpsertVotes(ctx context.Context, rows []*models.Vote) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockVoteRepository) ListVotes(ctx context.Context, chainID uint64) ([]*models.Vote, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vote), args.Error(1)
}

// MockApprovalRepository is a mock implementation of ApprovalRepository
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) InsertIgnore(ctx context.Context, row *models.Approval) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockApprovalRepository) Get(ctx context.Context, chainID, multisigTxID uint64, approver string) (*models.Approval, error) {
	args := m.Called(ctx, chainID, multisigTxID, approver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approval), args.Error(1)
}

func (m *MockApprovalRepository) Delete(ctx context.Context, chainID, multisigTxID uint64, approver string) error {
	args := m.Called(ctx, chainID, multisigTxID, approver)
	return args.Error(0)
}

func (m *MockApprovalRepository) ProcessedTxIDs(ctx context.Context, chainID uint64) (map[uint64]bool, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]bool), args.Error(1)
}

// MockMetadataSource is a mock implementation of MetadataSource
type MockMetadataSource struct {
	mock.Mock
}

func (m *MockMetadataSource) ListDocuments(ctx context.Context) ([]usecase.DocumentRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.DocumentRef), args.Error(1)
}

func (m *MockMetadataSource) FetchDocument(ctx context.Context, ref usecase.DocumentRef) (*usecase.RawDocument, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RawDocument), args.Error(1)
}

// MockCalldataDecoder is a mock implementation of CalldataDecoder
type MockCalldataDecoder struct {
	mock.Mock
}

func (m *MockCalldataDecoder) Decode(ctx context.Context, data []byte) usecase.DecodedCall {
	args := m.Called(ctx, data)
	return args.Get(0).(usecase.DecodedCall)
}

// MockCacheInvalidator records invalidation calls
type MockCacheInvalidator struct {
	calls int
	err   error
}

func (m *MockCacheInvalidator) InvalidateProposals(ctx context.Context, chainID uint64) error {
	m.calls++
	return m.err
}
