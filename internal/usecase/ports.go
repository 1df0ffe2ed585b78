package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
)

// QueuedEntry is one (id, upvotes) pair from the governance queue read.
type QueuedEntry struct {
	ID      uint64
	Upvotes *big.Int
}

// ProposalBatch is the result of the three batched per-id reads. An id
// missing from any map means that leg of the multicall failed for it.
type ProposalBatch struct {
	Properties map[uint64]*domain.Proposal
	Stages     map[uint64]domain.Stage
	Votes      map[uint64]domain.VoteTotals
}

// MultisigTx is a raw multisig wallet transaction payload.
type MultisigTx struct {
	Destination common.Address
	Value       *big.Int
	Data        []byte
	Executed    bool
}

// ChainReader is the read contract against live chain state. All reads are
// point-in-time addressable: a nil block means latest.
type ChainReader interface {
	ChainID() uint64
	LatestBlock(ctx context.Context) (uint64, error)
	BlockTime(ctx context.Context, block uint64) (time.Time, error)

	// QueueContents returns the queued (id, upvote) pairs and the dequeued id
	// set in one batched call. Zero-valued placeholder ids are not filtered
	// here; the collector does that.
	QueueContents(ctx context.Context, block *uint64) (queued []QueuedEntry, dequeued []uint64, err error)

	// ProposalBatch performs the three batched reads keyed by the id set.
	ProposalBatch(ctx context.Context, ids []uint64, block *uint64) (*ProposalBatch, error)

	// ProposalAt reads a single proposal record at a specific block.
	ProposalAt(ctx context.Context, id uint64, block *uint64) (*domain.Proposal, error)

	// StageOf reads the current stage of a single proposal.
	StageOf(ctx context.Context, id uint64) (domain.Stage, error)

	// TotalLockedStake reads the voting-power denominator at a block.
	TotalLockedStake(ctx context.Context, block *uint64) (*big.Int, error)

	// ApproverAddress resolves the governance contract's approver multisig.
	ApproverAddress(ctx context.Context) (common.Address, error)

	// MultisigTransaction reads a multisig transaction payload by id.
	MultisigTransaction(ctx context.Context, txID uint64) (*MultisigTx, error)
}

// DocumentRef points at one repository document before it is fetched.
type DocumentRef struct {
	RepoNumber uint64
	Name       string
	URL        string
}

// RawDocument is a fetched, unparsed repository document.
type RawDocument struct {
	Ref  DocumentRef
	Body []byte
}

// MetadataSource lists and fetches repository documents.
type MetadataSource interface {
	ListDocuments(ctx context.Context) ([]DocumentRef, error)
	FetchDocument(ctx context.Context, ref DocumentRef) (*RawDocument, error)
}

// ProposalRepository persists derived proposal rows.
type ProposalRepository interface {
	// UpsertProposals writes rows keyed by (chain id, proposal id). With
	// replay all mutable columns are replaced; without it milestone columns
	// already present are preserved instead of being clobbered with nulls.
	UpsertProposals(ctx context.Context, rows []*models.Proposal, replay bool) error
	ListProposals(ctx context.Context, chainID uint64) ([]*models.Proposal, error)
	SetPastID(ctx context.Context, chainID, proposalID uint64, pastID *uint64) error
}

// VoteRepository persists running vote totals.
type VoteRepository interface {
	UpsertVotes(ctx context.Context, rows []*models.Vote) error
	ListVotes(ctx context.Context, chainID uint64) ([]*models.Vote, error)
}

// ApprovalRepository persists the derived approvals ledger.
type ApprovalRepository interface {
	InsertIgnore(ctx context.Context, row *models.Approval) error
	Get(ctx context.Context, chainID, multisigTxID uint64, approver string) (*models.Approval, error)
	Delete(ctx context.Context, chainID, multisigTxID uint64, approver string) error
	// ProcessedTxIDs returns multisig tx ids that already have at least one
	// row, so a restarted backfill can skip completed work.
	ProcessedTxIDs(ctx context.Context, chainID uint64) (map[uint64]bool, error)
}

// EventRepository queries the append-only raw-events store.
type EventRepository interface {
	// LifecycleEventsByProposal groups the five lifecycle event kinds by
	// proposal id, each group ordered by block number. An empty ids slice
	// means all proposals.
	LifecycleEventsByProposal(ctx context.Context, chainID uint64, ids []uint64) (map[uint64][]domain.Event, error)
	// LatestVoteEvent returns the most recent vote event for a proposal, or
	// domain.ErrNotFound.
	LatestVoteEvent(ctx context.Context, chainID, proposalID uint64) (*domain.Event, error)
	// MultisigEvents returns events of one kind for the given wallet,
	// optionally restricted to specific multisig tx ids.
	MultisigEvents(ctx context.Context, chainID uint64, wallet common.Address, kind domain.EventKind, txIDs []uint64) ([]domain.Event, error)
	// ProposalIDsInRange returns the distinct proposal ids touched by
	// lifecycle events inside a block window.
	ProposalIDsInRange(ctx context.Context, chainID, fromBlock, toBlock uint64) ([]uint64, error)
}

// DecodeStatus classifies a calldata decoding attempt.
type DecodeStatus uint8

const (
	DecodeOK DecodeStatus = iota
	DecodeUnknownSelector
	DecodeError
)

// DecodedCall is the typed result of decoding multisig calldata. Decoding
// never panics or errors out of band; unknown selectors and malformed data
// come back as statuses.
type DecodedCall struct {
	Status   DecodeStatus
	Selector [4]byte
	Method   string
	Args     []any
	Err      error
}

// CalldataDecoder decodes contract calldata, falling back to an external
// signature registry for unknown selectors.
type CalldataDecoder interface {
	Decode(ctx context.Context, data []byte) DecodedCall
}

// CacheInvalidator drops cached proposal-list responses after a write batch.
// Fire and forget: failures are logged, never propagated.
type CacheInvalidator interface {
	InvalidateProposals(ctx context.Context, chainID uint64) error
}

// Alerter reports unexpected processing failures to an operational channel.
type Alerter interface {
	Alert(ctx context.Context, subject string, err error, payload any)
}

// BackfillCursor threads resumable progress through a batch loop. It is never
// persisted; the idempotent upserts are themselves the checkpoint.
type BackfillCursor struct {
	FromBlock uint64
	ToBlock   uint64
	LastBlock uint64
	Processed int
	Skipped   int
}
