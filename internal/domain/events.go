package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind identifies a decoded contract event by name.
type EventKind string

const (
	// Governance lifecycle events. These five drive stage derivation.
	EventProposalQueued   EventKind = "ProposalQueued"
	EventProposalDequeued EventKind = "ProposalDequeued"
	EventProposalApproved EventKind = "ProposalApproved"
	EventProposalExecuted EventKind = "ProposalExecuted"
	EventProposalExpired  EventKind = "ProposalExpired"

	// Vote events are not lifecycle transitions but mark blocks at which the
	// proposal still existed in contract storage.
	EventProposalVoted   EventKind = "ProposalVoted"
	EventProposalUpvoted EventKind = "ProposalUpvoted"

	// Multisig wallet events.
	EventConfirmation EventKind = "Confirmation"
	EventRevocation   EventKind = "Revocation"
)

// LifecycleEventKinds are the event kinds the state upserter replays.
var LifecycleEventKinds = []EventKind{
	EventProposalQueued,
	EventProposalDequeued,
	EventProposalApproved,
	EventProposalExecuted,
	EventProposalExpired,
}

// IsLifecycle reports whether the kind is one of the five transition events.
func (k EventKind) IsLifecycle() bool {
	switch k {
	case EventProposalQueued, EventProposalDequeued, EventProposalApproved,
		EventProposalExecuted, EventProposalExpired:
		return true
	}
	return false
}

// stageTransitions is the event-kind -> resulting-stage table. Approved is
// deliberately absent: approval records a milestone timestamp but does not
// move the proposal out of whatever stage it is in.
var stageTransitions = map[EventKind]Stage{
	EventProposalQueued:   StageQueued,
	EventProposalDequeued: StageReferendum,
	EventProposalExecuted: StageExecuted,
	EventProposalExpired:  StageExpiration,
}

// StageAfter returns the stage implied by an event kind. The second return
// is false for kinds that imply no stage change.
func StageAfter(kind EventKind) (Stage, bool) {
	stage, ok := stageTransitions[kind]
	return stage, ok
}

// RefineStage never downgrades: the live chain stage wins only when it is
// further along than the event-derived one. The off-chain-only stages
// (Executed and later) always keep the event-derived value because the chain
// reports None once storage is deleted.
func RefineStage(derived, live Stage) Stage {
	if live > derived && live <= StageExpiration {
		return live
	}
	return derived
}

// Event is one decoded contract event as delivered by the ingestion webhook
// or read back from the raw-events store.
type Event struct {
	Kind        EventKind
	Address     common.Address
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
	Timestamp   time.Time

	// ProposalID is set for governance events (zero otherwise).
	ProposalID uint64
	// TransactionID is set for multisig events (Confirmation/Revocation).
	TransactionID uint64
	// Sender is the confirming/revoking owner for multisig events, the
	// proposer for ProposalQueued, the voter for ProposalVoted.
	Sender common.Address
	// Value carries the event's numeric payload where one exists (vote
	// weight, deposit, upvotes).
	Value *big.Int
}
