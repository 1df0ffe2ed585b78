package domain

import "time"

// Stage represents a proposal's lifecycle stage. The first six values mirror
// the on-chain enum; the trailing values only ever come from repository
// metadata (the chain deletes storage before a proposal can report them).
type Stage uint8

const (
	StageNone Stage = iota
	StageQueued
	StageApproval
	StageReferendum
	StageExecution
	StageExpiration
	StageExecuted
	StageRejected
	StageWithdrawn
)

var stageNames = map[Stage]string{
	StageNone:       "None",
	StageQueued:     "Queued",
	StageApproval:   "Approval",
	StageReferendum: "Referendum",
	StageExecution:  "Execution",
	StageExpiration: "Expired",
	StageExecuted:   "Executed",
	StageRejected:   "Rejected",
	StageWithdrawn:  "Withdrawn",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// StageFromName is the inverse of String; unknown names map to StageNone.
func StageFromName(name string) Stage {
	for stage, n := range stageNames {
		if n == name {
			return stage
		}
	}
	return StageNone
}

// IsActive reports whether the proposal can still make progress on-chain.
func (s Stage) IsActive() bool {
	switch s {
	case StageQueued, StageApproval, StageReferendum, StageExecution:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageExpiration, StageExecuted, StageRejected, StageWithdrawn:
		return true
	}
	return false
}

// Per-stage windows. The queue expiry and the three post-dequeue stage
// durations are governance contract parameters; they have been constant on
// mainnet since genesis so they are carried as constants here.
const (
	QueueExpiry        = 28 * 24 * time.Hour
	ApprovalDuration   = 24 * time.Hour
	ReferendumDuration = 5 * 24 * time.Hour
	ExecutionDuration  = 3 * 24 * time.Hour
)

// ExpiryTimestamp derives when a proposal in the given stage lapses, relative
// to its base timestamp (queue time for Queued, dequeue time otherwise).
// Stages without a defined window return the zero time and false.
func ExpiryTimestamp(stage Stage, base time.Time) (time.Time, bool) {
	switch stage {
	case StageQueued:
		return base.Add(QueueExpiry), true
	case StageApproval:
		return base.Add(ApprovalDuration), true
	case StageReferendum:
		return base.Add(ReferendumDuration), true
	case StageExecution:
		return base.Add(ReferendumDuration + ExecutionDuration), true
	default:
		return time.Time{}, false
	}
}
