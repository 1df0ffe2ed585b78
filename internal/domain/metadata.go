package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProposalMetadata is the off-chain view: one human-authored document in the
// governance repository. RepoNumber is the repository's own stable key; the
// on-chain id is optional and occasionally wrong, which is the reconciler's
// problem to sort out.
type ProposalMetadata struct {
	RepoNumber uint64
	Title      string
	Author     string
	Stage      Stage
	URL        string

	// OnChainID is nil when the document never carried one (drafts).
	OnChainID *uint64

	CreatedAt  *time.Time
	ExecutedAt *time.Time

	// Votes is a snapshot recorded in the document itself; only trusted for
	// chain-pruned proposals whose totals are no longer readable.
	Votes *VoteTotals
}

// statusToStage maps the repository status vocabulary (case-insensitized) to
// canonical stages. Unknown tokens are a validation failure for the record.
var statusToStage = map[string]Stage{
	"draft":     StageNone,
	"proposed":  StageQueued,
	"executed":  StageExecuted,
	"expired":   StageExpiration,
	"rejected":  StageRejected,
	"withdrawn": StageWithdrawn,
}

// StageFromStatus resolves a repository status token to a canonical stage.
func StageFromStatus(status string) (Stage, error) {
	stage, ok := statusToStage[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return StageNone, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return stage, nil
}
