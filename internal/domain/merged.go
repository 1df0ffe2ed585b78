package domain

// MergeSource says which sides of the reconciliation produced a record.
type MergeSource uint8

const (
	SourceChainOnly MergeSource = iota + 1
	SourceMetadataOnly
	SourceBoth
)

// MergedProposal is the canonical per-proposal record produced by
// reconciliation. Construction goes through the three constructors below so
// the "at least one side present" invariant holds by construction; the zero
// value is not a valid record.
type MergedProposal struct {
	source MergeSource

	// ID is the canonical on-chain id; zero for drafts that never had one.
	ID    uint64
	Stage Stage

	Proposal *Proposal
	Metadata *ProposalMetadata

	// History lists superseded on-chain ids, oldest first, when one
	// repository number maps to more than one submission.
	History []uint64
}

// ChainOnly wraps a proposal with no matching repository document.
func ChainOnly(p *Proposal) MergedProposal {
	return MergedProposal{source: SourceChainOnly, ID: p.ID, Stage: p.Stage, Proposal: p}
}

// MetadataOnly wraps a repository document with no live on-chain record.
func MetadataOnly(m *ProposalMetadata, stage Stage) MergedProposal {
	merged := MergedProposal{source: SourceMetadataOnly, Stage: stage, Metadata: m}
	if m.OnChainID != nil {
		merged.ID = *m.OnChainID
	}
	return merged
}

// Merged pairs a proposal with its repository document.
func Merged(p *Proposal, m *ProposalMetadata, id uint64, stage Stage) MergedProposal {
	return MergedProposal{source: SourceBoth, ID: id, Stage: stage, Proposal: p, Metadata: m}
}

// Source reports which sides are present.
func (m MergedProposal) Source() MergeSource { return m.source }

// RepoNumber returns the repository number linked to this record, from
// metadata when present, otherwise extracted from the proposal URL.
func (m MergedProposal) RepoNumber() (uint64, bool) {
	if m.Metadata != nil {
		return m.Metadata.RepoNumber, true
	}
	if m.Proposal != nil {
		return RepoNumberFromURL(m.Proposal.URL)
	}
	return 0, false
}

// VoteTotals returns the best available totals: live chain totals when the
// proposal is present, else the metadata snapshot, else zeros.
func (m MergedProposal) VoteTotals() VoteTotals {
	if m.Proposal != nil {
		return m.Proposal.Votes
	}
	if m.Metadata != nil && m.Metadata.Votes != nil {
		return *m.Metadata.Votes
	}
	return EmptyVoteTotals()
}
