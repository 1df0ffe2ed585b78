package usecase

import (
	"log/slog"
	"sort"

	"github.com/govsync-org/govsync/internal/domain"
)

// Reconcile merges on-chain proposals with repository metadata into the
// canonical proposal view, resolving identifier mismatches pessimistically
// and linking resubmission chains.
type Reconcile struct {
	log *slog.Logger
}

func NewReconcile(log *slog.Logger) *Reconcile {
	return &Reconcile{log: log.With("component", "Reconcile")}
}

// Merge pairs each proposal with at most one metadata record and returns the
// sorted canonical view. executedIDs is the set of proposal ids known (from
// the event history) to have been executed; it is the tie-breaker whenever a
// document's declared id disagrees with the proposal it matched.
func (r *Reconcile) Merge(proposals []*domain.Proposal, metadata []*domain.ProposalMetadata, executedIDs map[uint64]bool) []domain.MergedProposal {
	sorted := make([]*domain.Proposal, len(proposals))
	copy(sorted, proposals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	pool := make([]*domain.ProposalMetadata, len(metadata))
	copy(pool, metadata)
	sort.Slice(pool, func(i, j int) bool { return pool[i].RepoNumber > pool[j].RepoNumber })

	merged := make([]domain.MergedProposal, 0, len(sorted)+len(pool))

	for _, proposal := range sorted {
		match := takeMatch(&pool, proposal)
		if match == nil {
			merged = append(merged, domain.ChainOnly(proposal))
			continue
		}

		if match.OnChainID != nil && *match.OnChainID != proposal.ID {
			record := r.pessimisticallyHandleMismatchedIDs(executedIDs, match, proposal)
			merged = append(merged, record)
			continue
		}

		stage := proposal.Stage
		switch {
		case executedIDs[proposal.ID]:
			stage = domain.StageExecuted
		case proposal.Stage == domain.StageExpiration && match.Stage.IsTerminal():
			// The chain reports Expiration for anything it dropped; the
			// document knows whether it was actually rejected or withdrawn.
			stage = match.Stage
		}
		merged = append(merged, domain.Merged(proposal, match, proposal.ID, stage))
	}

	// Leftover metadata becomes drafts or expired entries.
	for _, meta := range pool {
		merged = append(merged, mergeUnmatchedMetadata(meta, executedIDs))
	}

	merged = dedupeByCanonicalID(merged)
	merged = dropExpiredNoise(merged)
	sortMerged(merged)
	return merged
}

// takeMatch finds and removes the metadata record for a proposal: first by
// exact on-chain id equality, then by the repository number embedded in the
// proposal's discussion URL.
func takeMatch(pool *[]*domain.ProposalMetadata, proposal *domain.Proposal) *domain.ProposalMetadata {
	for i, meta := range *pool {
		if meta.OnChainID != nil && *meta.OnChainID == proposal.ID {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return meta
		}
	}
	repoNum, ok := domain.RepoNumberFromURL(proposal.URL)
	if !ok {
		return nil
	}
	for i, meta := range *pool {
		if meta.RepoNumber == repoNum {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return meta
		}
	}
	return nil
}

// pessimisticallyHandleMismatchedIDs resolves the case where a document
// declares an on-chain id different from the proposal it matched. Every
// branch produces a best-effort record; none errors.
func (r *Reconcile) pessimisticallyHandleMismatchedIDs(executedIDs map[uint64]bool, meta *domain.ProposalMetadata, proposal *domain.Proposal) domain.MergedProposal {
	declared := *meta.OnChainID

	switch {
	case executedIDs[declared]:
		// The document's id executed: the document is right and the matched
		// proposal is a newer resubmission artifact. Its vote totals belong
		// to the wrong id, so they are discarded.
		r.log.Debug("mismatched ids: metadata id executed, trusting metadata",
			"declared", declared, "proposal", proposal.ID)
		stripped := *proposal
		stripped.Votes = domain.EmptyVoteTotals()
		stripped.Upvotes = nil
		record := domain.Merged(&stripped, meta, declared, domain.StageExecuted)
		record.History = []uint64{proposal.ID}
		return record

	case executedIDs[proposal.ID]:
		// The proposal itself executed: the document's declared id is stale.
		r.log.Debug("mismatched ids: proposal id executed, reassigning metadata",
			"declared", declared, "proposal", proposal.ID)
		reassigned := *meta
		id := proposal.ID
		reassigned.OnChainID = &id
		record := domain.Merged(proposal, &reassigned, proposal.ID, domain.StageExecuted)
		record.History = []uint64{declared}
		return record

	case proposal.Stage == domain.StageExpiration &&
		(meta.Stage == domain.StageRejected || meta.Stage == domain.StageWithdrawn):
		record := domain.Merged(proposal, meta, proposal.ID, meta.Stage)
		record.History = []uint64{declared}
		return record

	default:
		// No execution evidence either way. Take the larger id as canonical
		// and the stage from whichever record owns it.
		canonical, history := declared, proposal.ID
		stage := meta.Stage
		if proposal.ID > declared {
			canonical, history = proposal.ID, declared
			stage = proposal.Stage
		}
		r.log.Debug("mismatched ids: no execution evidence, taking larger id",
			"canonical", canonical, "history", history)
		record := domain.Merged(proposal, meta, canonical, stage)
		record.History = []uint64{history}
		return record
	}
}

func mergeUnmatchedMetadata(meta *domain.ProposalMetadata, executedIDs map[uint64]bool) domain.MergedProposal {
	if meta.OnChainID != nil && executedIDs[*meta.OnChainID] {
		return domain.MetadataOnly(meta, domain.StageExecuted)
	}
	if meta.Stage == domain.StageQueued {
		// "proposed" with no live on-chain record. With an id the submission
		// lapsed; without one the document is a mislabeled draft.
		if meta.OnChainID != nil {
			return domain.MetadataOnly(meta, domain.StageExpiration)
		}
		return domain.MetadataOnly(meta, domain.StageNone)
	}
	return domain.MetadataOnly(meta, meta.Stage)
}

// dedupeByCanonicalID enforces at most one record per distinct canonical id,
// preferring the record that carries both sides and folding the loser's ids
// into history.
func dedupeByCanonicalID(records []domain.MergedProposal) []domain.MergedProposal {
	byID := make(map[uint64]int)
	out := make([]domain.MergedProposal, 0, len(records))
	for _, record := range records {
		if record.ID == 0 {
			out = append(out, record)
			continue
		}
		idx, seen := byID[record.ID]
		if !seen {
			byID[record.ID] = len(out)
			out = append(out, record)
			continue
		}
		keep, drop := out[idx], record
		if drop.Source() == domain.SourceBoth && keep.Source() != domain.SourceBoth {
			keep, drop = drop, keep
		}
		keep.History = append(keep.History, drop.History...)
		out[idx] = keep
	}
	return out
}

// dropExpiredNoise removes expired on-chain-only proposals with no repository
// linkage at all; they are abandoned submissions nobody documented.
func dropExpiredNoise(records []domain.MergedProposal) []domain.MergedProposal {
	out := records[:0]
	for _, record := range records {
		if record.Source() == domain.SourceChainOnly && record.Stage == domain.StageExpiration {
			if _, ok := record.RepoNumber(); !ok {
				continue
			}
		}
		out = append(out, record)
	}
	return out
}

func sortMerged(records []domain.MergedProposal) {
	sort.SliceStable(records, func(i, j int) bool {
		ai, aj := records[i].Stage.IsActive(), records[j].Stage.IsActive()
		if ai != aj {
			return ai
		}
		ri, iok := records[i].RepoNumber()
		rj, jok := records[j].RepoNumber()
		if iok && jok && ri != rj {
			return ri > rj
		}
		if iok != jok {
			return iok
		}
		return records[i].ID > records[j].ID
	})
}
