package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govsync-org/govsync/internal/domain/models"
)

// ProposalRepo implements usecase.ProposalRepository.
type ProposalRepo struct {
	db *gorm.DB
}

var proposalConflict = []clause.Column{{Name: "chain_id"}, {Name: "proposal_id"}}

// mutableColumns are refreshed on every upsert regardless of intent.
var mutableColumns = []string{
	"stage", "repo_number", "title", "author", "url", "proposer",
	"deposit", "network_weight", "upvotes", "quorum_votes", "updated_at",
}

// milestoneColumns hold timestamps recorded once; the default "update" intent
// must not clobber them with nulls when a later partial run lacks them.
var milestoneColumns = []string{
	"queued_at", "queued_at_block",
	"dequeued_at", "dequeued_at_block",
	"approved_at", "approved_at_block",
	"executed_at", "executed_at_block",
	"expired_at", "expired_at_block",
}

// UpsertProposals writes all rows in one statement. With replay every column
// is replaced; otherwise milestone columns keep their existing value whenever
// the incoming one is null.
func (r *ProposalRepo) UpsertProposals(ctx context.Context, rows []*models.Proposal, replay bool) error {
	if len(rows) == 0 {
		return nil
	}

	var onConflict clause.OnConflict
	if replay {
		onConflict = clause.OnConflict{
			Columns:   proposalConflict,
			DoUpdates: clause.AssignmentColumns(append(append([]string{}, mutableColumns...), milestoneColumns...)),
		}
	} else {
		assignments := map[string]any{}
		for _, col := range mutableColumns {
			assignments[col] = gorm.Expr(fmt.Sprintf("excluded.%s", col))
		}
		for _, col := range milestoneColumns {
			assignments[col] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, proposals.%s)", col, col))
		}
		onConflict = clause.OnConflict{
			Columns:   proposalConflict,
			DoUpdates: clause.Assignments(assignments),
		}
	}

	if err := r.db.WithContext(ctx).Clauses(onConflict).Create(&rows).Error; err != nil {
		return fmt.Errorf("upsert %d proposals: %w", len(rows), err)
	}
	return nil
}

func (r *ProposalRepo) ListProposals(ctx context.Context, chainID uint64) ([]*models.Proposal, error) {
	var rows []*models.Proposal
	err := r.db.WithContext(ctx).
		Where("chain_id = ?", chainID).
		Order("proposal_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return rows, nil
}

func (r *ProposalRepo) SetPastID(ctx context.Context, chainID, proposalID uint64, pastID *uint64) error {
	err := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("chain_id = ? AND proposal_id = ?", chainID, proposalID).
		Update("past_id", pastID).Error
	if err != nil {
		return fmt.Errorf("set past id on %d: %w", proposalID, err)
	}
	return nil
}
