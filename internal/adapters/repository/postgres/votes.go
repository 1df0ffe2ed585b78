package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govsync-org/govsync/internal/domain/models"
)

// VoteRepo implements usecase.VoteRepository.
type VoteRepo struct {
	db *gorm.DB
}

// UpsertVotes overwrites counts on conflict. The contract exposes running
// totals, not deltas, so overwriting is the idempotent choice.
func (r *VoteRepo) UpsertVotes(ctx context.Context, rows []*models.Vote) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain_id"}, {Name: "proposal_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert %d votes: %w", len(rows), err)
	}
	return nil
}

func (r *VoteRepo) ListVotes(ctx context.Context, chainID uint64) ([]*models.Vote, error) {
	var rows []*models.Vote
	err := r.db.WithContext(ctx).
		Where("chain_id = ?", chainID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return rows, nil
}
