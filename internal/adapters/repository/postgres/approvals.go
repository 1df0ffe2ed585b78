package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/domain/models"
)

// ApprovalRepo implements usecase.ApprovalRepository.
type ApprovalRepo struct {
	db *gorm.DB
}

// InsertIgnore inserts the row unless the (chain, multisig tx, approver)
// natural key already exists. Duplicate deliveries become no-ops.
func (r *ApprovalRepo) InsertIgnore(ctx context.Context, row *models.Approval) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (r *ApprovalRepo) Get(ctx context.Context, chainID, multisigTxID uint64, approver string) (*models.Approval, error) {
	var row models.Approval
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND multisig_tx_id = ? AND approver_address = ?", chainID, multisigTxID, approver).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get approval: %w", err)
	}
	return &row, nil
}

func (r *ApprovalRepo) Delete(ctx context.Context, chainID, multisigTxID uint64, approver string) error {
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND multisig_tx_id = ? AND approver_address = ?", chainID, multisigTxID, approver).
		Delete(&models.Approval{}).Error
	if err != nil {
		return fmt.Errorf("delete approval: %w", err)
	}
	return nil
}

func (r *ApprovalRepo) ProcessedTxIDs(ctx context.Context, chainID uint64) (map[uint64]bool, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.Approval{}).
		Where("chain_id = ?", chainID).
		Distinct().
		Pluck("multisig_tx_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list processed tx ids: %w", err)
	}
	processed := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		processed[id] = true
	}
	return processed, nil
}
