package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/govsync-org/govsync/internal/domain/models"
)

// Store owns the gorm handle and hands out repositories.
type Store struct {
	DB *gorm.DB
}

// Open connects and migrates the derived tables. The events table is
// migrated too so local runs work standalone, but this system only ever
// reads it.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Proposal{},
		&models.Vote{},
		&models.Approval{},
		&models.Event{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Proposals() *ProposalRepo { return &ProposalRepo{db: s.DB} }
func (s *Store) Votes() *VoteRepo         { return &VoteRepo{db: s.DB} }
func (s *Store) Approvals() *ApprovalRepo { return &ApprovalRepo{db: s.DB} }
func (s *Store) Events() *EventRepo       { return &EventRepo{db: s.DB} }
