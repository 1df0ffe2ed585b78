package models

import "time"

// Vote is one running vote total for a proposal. The contract exposes running
// sums, so counts are overwritten on conflict, never added.
type Vote struct {
	ChainID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	ProposalID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Type       string `gorm:"primaryKey;size:8"`

	Count string `gorm:"type:numeric(78,0);not null"`

	UpdatedAt time.Time
}

func (Vote) TableName() string { return "votes" }
