package models

import "time"

// Proposal is the durable per-proposal row. It is written only by the state
// upserter; every other component treats it as read-only.
type Proposal struct {
	ChainID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	ProposalID uint64 `gorm:"primaryKey;autoIncrement:false"`

	Stage      string `gorm:"size:16;not null;index"`
	RepoNumber uint64 `gorm:"index"`
	Title      string
	Author     string
	URL        string

	Proposer string `gorm:"size:42"`
	// uint256 columns are stored as numeric(78,0); gorm maps them through
	// strings to avoid loss.
	Deposit       string `gorm:"type:numeric(78,0)"`
	NetworkWeight string `gorm:"type:numeric(78,0)"`
	Upvotes       string `gorm:"type:numeric(78,0)"`

	// Milestone timestamp/block pairs. Null until the milestone happens.
	QueuedAt        *time.Time
	QueuedAtBlock   *uint64
	DequeuedAt      *time.Time
	DequeuedAtBlock *uint64
	ApprovedAt      *time.Time
	ApprovedAtBlock *uint64
	ExecutedAt      *time.Time
	ExecutedAtBlock *uint64
	ExpiredAt       *time.Time
	ExpiredAtBlock  *uint64

	// PastID back-references the previous submission of the same repository
	// number, forming a singly-linked resubmission chain.
	PastID *uint64

	// QuorumVotes is the quorum requirement captured at referendum time.
	QuorumVotes *string `gorm:"type:numeric(78,0)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Proposal) TableName() string { return "proposals" }
