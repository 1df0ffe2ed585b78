package models

import "time"

// Event is one row of the append-only raw-events table. This core only ever
// reads it, grouped and filtered by event kind and the embedded proposal or
// multisig transaction id.
type Event struct {
	ID uint64 `gorm:"primaryKey"`

	ChainID     uint64 `gorm:"not null;index"`
	Kind        string `gorm:"size:32;not null;index"`
	Address     string `gorm:"size:42;not null;index"`
	BlockNumber uint64 `gorm:"not null;index"`
	LogIndex    uint   `gorm:"not null"`
	TxHash      string `gorm:"size:66;not null"`
	Timestamp   time.Time

	ProposalID    *uint64 `gorm:"index"`
	TransactionID *uint64 `gorm:"index"`
	Sender        string  `gorm:"size:42"`

	// Args keeps the full decoded argument map for kinds whose payload goes
	// beyond the indexed columns above.
	Args []byte `gorm:"type:jsonb"`
}

func (Event) TableName() string { return "events" }
