package models

import "time"

// Approval is one multisig owner's confirmation of a governance approval
// transaction. Rows are insert-ignored on the (chain, multisig tx, approver)
// natural key and deleted when a matching Revocation arrives.
type Approval struct {
	ChainID         uint64 `gorm:"primaryKey;autoIncrement:false"`
	MultisigTxID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	ApproverAddress string `gorm:"primaryKey;size:42"`

	ProposalID  uint64 `gorm:"not null;index"`
	ConfirmedAt time.Time
	BlockNumber uint64
	TxHash      string `gorm:"size:66"`
}

func (Approval) TableName() string { return "approvals" }
