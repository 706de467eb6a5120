// models/chain_action.go
package models

type ChainActionStatus string

const (
	ChainActionPending   ChainActionStatus = "pending"
	ChainActionConfirmed ChainActionStatus = "confirmed"
	ChainActionFailed    ChainActionStatus = "failed"
)

// ChainAction is an audit row for one contract invocation. It records what
// happened; it never drives an automatic retry.
type ChainAction struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Action      string            `gorm:"type:varchar(32);not null" json:"action"`
	Address     string            `gorm:"type:varchar(64);not null" json:"address"`
	TxHash      *string           `gorm:"type:varchar(66);index" json:"tx_hash,omitempty"`
	Status      ChainActionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	BlockNumber *uint64           `json:"block_number,omitempty"`
	Error       string            `gorm:"type:text" json:"error,omitempty"`

	Timestamps
}
