// Package txqueue implements the safety layer between signing a
// transaction and broadcasting it: transactions are queued signed-but-
// unsent so a confirmation step can review them before they hit the
// network.
package txqueue

import "time"

// Status is the lifecycle state of a QueuedTransaction.
type Status string

const (
	StatusPending      Status = "pending"
	StatusBroadcasting Status = "broadcasting"
	StatusBroadcast    Status = "broadcast"
	StatusConfirmed    Status = "confirmed"
	StatusFailed       Status = "failed"
	StatusExpired      Status = "expired"
)

// QueuedTransaction is a signed transaction awaiting broadcast approval.
// It is immutable except through the manager's state-machine operations.
type QueuedTransaction struct {
	UUID     string
	Network  string // "base" or "mainnet"
	From     string
	To       string
	Value    string // wei, decimal string
	Data     string // hex-encoded calldata
	GasLimit string

	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	Nonce                uint64

	SignedTxHex string

	Status Status
	TxHash string
	Error  string

	CreatedAt   time.Time
	BroadcastAt time.Time

	ChannelID string

	ExplorerURL string
}

// Summary is a lighter view of QueuedTransaction for listing.
type Summary struct {
	UUID           string
	Network        string
	From           string
	To             string
	Value          string
	ValueFormatted string
	Data           string
	Status         Status
	TxHash         string
	ExplorerURL    string
	Error          string
	CreatedAt      time.Time
	BroadcastAt    time.Time
}

// Summarize builds a Summary from a QueuedTransaction.
func Summarize(tx *QueuedTransaction) Summary {
	return Summary{
		UUID:           tx.UUID,
		Network:        tx.Network,
		From:           tx.From,
		To:             tx.To,
		Value:          tx.Value,
		ValueFormatted: FormatValueETH(tx.Value),
		Data:           tx.Data,
		Status:         tx.Status,
		TxHash:         tx.TxHash,
		ExplorerURL:    tx.ExplorerURL,
		Error:          tx.Error,
		CreatedAt:      tx.CreatedAt,
		BroadcastAt:    tx.BroadcastAt,
	}
}
