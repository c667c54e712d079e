package txqueue

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNotFound is returned when an operation references an unknown UUID.
type ErrNotFound struct{ UUID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("queued transaction %s not found", e.UUID) }

// ErrInvalidTransition is returned when a state-machine operation is
// attempted from a status it doesn't apply to.
type ErrInvalidTransition struct {
	UUID string
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("queued transaction %s: cannot go from %s to %s", e.UUID, e.From, e.To)
}

// Filter narrows List results. A zero-value Filter matches everything.
type Filter struct {
	Status    Status // empty matches any status
	ChannelID string // empty matches any channel
}

func (f Filter) matches(tx *QueuedTransaction) bool {
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.ChannelID != "" && tx.ChannelID != f.ChannelID {
		return false
	}
	return true
}

// Manager implements the transaction queue state machine described in
// spec.md §4.F: Pending → Broadcasting → Broadcast → Confirmed/Failed,
// with Expired and deny(removed) as terminal side exits. Backed by a
// lock-free concurrent map since submissions, status reads, and
// transitions all happen from independent goroutines (one per in-flight
// tool call).
type Manager struct {
	txs *xsync.MapOf[string, *QueuedTransaction]
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{txs: xsync.NewMapOf[string, *QueuedTransaction]()}
}

// Submit queues a newly signed transaction in Pending state and returns
// its UUID.
func (m *Manager) Submit(tx QueuedTransaction) string {
	tx.UUID = uuid.NewString()
	tx.Status = StatusPending
	tx.CreatedAt = time.Now()
	m.txs.Store(tx.UUID, &tx)
	return tx.UUID
}

// Get returns a copy of the queued transaction, or ErrNotFound.
func (m *Manager) Get(id string) (QueuedTransaction, error) {
	tx, ok := m.txs.Load(id)
	if !ok {
		return QueuedTransaction{}, &ErrNotFound{UUID: id}
	}
	return *tx, nil
}

// MarkBroadcasting transitions Pending → Broadcasting.
func (m *Manager) MarkBroadcasting(id string) error {
	return m.transition(id, StatusPending, StatusBroadcasting, func(tx *QueuedTransaction) {})
}

// MarkBroadcast transitions Broadcasting → Broadcast, recording the tx
// hash and deriving its explorer URL.
func (m *Manager) MarkBroadcast(id, txHash string) error {
	return m.transition(id, StatusBroadcasting, StatusBroadcast, func(tx *QueuedTransaction) {
		tx.TxHash = txHash
		tx.ExplorerURL = ExplorerURL(tx.Network, txHash)
		tx.BroadcastAt = time.Now()
	})
}

// MarkConfirmed transitions Broadcast → Confirmed (receipt status == 1).
func (m *Manager) MarkConfirmed(id string) error {
	return m.transition(id, StatusBroadcast, StatusConfirmed, func(tx *QueuedTransaction) {})
}

// MarkFailed transitions Broadcasting or Broadcast → Failed, recording
// reason. Both source states are accepted since a send_raw error and a
// reverted receipt (status == 0) both land here.
func (m *Manager) MarkFailed(id, reason string) error {
	tx, ok := m.txs.Load(id)
	if !ok {
		return &ErrNotFound{UUID: id}
	}
	if tx.Status != StatusBroadcasting && tx.Status != StatusBroadcast {
		return &ErrInvalidTransition{UUID: id, From: tx.Status, To: StatusFailed}
	}
	updated := *tx
	updated.Status = StatusFailed
	updated.Error = reason
	m.txs.Store(id, &updated)
	return nil
}

// MarkExpired transitions Pending → Expired, for transactions that sat
// unapproved past their confirmation TTL.
func (m *Manager) MarkExpired(id string) error {
	return m.transition(id, StatusPending, StatusExpired, func(tx *QueuedTransaction) {})
}

// Remove deletes a queued transaction outright (the "deny" exit from
// Pending, or cleanup of a terminal entry).
func (m *Manager) Remove(id string) {
	m.txs.Delete(id)
}

// List returns all queued transactions matching filter, newest first.
func (m *Manager) List(filter Filter) []QueuedTransaction {
	var out []QueuedTransaction
	m.txs.Range(func(_ string, tx *QueuedTransaction) bool {
		if filter.matches(tx) {
			out = append(out, *tx)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Manager) transition(id string, from, to Status, mutate func(*QueuedTransaction)) error {
	tx, ok := m.txs.Load(id)
	if !ok {
		return &ErrNotFound{UUID: id}
	}
	if tx.Status != from {
		return &ErrInvalidTransition{UUID: id, From: tx.Status, To: to}
	}
	updated := *tx
	updated.Status = to
	mutate(&updated)
	m.txs.Store(id, &updated)
	return nil
}
