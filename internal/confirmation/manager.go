package confirmation

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Manager enforces at-most-one-pending-confirmation-per-channel, with
// lazy expiry on access (an expired entry is removed the next time it's
// looked at, rather than swept by a background goroutine).
type Manager struct {
	pending *xsync.MapOf[string, Pending]
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{pending: xsync.NewMapOf[string, Pending]()}
}

// AddPending records a new pending confirmation for a channel, replacing
// any prior one (the channel's confirmation gate is always single-slot).
func (m *Manager) AddPending(p Pending) Pending {
	m.pending.Store(p.ChannelID, p)
	return p
}

// GetPending returns the channel's pending confirmation if one exists
// and hasn't expired. An expired entry is evicted as a side effect.
func (m *Manager) GetPending(channelID string) (Pending, bool) {
	p, ok := m.pending.Load(channelID)
	if !ok {
		return Pending{}, false
	}
	if p.IsExpired() {
		m.pending.Delete(channelID)
		return Pending{}, false
	}
	return p, true
}

// HasPending reports whether channelID has a live pending confirmation.
func (m *Manager) HasPending(channelID string) bool {
	_, ok := m.GetPending(channelID)
	return ok
}

// Confirm removes and returns the channel's pending confirmation, but
// only if it hasn't expired; an expired entry is discarded and reported
// as not found.
func (m *Manager) Confirm(channelID string) (Pending, bool) {
	p, loaded := m.pending.LoadAndDelete(channelID)
	if !loaded || p.IsExpired() {
		return Pending{}, false
	}
	return p, true
}

// Cancel removes the channel's pending confirmation unconditionally,
// expired or not, and reports whether one existed.
func (m *Manager) Cancel(channelID string) (Pending, bool) {
	return m.pending.LoadAndDelete(channelID)
}

// CleanupExpired removes every expired entry. Exposed for callers that
// want to run it on a periodic schedule; the manager itself never starts
// a background goroutine, since lazy expiry on access is sufficient for
// correctness.
func (m *Manager) CleanupExpired() {
	m.pending.Range(func(channelID string, p Pending) bool {
		if p.IsExpired() {
			m.pending.Delete(channelID)
		}
		return true
	})
}
