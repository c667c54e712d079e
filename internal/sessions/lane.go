package sessions

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard represents exclusive occupancy of a session's lane. Release
// must be called exactly once to hand the lane to the next waiter (if
// any); it is safe to call more than once.
type Guard struct {
	once    sync.Once
	release func()
}

// Release returns the lane to the pool, waking the next FIFO waiter.
func (g *Guard) Release() {
	g.once.Do(g.release)
}

// laneEntry is the per-session turnstile. turnstile is a buffered
// channel of capacity 1 that holds a token when the lane is free;
// acquiring is a channel receive, releasing is a channel send. Go
// serves blocked channel receivers in the order they started
// waiting, which is what gives Acquire its FIFO guarantee without a
// hand-rolled waiter queue.
type laneEntry struct {
	turnstile chan struct{}
	refs      int   // outstanding acquirers (holding or waiting); for GC of idle entries
	held      int32 // atomic: 1 while a guard is currently held
	waiters   int32 // atomic: count of goroutines blocked in Acquire
}

// LaneManager serializes orchestrator runs per session: at most one
// run executes for a given session id at a time, while distinct
// session ids proceed fully in parallel. The orchestrator must acquire
// exactly one lane for the full duration of a request (admission,
// iteration loop, and persistence) and must never hold a second lane
// while waiting on a first — doing so risks deadlock across sessions
// that happen to share a downstream resource.
type LaneManager struct {
	mu    sync.Mutex
	lanes map[string]*laneEntry
}

// NewLaneManager returns an empty lane manager.
func NewLaneManager() *LaneManager {
	return &LaneManager{lanes: make(map[string]*laneEntry)}
}

// Acquire blocks until the session's lane is free, in strict FIFO
// order relative to other waiters on the same session, or until ctx
// is cancelled. On cancellation, no waiter registration is left
// behind: the goroutine is simply removed from the channel's
// recv-queue by the Go runtime as part of the select.
func (m *LaneManager) Acquire(ctx context.Context, sessionID string) (*Guard, error) {
	entry := m.ref(sessionID)

	atomic.AddInt32(&entry.waiters, 1)
	select {
	case <-entry.turnstile:
		atomic.AddInt32(&entry.waiters, -1)
	case <-ctx.Done():
		atomic.AddInt32(&entry.waiters, -1)
		m.unref(sessionID, entry)
		return nil, ctx.Err()
	}

	atomic.StoreInt32(&entry.held, 1)

	var released bool
	guard := &Guard{}
	guard.release = func() {
		if released {
			return
		}
		released = true
		atomic.StoreInt32(&entry.held, 0)
		entry.turnstile <- struct{}{}
		m.unref(sessionID, entry)
	}
	return guard, nil
}

// ref returns the session's lane entry, creating it (with its token
// already deposited, i.e. free) if this is the first acquirer.
func (m *LaneManager) ref(sessionID string) *laneEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lanes[sessionID]
	if !ok {
		entry = &laneEntry{turnstile: make(chan struct{}, 1)}
		entry.turnstile <- struct{}{}
		m.lanes[sessionID] = entry
	}
	entry.refs++
	return entry
}

// unref drops one outstanding acquirer and deletes the lane entry
// once nothing references it, so idle sessions don't leak memory.
func (m *LaneManager) unref(sessionID string, entry *laneEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		if cur, ok := m.lanes[sessionID]; ok && cur == entry {
			delete(m.lanes, sessionID)
		}
	}
}

// Stats reports aggregate lane occupancy: the number of sessions
// currently holding their lane, and the total number of goroutines
// waiting across all sessions.
func (m *LaneManager) Stats() (activeLanes int, waiters int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.lanes {
		if atomic.LoadInt32(&entry.held) == 1 {
			activeLanes++
		}
		waiters += int(atomic.LoadInt32(&entry.waiters))
	}
	return activeLanes, waiters
}
