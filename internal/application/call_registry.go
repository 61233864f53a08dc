package application

import (
	"sort"
	"sync"
	"time"
)

// CallStatus summarizes one in-progress or recently ended call for the
// monitor TUI. A snapshot, not a live handle — the TUI never reaches back
// into the mediator that produced it.
type CallStatus struct {
	CallID       string
	CallerNumber string
	CustomerName string
	Identified   bool
	State        string
	StartedAt    time.Time
	EndedAt      time.Time
}

// CallRegistry is a mutex-guarded, in-process table of live and recently
// ended calls. Every SessionMediator registers itself on Run and marks
// itself ended on closeCall (ended entries stay in the table); the
// monitor TUI polls it.
type CallRegistry struct {
	mu    sync.RWMutex
	calls map[string]*CallStatus
}

func NewCallRegistry() *CallRegistry {
	return &CallRegistry{calls: make(map[string]*CallStatus)}
}

func (r *CallRegistry) Upsert(status CallStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[status.CallID] = &status
}

func (r *CallRegistry) SetState(callID, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[callID]; ok {
		c.State = state
	}
}

func (r *CallRegistry) End(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[callID]; ok {
		c.EndedAt = time.Now().UTC()
		c.State = "ended"
	}
}

// Snapshot returns a stable copy of every tracked call, most recent first.
func (r *CallRegistry) Snapshot() []CallStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CallStatus, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}
