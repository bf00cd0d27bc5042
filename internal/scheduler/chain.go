package scheduler

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/clock"
	"github.com/MrSnakeDoc/mysa/internal/domain"
)

// State is where a chain is in its lifecycle.
//
//	Pending → Firing → Armed → Pending → ...
//	                 ↘ Done       (interval 0)
//	                 ↘ Cancelled  (flag seen before re-arm)
//	Armed → Cancelled             (cancel-all)
type State int

const (
	StatePending State = iota
	StateFiring
	StateArmed
	StateCancelled
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFiring:
		return "firing"
	case StateArmed:
		return "armed"
	case StateCancelled:
		return "cancelled"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether the chain will never open again.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateDone
}

// Chain is one activation of an entry: the immediate open plus, for a
// recurring entry, the successor timers. It carries a snapshot of the entry
// taken at activation, so later edits or deletes do not touch it.
type Chain struct {
	id    string
	seq   uint64
	s     *Scheduler
	entry domain.Entry

	// guarded by s.mu
	state     State
	cancelled bool
	firings   int
	timer     clock.Timer
	nextFire  time.Time
}

func (c *Chain) ID() string { return c.id }

func (c *Chain) Entry() domain.Entry { return c.entry }

func (c *Chain) State() State {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.state
}

// Firings counts completed opens, successful or not.
func (c *Chain) Firings() int {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.firings
}

// Cancelled reports whether cancel-all has flagged the chain.
func (c *Chain) Cancelled() bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.cancelled
}

// NextFire is the deadline of the armed timer, zero when not armed.
func (c *Chain) NextFire() time.Time {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.state != StateArmed {
		return time.Time{}
	}
	return c.nextFire
}

// Snapshot is a read-only view of a chain for listings.
type Snapshot struct {
	ID       string      `json:"id"`
	EntryID  string      `json:"entry_id"`
	Kind     domain.Kind `json:"kind"`
	Ref      string      `json:"reference"`
	Interval int         `json:"interval_minutes"`
	State    string      `json:"state"`
	Firings  int         `json:"firings"`
	NextFire *time.Time  `json:"next_fire,omitempty"`
}

func (c *Chain) Snapshot() Snapshot {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	snap := Snapshot{
		ID:       c.id,
		EntryID:  c.entry.ID,
		Kind:     c.entry.Ref.Kind,
		Ref:      c.entry.Ref.Value,
		Interval: c.entry.IntervalMinutes,
		State:    c.state.String(),
		Firings:  c.firings,
	}
	if c.state == StateArmed {
		next := c.nextFire
		snap.NextFire = &next
	}
	return snap
}

func sortChains(chains []*Chain) {
	sort.Slice(chains, func(i, j int) bool { return chains[i].seq < chains[j].seq })
}
