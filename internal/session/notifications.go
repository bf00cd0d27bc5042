package session

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/scheduler"
)

const DefaultNotificationBuffer = 50

// Notification is a non-fatal problem shown to the user, typically an
// open that failed.
type Notification struct {
	Seq       uint64    `json:"seq"`
	At        time.Time `json:"at"`
	ChainID   string    `json:"chain_id,omitempty"`
	EntryID   string    `json:"entry_id,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Firing    int       `json:"firing,omitempty"`
	Message   string    `json:"message"`
}

// Notifications keeps the most recent notifications in a fixed-size ring.
type Notifications struct {
	mu   sync.Mutex
	buf  []Notification
	next int
	full bool
	seq  uint64
}

func NewNotifications(size int) *Notifications {
	if size <= 0 {
		size = DefaultNotificationBuffer
	}
	return &Notifications{buf: make([]Notification, size)}
}

// Add stores note, overwriting the oldest entry when the ring is full.
func (n *Notifications) Add(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	note.Seq = n.seq
	if note.At.IsZero() {
		note.At = time.Now()
	}
	n.buf[n.next] = note
	n.next = (n.next + 1) % len(n.buf)
	if n.next == 0 {
		n.full = true
	}
}

// OnFailure adapts scheduler failures. Pass it as scheduler.Options.OnFailure.
func (n *Notifications) OnFailure(f scheduler.Failure) {
	n.Add(Notification{
		At:        f.At,
		ChainID:   f.ChainID,
		EntryID:   f.Entry.ID,
		Reference: f.Entry.Ref.Value,
		Firing:    f.Firing,
		Message:   f.Err.Error(),
	})
}

// List returns notifications oldest first. With since > 0 only those with
// a larger sequence number are returned.
func (n *Notifications) List(since uint64) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var ordered []Notification
	if n.full {
		ordered = append(ordered, n.buf[n.next:]...)
	}
	ordered = append(ordered, n.buf[:n.next]...)

	out := make([]Notification, 0, len(ordered))
	for _, note := range ordered {
		if note.Seq > since {
			out = append(out, note)
		}
	}
	return out
}
