package index

import (
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

// MemoryIndex holds the committed entry sequence in display order.
// Readers get copies; the session controller is the only writer.
type MemoryIndex struct {
	mu         sync.RWMutex
	entries    []domain.Entry
	positions  map[string]int // ID -> position in entries
	lastReload time.Time      // Timestamp of last full replace
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		positions: make(map[string]int),
	}
}

// Replace swaps in a new sequence
func (idx *MemoryIndex) Replace(entries []domain.Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = domain.CloneEntries(entries)
	idx.positions = make(map[string]int, len(entries))
	for i, e := range idx.entries {
		idx.positions[e.ID] = i
	}
	idx.lastReload = time.Now()
}

// All returns a copy of the sequence
func (idx *MemoryIndex) All() []domain.Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return domain.CloneEntries(idx.entries)
}

// Get retrieves an entry by ID
func (idx *MemoryIndex) Get(id string) (domain.Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.positions[id]
	if !ok {
		return domain.Entry{}, false
	}
	return idx.entries[i], true
}

// Position returns where id sits in display order
func (idx *MemoryIndex) Position(id string) (int, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.positions[id]
	return i, ok
}

// IDsAt maps display positions to IDs. Front ends that show rows by
// number resolve them here once, then act on IDs.
func (idx *MemoryIndex) IDsAt(positions []int) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(idx.entries) {
			return nil, &domain.ValidationError{
				Field:  "position",
				Reason: fmt.Sprintf("%d is out of range (0..%d)", p, len(idx.entries)-1),
			}
		}
		ids = append(ids, idx.entries[p].ID)
	}
	return ids, nil
}

// Count returns the number of entries
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// GetLastReload returns the timestamp of the last replace
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
