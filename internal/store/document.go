package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

// Document is the persisted layout: two named collections, one per
// reference kind. It stays readable by files written before IDs and
// ordering were tracked.
type Document struct {
	URLs  []Record `json:"urls"`
	Files []Record `json:"files"`
}

// Record is one persisted entry. Exactly one of URL and Path is set.
type Record struct {
	ID    string  `json:"ID,omitempty"`
	URL   string  `json:"URL,omitempty"`
	Path  string  `json:"Path,omitempty"`
	Timer Minutes `json:"Timer"`
	Order *int    `json:"Order,omitempty"`
}

// Minutes is written as a JSON integer. Older files hold the value as a
// numeric string, which is still read. An empty string or null is 0, the
// same as an interval left blank when the entry was added. Anything else,
// negative or above domain.MaxIntervalMinutes, is rejected.
type Minutes int

func (m *Minutes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}

	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if raw == "" {
			*m = 0
			return nil
		}
	} else {
		raw = string(b)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("timer %q is not a whole number of minutes", raw)
	}
	if n < 0 {
		return fmt.Errorf("timer %d is negative", n)
	}
	if n > domain.MaxIntervalMinutes {
		return fmt.Errorf("timer %d exceeds %d minutes", n, domain.MaxIntervalMinutes)
	}
	*m = Minutes(n)
	return nil
}

// NewRecord converts an entry at the given position.
func NewRecord(e domain.Entry, order int) Record {
	r := Record{
		ID:    e.ID,
		Timer: Minutes(e.IntervalMinutes),
		Order: &order,
	}
	if e.Ref.Kind == domain.KindURL {
		r.URL = e.Ref.Value
	} else {
		r.Path = e.Ref.Value
	}
	return r
}

// Entry converts the record back. Records without an ID get a fresh one.
func (r Record) Entry() (domain.Entry, error) {
	var ref domain.Reference
	switch {
	case r.URL != "" && r.Path != "":
		return domain.Entry{}, fmt.Errorf("record %q has both URL and Path", r.ID)
	case r.URL != "":
		ref = domain.URL(r.URL)
	case r.Path != "":
		ref = domain.FilePath(r.Path)
	default:
		return domain.Entry{}, fmt.Errorf("record %q has no URL or Path", r.ID)
	}

	id := r.ID
	if id == "" {
		id = domain.NewID()
	}

	e := domain.Entry{ID: id, Ref: ref, IntervalMinutes: int(r.Timer)}
	if err := e.Validate(); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

// Encode splits entries into the two collections, keeping their position
// in Order.
func Encode(entries []domain.Entry) Document {
	doc := Document{URLs: []Record{}, Files: []Record{}}
	for i, e := range entries {
		r := NewRecord(e, i)
		if e.Ref.Kind == domain.KindURL {
			doc.URLs = append(doc.URLs, r)
		} else {
			doc.Files = append(doc.Files, r)
		}
	}
	return doc
}

// Decode rebuilds the ordered entry list. Records carrying Order come
// first, sorted by it; records without it keep urls-then-files order.
func Decode(doc Document) ([]domain.Entry, error) {
	type positioned struct {
		key   int
		entry domain.Entry
	}

	total := len(doc.URLs) + len(doc.Files)
	items := make([]positioned, 0, total)
	seen := make(map[string]bool, total)

	legacy := 0
	add := func(r Record, want domain.Kind) error {
		if want == domain.KindURL && r.Path != "" {
			return fmt.Errorf("record %q in urls has a Path", r.ID)
		}
		if want == domain.KindFile && r.URL != "" {
			return fmt.Errorf("record %q in files has a URL", r.ID)
		}
		e, err := r.Entry()
		if err != nil {
			return err
		}
		if seen[e.ID] {
			e.ID = domain.NewID()
		}
		seen[e.ID] = true

		key := math.MaxInt32 + legacy
		if r.Order != nil {
			key = *r.Order
		} else {
			legacy++
		}
		items = append(items, positioned{key: key, entry: e})
		return nil
	}

	for _, r := range doc.URLs {
		if err := add(r, domain.KindURL); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Files {
		if err := add(r, domain.KindFile); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })

	entries := make([]domain.Entry, len(items))
	for i, it := range items {
		entries[i] = it.entry
	}
	return entries, nil
}

// Marshal renders entries as an indented JSON document.
func Marshal(entries []domain.Entry) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(entries), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a JSON document. Missing collections are empty.
func Unmarshal(data []byte) ([]domain.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse entries document: %w", err)
	}
	return Decode(doc)
}
