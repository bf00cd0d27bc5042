package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxIntervalMinutes caps the recurrence period at one year.
const MaxIntervalMinutes = 365 * 24 * 60

// Kind tells how a reference is activated.
type Kind string

const (
	KindURL  Kind = "url"
	KindFile Kind = "file"
)

// Valid reports whether k is a known reference kind.
func (k Kind) Valid() bool {
	return k == KindURL || k == KindFile
}

// Reference is the thing an entry opens: a web address or a local path.
// The kind is fixed when the entry is created; nothing downstream sniffs
// the value to decide how to open it.
type Reference struct {
	Kind  Kind
	Value string
}

// URL builds a web address reference.
func URL(v string) Reference { return Reference{Kind: KindURL, Value: v} }

// FilePath builds a local path reference.
func FilePath(v string) Reference { return Reference{Kind: KindFile, Value: v} }

// Classify applies the legacy prefix rule: anything starting with "http" is
// a web address, everything else is a path. Only used at input boundaries
// where the caller did not say which kind it meant.
func Classify(v string) Kind {
	if strings.HasPrefix(v, "http") {
		return KindURL
	}
	return KindFile
}

// RefFromString builds a reference using Classify.
func RefFromString(v string) Reference {
	return Reference{Kind: Classify(v), Value: v}
}

func (r Reference) String() string { return r.Value }

// Entry is one registered reference and its recurrence interval.
type Entry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is a stable surrogate key assigned at creation.
	// Edits, deletes and activations always target an ID, never a row number.
	ID string

	// ─────────────────────────────
	// Payload (replaced by edits)
	// ─────────────────────────────

	// Ref is what gets opened.
	Ref Reference

	// IntervalMinutes is the recurrence period. 0 means open once.
	// Never above MaxIntervalMinutes.
	IntervalMinutes int
}

// NewEntry creates an entry with a fresh ID.
func NewEntry(ref Reference, intervalMinutes int) Entry {
	return Entry{
		ID:              NewID(),
		Ref:             ref,
		IntervalMinutes: intervalMinutes,
	}
}

// NewID returns a new entry identifier.
func NewID() string {
	return uuid.NewString()
}

// Recurring reports whether activating the entry arms a chain.
func (e Entry) Recurring() bool {
	return e.IntervalMinutes > 0
}

// Validate checks the invariants every stored entry must satisfy.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Ref.Value) == "" {
		return &ValidationError{Field: "reference", Reason: "cannot be empty"}
	}
	if !e.Ref.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "must be url or file"}
	}
	if e.IntervalMinutes < 0 {
		return &ValidationError{Field: "interval_minutes", Reason: "must be >= 0"}
	}
	if e.IntervalMinutes > MaxIntervalMinutes {
		return &ValidationError{Field: "interval_minutes", Reason: fmt.Sprintf("must be <= %d", MaxIntervalMinutes)}
	}
	return nil
}

// CloneEntries returns a copy of entries safe to mutate.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
