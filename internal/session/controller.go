// Package session is the facade front ends talk to. It owns the entry
// list, persists every mutation and tracks the chains it started.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/index"
	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/metrics"
	"github.com/MrSnakeDoc/mysa/internal/scheduler"
	"github.com/MrSnakeDoc/mysa/internal/store"
)

// ErrDegraded is returned by mutations while the durable list could not be
// read. Saving then would replace entries the session never saw.
var ErrDegraded = errors.New("durable list not loaded, reload before editing")

// Input describes an entry to add or the new payload of an edit.
type Input struct {
	// Kind is optional. When empty it is derived from Reference.
	Kind            domain.Kind
	Reference       string
	IntervalMinutes int
}

// Controller serialises mutations and keeps memory and storage converged.
type Controller struct {
	store   store.Store
	index   *index.MemoryIndex
	sched   *scheduler.Scheduler
	notes   *Notifications
	metrics metrics.Recorder
	logger  logger.Logger

	mu     sync.Mutex
	chains []*scheduler.Chain // created since the last StopAll

	// loadErr is set when Load could not read a durable list that may still
	// exist. Saves are refused until a Load or Reload succeeds.
	loadErr error
}

// New creates a controller. Call Load before serving requests.
func New(
	st store.Store,
	sched *scheduler.Scheduler,
	notes *Notifications,
	rec metrics.Recorder,
	log logger.Logger,
) *Controller {
	if notes == nil {
		notes = NewNotifications(0)
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Controller{
		store:   st,
		index:   index.NewMemoryIndex(),
		sched:   sched,
		notes:   notes,
		metrics: rec,
		logger:  log,
	}
}

// Load reads the durable list. A failure is logged and the session starts
// empty; the error is still returned for callers that want to surface it.
// Unless the store already moved the bad copy aside, mutations are refused
// with ErrDegraded until a later Load or Reload succeeds.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load entries, starting empty",
			logger.String("backend", c.store.Backend()),
			logger.Error(err))
		c.notes.Add(Notification{Message: err.Error()})
		c.index.Replace(nil)
		c.loadErr = nil
		if !errors.Is(err, store.ErrQuarantined) {
			c.loadErr = err
		}
		return err
	}

	c.loadErr = nil
	c.index.Replace(entries)
	c.logger.Info("entries loaded",
		logger.String("backend", c.store.Backend()),
		logger.Int("count", len(entries)))
	return nil
}

// Reload replaces the in-memory list with the durable one. Unlike Load, a
// failure keeps the current list. Running chains are not touched.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload entries: %w", err)
	}
	if c.loadErr != nil {
		c.logger.Info("durable list readable again, saves re-enabled")
		c.loadErr = nil
	}
	c.index.Replace(entries)
	c.logger.Info("entries reloaded", logger.Int("count", len(entries)))
	return nil
}

// ─────────────────────────────
// Queries
// ─────────────────────────────

func (c *Controller) Entries() []domain.Entry { return c.index.All() }

func (c *Controller) Get(id string) (domain.Entry, error) {
	e, ok := c.index.Get(id)
	if !ok {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return e, nil
}

// IDsAt resolves display positions to IDs.
func (c *Controller) IDsAt(positions []int) ([]string, error) {
	return c.index.IDsAt(positions)
}

func (c *Controller) Count() int { return c.index.Count() }

func (c *Controller) Index() *index.MemoryIndex { return c.index }

func (c *Controller) Backend() string { return c.store.Backend() }

// LoadError returns the failure that keeps saves disabled, or nil.
func (c *Controller) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *Controller) Notifications(since uint64) []Notification {
	return c.notes.List(since)
}

// LiveChains counts every chain the scheduler still holds.
func (c *Controller) LiveChains() int {
	if c.sched == nil {
		return 0
	}
	return c.sched.ActiveCount()
}

// Active lists the chains created since the last StopAll that are still live.
func (c *Controller) Active() []scheduler.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]scheduler.Snapshot, 0, len(c.chains))
	for _, ch := range c.chains {
		if ch.State().Terminal() {
			continue
		}
		out = append(out, ch.Snapshot())
	}
	return out
}

// ─────────────────────────────
// Mutations
// ─────────────────────────────

func (c *Controller) AddURL(ctx context.Context, ref string, minutes int) (domain.Entry, error) {
	return c.Add(ctx, Input{Kind: domain.KindURL, Reference: ref, IntervalMinutes: minutes})
}

func (c *Controller) AddFile(ctx context.Context, path string, minutes int) (domain.Entry, error) {
	return c.Add(ctx, Input{Kind: domain.KindFile, Reference: path, IntervalMinutes: minutes})
}

// Add validates in, appends it and persists.
func (c *Controller) Add(ctx context.Context, in Input) (domain.Entry, error) {
	ref, err := in.reference()
	if err != nil {
		return domain.Entry{}, err
	}
	entry := domain.NewEntry(ref, in.IntervalMinutes)
	if err := entry.Validate(); err != nil {
		return domain.Entry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := append(c.index.All(), entry)
	if err := c.commit(ctx, next); err != nil {
		return domain.Entry{}, err
	}

	c.logger.Info("entry added",
		logger.String("id", entry.ID),
		logger.String("kind", string(entry.Ref.Kind)),
		logger.Int("interval_minutes", entry.IntervalMinutes))
	return entry, nil
}

// AddMany appends several entries with a single save.
func (c *Controller) AddMany(ctx context.Context, inputs []Input) ([]domain.Entry, error) {
	added := make([]domain.Entry, 0, len(inputs))
	for i, in := range inputs {
		ref, err := in.reference()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		e := domain.NewEntry(ref, in.IntervalMinutes)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		added = append(added, e)
	}
	if len(added) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.commit(ctx, append(c.index.All(), added...)); err != nil {
		return nil, err
	}
	c.logger.Info("entries added", logger.Int("count", len(added)))
	return added, nil
}

// Edit replaces the reference and interval of id in place. Chains already
// running for the entry keep their old snapshot.
func (c *Controller) Edit(ctx context.Context, id string, in Input) (domain.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.index.All()
	pos, ok := c.index.Position(id)
	if !ok {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	current := next[pos]
	ref, err := in.reference()
	if err != nil {
		return domain.Entry{}, err
	}
	if in.Kind == "" && ref.Value == current.Ref.Value {
		ref.Kind = current.Ref.Kind
	}

	updated := domain.Entry{ID: id, Ref: ref, IntervalMinutes: in.IntervalMinutes}
	if err := updated.Validate(); err != nil {
		return domain.Entry{}, err
	}
	next[pos] = updated

	if err := c.commit(ctx, next); err != nil {
		return domain.Entry{}, err
	}

	c.logger.Info("entry edited",
		logger.String("id", id),
		logger.String("kind", string(updated.Ref.Kind)),
		logger.Int("interval_minutes", updated.IntervalMinutes))
	return updated, nil
}

// Delete removes every id and persists once. Unknown IDs fail the whole
// call. Chains started from deleted entries keep running.
func (c *Controller) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, &domain.ValidationError{Field: "ids", Reason: "cannot be empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.index.Position(id); !ok {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		drop[id] = struct{}{}
	}

	current := c.index.All()
	next := make([]domain.Entry, 0, len(current))
	for _, e := range current {
		if _, gone := drop[e.ID]; !gone {
			next = append(next, e)
		}
	}

	if err := c.commit(ctx, next); err != nil {
		return 0, err
	}

	removed := len(current) - len(next)
	c.logger.Info("entries deleted", logger.Int("count", removed))
	return removed, nil
}

// ─────────────────────────────
// Activation
// ─────────────────────────────

// OpenAll activates every entry in display order.
func (c *Controller) OpenAll() []*scheduler.Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.index.All()
	chains := c.sched.ActivateAll(entries)
	c.track(chains)

	c.logger.Info("opening all entries", logger.Int("count", len(entries)))
	return chains
}

// OpenSelected activates the given entries in the order the IDs are given.
func (c *Controller) OpenSelected(ids []string) ([]*scheduler.Chain, error) {
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Field: "ids", Reason: "cannot be empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	selected := make([]domain.Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := c.index.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		selected = append(selected, e)
	}

	chains := c.sched.ActivateAll(selected)
	c.track(chains)

	c.logger.Info("opening selected entries", logger.Int("count", len(selected)))
	return chains, nil
}

// StopAll cancels every chain created since the previous StopAll.
func (c *Controller) StopAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.sched.CancelAll(c.chains)
	c.chains = nil

	c.logger.Info("stopped all chains", logger.Int("cancelled", n))
	return n
}

// ─────────────────────────────
// Internals (c.mu held)
// ─────────────────────────────

func (c *Controller) commit(ctx context.Context, next []domain.Entry) error {
	if c.loadErr != nil {
		return store.SaveError(c.store.Backend(), fmt.Errorf("%w: %v", ErrDegraded, c.loadErr))
	}

	err := c.store.Save(ctx, next)
	c.metrics.RecordStoreSave(c.store.Backend(), err)
	if err != nil {
		c.logger.Error("failed to save entries",
			logger.String("backend", c.store.Backend()),
			logger.Error(err))
		return err
	}
	c.index.Replace(next)
	return nil
}

func (c *Controller) track(chains []*scheduler.Chain) {
	live := c.chains[:0]
	for _, ch := range c.chains {
		if !ch.State().Terminal() {
			live = append(live, ch)
		}
	}
	c.chains = append(live, chains...)
}

func (in Input) reference() (domain.Reference, error) {
	value := strings.TrimSpace(in.Reference)
	if value == "" {
		return domain.Reference{}, &domain.ValidationError{Field: "reference", Reason: "cannot be empty"}
	}
	if in.IntervalMinutes < 0 {
		return domain.Reference{}, &domain.ValidationError{Field: "interval_minutes", Reason: "must be >= 0"}
	}

	kind := in.Kind
	switch {
	case kind == "":
		kind = domain.Classify(value)
	case !kind.Valid():
		return domain.Reference{}, &domain.ValidationError{Field: "kind", Reason: "must be url or file"}
	}
	return domain.Reference{Kind: kind, Value: value}, nil
}
