// Package scheduler turns entries into recurrence chains: an immediate open
// followed by a self-re-arming one-shot timer per chain.
package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/clock"
	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/metrics"
	"github.com/MrSnakeDoc/mysa/internal/opener"
)

const (
	DefaultUnit        = time.Minute
	DefaultOpenTimeout = 30 * time.Second

	maxDelay = time.Duration(math.MaxInt64)
)

// Failure describes an open that did not succeed. The chain keeps running.
type Failure struct {
	ChainID string
	Entry   domain.Entry
	Firing  int
	At      time.Time
	Err     error
}

// Options tunes a Scheduler. Zero values get defaults.
type Options struct {
	// Unit is the length of one interval step. Entries count in minutes,
	// tests and demos shrink this.
	Unit        time.Duration
	OpenTimeout time.Duration
	Clock       clock.Clock
	Metrics     metrics.Recorder
	OnFailure   func(Failure)
}

type job struct {
	chain   *Chain
	trigger string
}

// Scheduler owns every live chain and the dispatcher that runs opens.
type Scheduler struct {
	opener      opener.Opener
	logger      logger.Logger
	clock       clock.Clock
	metrics     metrics.Recorder
	onFailure   func(Failure)
	unit        time.Duration
	openTimeout time.Duration

	mu       sync.Mutex
	chains   map[string]*Chain
	seq      uint64
	queue    []job
	inFlight bool
	changed  chan struct{}

	wake     chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopOnce sync.Once
}

// New creates a scheduler. Nothing is opened until Start is called.
func New(op opener.Opener, log logger.Logger, opts Options) *Scheduler {
	if opts.Unit <= 0 {
		opts.Unit = DefaultUnit
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = DefaultOpenTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}

	return &Scheduler{
		opener:      op,
		logger:      log,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		onFailure:   opts.OnFailure,
		unit:        opts.Unit,
		openTimeout: opts.OpenTimeout,
		chains:      make(map[string]*Chain),
		changed:     make(chan struct{}),
		wake:        make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the dispatcher. Opens run with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.started = true
	s.mu.Unlock()

	go s.dispatch(ctx)

	s.logger.Info("scheduler started",
		logger.Duration("unit", s.unit),
		logger.Duration("open_timeout", s.openTimeout))
	return nil
}

// Stop halts the dispatcher and disarms every chain. Safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		s.mu.Lock()
		started := s.started
		stopped := 0
		for _, c := range s.chains {
			c.cancelled = true
			if c.state == StateArmed && c.timer != nil {
				c.timer.Stop()
			}
			c.state = StateCancelled
			stopped++
		}
		s.chains = make(map[string]*Chain)
		s.queue = nil
		s.metrics.SetActiveChains(0)
		s.notifyLocked()
		s.mu.Unlock()

		if started {
			<-s.doneCh
		}
		s.logger.Info("scheduler stopped", logger.Int("chains_dropped", stopped))
	})
}

// Unit returns the duration of one interval step.
func (s *Scheduler) Unit() time.Duration { return s.unit }

// Activate queues an immediate open of entry and, when the entry recurs,
// arms a chain after it. It never blocks on the opener.
func (s *Scheduler) Activate(entry domain.Entry) *Chain {
	s.mu.Lock()
	c := s.newChainLocked(entry)
	s.enqueueLocked(job{chain: c, trigger: metrics.TriggerInitial})
	s.mu.Unlock()

	s.signal()
	return c
}

// ActivateAll queues every entry in order. The dispatcher opens them in that
// order before any timer-driven open that is queued later.
func (s *Scheduler) ActivateAll(entries []domain.Entry) []*Chain {
	if len(entries) == 0 {
		return nil
	}

	out := make([]*Chain, 0, len(entries))
	s.mu.Lock()
	for _, e := range entries {
		c := s.newChainLocked(e)
		s.enqueueLocked(job{chain: c, trigger: metrics.TriggerInitial})
		out = append(out, c)
	}
	s.mu.Unlock()

	s.signal()
	return out
}

// CancelAll flags every chain in the set. Armed chains are disarmed now.
// A chain that is queued or firing finishes that open and then stops
// instead of re-arming. Returns how many chains were newly cancelled.
func (s *Scheduler) CancelAll(chains []*Chain) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range chains {
		if c == nil || c.cancelled || c.state.Terminal() {
			continue
		}
		c.cancelled = true
		n++

		if c.state == StateArmed {
			if c.timer != nil {
				c.timer.Stop()
				c.timer = nil
			}
			s.retireLocked(c, StateCancelled)
		}
	}

	if n > 0 {
		s.metrics.RecordCancellations(n)
		s.notifyLocked()
	}
	return n
}

// Active returns the live chains in creation order.
func (s *Scheduler) Active() []*Chain {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Chain, 0, len(s.chains))
	for _, c := range s.chains {
		out = append(out, c)
	}
	sortChains(out)
	return out
}

// ActiveCount returns the number of live chains.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chains)
}

// WaitIdle blocks until no open is queued or running.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	return s.waitFor(ctx, func() bool { return len(s.queue) == 0 && !s.inFlight })
}

// WaitQuiet blocks until no chain is live.
func (s *Scheduler) WaitQuiet(ctx context.Context) error {
	return s.waitFor(ctx, func() bool { return len(s.chains) == 0 })
}

func (s *Scheduler) waitFor(ctx context.Context, cond func() bool) error {
	for {
		s.mu.Lock()
		if cond() {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-s.stopCh:
			s.mu.Lock()
			ok := cond()
			s.mu.Unlock()
			if ok {
				return nil
			}
			return errors.New("scheduler stopped")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ─────────────────────────────
// Internals (s.mu held where noted)
// ─────────────────────────────

func (s *Scheduler) newChainLocked(entry domain.Entry) *Chain {
	s.seq++
	c := &Chain{
		id:    domain.NewID(),
		seq:   s.seq,
		s:     s,
		entry: entry,
		state: StatePending,
	}
	s.chains[c.id] = c
	s.metrics.SetActiveChains(len(s.chains))
	return c
}

func (s *Scheduler) enqueueLocked(j job) {
	s.queue = append(s.queue, j)
	s.notifyLocked()
}

func (s *Scheduler) retireLocked(c *Chain, final State) {
	c.state = final
	c.nextFire = time.Time{}
	delete(s.chains, c.id)
	s.metrics.SetActiveChains(len(s.chains))
	s.notifyLocked()
}

func (s *Scheduler) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	defer close(s.doneCh)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
		j := s.queue[0]
		s.queue[0] = job{}
		s.queue = s.queue[1:]
		s.inFlight = true
		j.chain.state = StateFiring
		s.mu.Unlock()

		s.fire(ctx, j)

		s.mu.Lock()
		s.inFlight = false
		s.notifyLocked()
		s.mu.Unlock()
	}
}

// fire opens the chain's reference and then either re-arms or retires it.
// The open always completes; cancellation is only observed before re-arm.
func (s *Scheduler) fire(ctx context.Context, j job) {
	c := j.chain
	ref := c.entry.Ref

	openCtx, cancel := context.WithTimeout(ctx, s.openTimeout)
	err := s.opener.Open(openCtx, ref)
	cancel()

	s.metrics.RecordActivation(string(ref.Kind), j.trigger)

	s.mu.Lock()
	c.firings++
	firing := c.firings

	switch {
	case c.cancelled:
		s.retireLocked(c, StateCancelled)
	case !c.entry.Recurring():
		s.retireLocked(c, StateDone)
	default:
		d := s.delay(c.entry.IntervalMinutes)
		c.state = StateArmed
		c.nextFire = s.clock.Now().Add(d)
		c.timer = s.clock.AfterFunc(d, func() { s.onTimer(c) })
	}
	s.mu.Unlock()

	if err != nil {
		s.reportFailure(c, firing, err)
		return
	}

	s.logger.Debug("reference opened",
		logger.String("chain_id", c.id),
		logger.String("kind", string(ref.Kind)),
		logger.String("reference", ref.Value),
		logger.String("trigger", j.trigger),
		logger.Int("firing", firing))
}

// delay is intervals × unit, saturating at maxDelay instead of wrapping
// negative.
func (s *Scheduler) delay(intervals int) time.Duration {
	if time.Duration(intervals) > maxDelay/s.unit {
		return maxDelay
	}
	return time.Duration(intervals) * s.unit
}

// onTimer runs on the clock's goroutine. It only checks the cancellation
// flag and hands the open to the dispatcher.
func (s *Scheduler) onTimer(c *Chain) {
	s.mu.Lock()
	if c.cancelled || c.state != StateArmed {
		if !c.state.Terminal() {
			s.retireLocked(c, StateCancelled)
		}
		s.mu.Unlock()
		return
	}
	c.timer = nil
	c.state = StatePending
	s.enqueueLocked(job{chain: c, trigger: metrics.TriggerTimer})
	s.mu.Unlock()

	s.signal()
}

func (s *Scheduler) reportFailure(c *Chain, firing int, err error) {
	var openErr *domain.OpenError
	if !errors.As(err, &openErr) {
		err = &domain.OpenError{Ref: c.entry.Ref, Err: err}
	}

	s.metrics.RecordOpenFailure(string(c.entry.Ref.Kind))
	s.logger.Warn("failed to open reference",
		logger.String("chain_id", c.id),
		logger.String("reference", c.entry.Ref.Value),
		logger.Int("firing", firing),
		logger.Error(err))

	if s.onFailure != nil {
		s.onFailure(Failure{
			ChainID: c.id,
			Entry:   c.entry,
			Firing:  firing,
			At:      s.clock.Now(),
			Err:     err,
		})
	}
}
