package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/mysa/internal/logger"
)

const DefaultWatchDebounce = 250 * time.Millisecond

// Reloader re-reads the entry list from durable state.
type Reloader interface {
	Reload(ctx context.Context) error
}

// StoreReloader handles periodic, manual and file-change reloads of the
// entry list.
type StoreReloader struct {
	target        Reloader
	logger        logger.Logger
	interval      time.Duration
	watchPath     string
	debounce      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	fileChanged   chan struct{}

	mu         sync.Mutex
	lastReload time.Time
	reloads    int
}

// NewStoreReloader creates a reloader. interval <= 0 disables the ticker,
// an empty watchPath disables file watching.
func NewStoreReloader(
	target Reloader,
	log logger.Logger,
	interval time.Duration,
	watchPath string,
	manualTrigger chan struct{},
) *StoreReloader {
	return &StoreReloader{
		target:        target,
		logger:        log,
		interval:      interval,
		watchPath:     watchPath,
		debounce:      DefaultWatchDebounce,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		fileChanged:   make(chan struct{}, 1),
	}
}

// Start begins the reload loop
func (sr *StoreReloader) Start(ctx context.Context) error {
	if sr.watchPath != "" {
		w, err := sr.newWatcher()
		if err != nil {
			return err
		}
		go sr.watch(ctx, w)
	}

	var tick <-chan time.Time
	if sr.interval > 0 {
		ticker := time.NewTicker(sr.interval)
		tick = ticker.C
		go func() {
			<-sr.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-tick:
				sr.run(ctx, "interval")
			case <-sr.manualTrigger:
				sr.logger.Info("manual reload triggered")
				sr.run(ctx, "manual")
			case <-sr.fileChanged:
				sr.run(ctx, "file change")
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *StoreReloader) Stop() {
	close(sr.stopCh)
}

// LastReload returns when the last successful reload finished
func (sr *StoreReloader) LastReload() time.Time {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.lastReload
}

// Reloads returns the number of successful reloads
func (sr *StoreReloader) Reloads() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.reloads
}

func (sr *StoreReloader) run(ctx context.Context, reason string) {
	if err := sr.target.Reload(ctx); err != nil {
		sr.logger.Error("failed to reload entries",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}

	sr.mu.Lock()
	sr.lastReload = time.Now()
	sr.reloads++
	sr.mu.Unlock()

	sr.logger.Debug("entries reloaded", logger.String("reason", reason))
}

func (sr *StoreReloader) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	if err := w.Add(filepath.Dir(sr.watchPath)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (sr *StoreReloader) watch(ctx context.Context, w *fsnotify.Watcher) {
	defer func() { _ = w.Close() }()

	file := filepath.Base(sr.watchPath)
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(sr.debounce, func() {
			select {
			case sr.fileChanged <- struct{}{}:
			default:
			}
		})
	}

	sr.logger.Info("watching store file", logger.String("path", sr.watchPath))

	for {
		select {
		case <-ctx.Done():
			return
		case <-sr.stopCh:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				sr.logger.Warn("store watch overflow, forcing reload", logger.Error(err))
				schedule()
				continue
			}
			sr.logger.Warn("store watch error", logger.Error(err))
		}
	}
}
