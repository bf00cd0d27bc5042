package jobs

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/store"
)

const (
	// DefaultQuarantineTTL is how long malformed documents are kept
	DefaultQuarantineTTL = 30 * 24 * time.Hour // 30 days
)

// QuarantineSource lists and removes malformed documents. *store.FileStore
// implements it.
type QuarantineSource interface {
	Quarantined() ([]store.QuarantinedFile, error)
	RemoveQuarantined(path string) error
}

// QuarantineCollector deletes quarantined documents older than the TTL
type QuarantineCollector struct {
	source   QuarantineSource
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewQuarantineCollector creates a new collector
func NewQuarantineCollector(
	source QuarantineSource,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
) *QuarantineCollector {
	if ttl == 0 {
		ttl = DefaultQuarantineTTL
	}

	return &QuarantineCollector{
		source:   source,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a collection now and then on every interval
func (qc *QuarantineCollector) Start(ctx context.Context) error {
	if _, err := qc.Collect(ctx); err != nil {
		qc.logger.Warn("initial quarantine collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(qc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := qc.Collect(ctx); err != nil {
					qc.logger.Error("quarantine collection failed",
						logger.Error(err))
				}
			case <-qc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (qc *QuarantineCollector) Stop() {
	close(qc.stopCh)
}

// Collect removes expired documents and returns how many were deleted
func (qc *QuarantineCollector) Collect(ctx context.Context) (int, error) {
	files, err := qc.source.Quarantined()
	if err != nil {
		return 0, err
	}

	now := qc.now()
	deleted := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}

		age := now.Sub(f.At)
		if age < qc.ttl {
			continue
		}

		if err := qc.source.RemoveQuarantined(f.Path); err != nil {
			qc.logger.Warn("failed to delete quarantined document",
				logger.String("path", f.Path),
				logger.Error(err))
			continue
		}

		qc.logger.Info("deleted quarantined document",
			logger.String("path", f.Path),
			logger.String("age", age.String()))
		deleted++
	}

	if deleted == 0 {
		qc.logger.Debug("no quarantined documents to collect")
	}
	return deleted, nil
}
