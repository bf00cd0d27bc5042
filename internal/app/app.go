package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/config"
	"github.com/MrSnakeDoc/mysa/internal/httpserver"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/jobs"
	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/version"
)

// App is the long-running server: HTTP API plus background jobs.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	core     *Core
	server   *httpserver.Server
	reloader *jobs.StoreReloader
	gc       *jobs.QuarantineCollector // nil unless the file driver is used
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	core, err := NewCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	var watchPath string
	if cfg.WatchStore {
		if fst := core.FileStore(); fst != nil {
			watchPath = fst.Path()
			// The watcher needs the directory to exist before the first save.
			if err := core.Fs.MkdirAll(filepath.Dir(watchPath), 0o755); err != nil {
				core.Close()
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	reloader := jobs.NewStoreReloader(
		core.Session,
		loggerClient,
		cfg.ReloadInterval,
		watchPath,
		reloadTrigger,
	)

	var gc *jobs.QuarantineCollector
	if fst := core.FileStore(); fst != nil {
		gc = jobs.NewQuarantineCollector(fst, loggerClient, cfg.GCInterval, cfg.QuarantineTTL)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Session:         core.Session,
		StorePing:       core.StorePing,
		Reloads:         reloader,
		ReloadTrigger:   reloadTrigger,
		Gatherer:        core.Registry,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		core:     core,
		server:   httpserver.New(cfg, loggerClient, d),
		reloader: reloader,
		gc:       gc,
	}, nil
}

func (a *App) Run(parent context.Context) error {
	a.logger.Infof("🚀 Starting MySA v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("MySA %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.core.Close()

	// Start store reloader (manual trigger, optional interval and file watch)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store reloader: %w", err)
	}
	a.logger.Info("store reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval),
		logger.Bool("watch", a.cfg.WatchStore))

	// Start quarantine collector
	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start quarantine collector: %w", err)
		}
		a.logger.Info("quarantine collector started",
			logger.Duration("interval", a.cfg.GCInterval),
			logger.Duration("ttl", a.cfg.QuarantineTTL))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if n := a.core.Session.StopAll(); n > 0 {
		a.logger.Info("cancelled running chains", logger.Int("count", n))
	}

	a.logger.Info("✅ MySA stopped cleanly")
	return nil
}
