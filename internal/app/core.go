package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/MrSnakeDoc/mysa/internal/config"
	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/metrics"
	"github.com/MrSnakeDoc/mysa/internal/opener"
	"github.com/MrSnakeDoc/mysa/internal/redis"
	"github.com/MrSnakeDoc/mysa/internal/scheduler"
	"github.com/MrSnakeDoc/mysa/internal/session"
	"github.com/MrSnakeDoc/mysa/internal/store"
	redisstore "github.com/MrSnakeDoc/mysa/internal/store/redis"
	"github.com/MrSnakeDoc/mysa/internal/store/sqlite"
	"github.com/MrSnakeDoc/mysa/internal/utils"
)

// Core is everything a front end needs to drive a session: the store,
// the scheduler and the controller on top of them. The CLI uses it
// directly; serve wraps it with the HTTP server and background jobs.
type Core struct {
	Config    *config.Config
	Logger    logger.Logger
	Fs        afero.Fs
	Store     store.Store
	StorePing func(ctx context.Context) error // nil for the file backend
	Registry  *prometheus.Registry
	Scheduler *scheduler.Scheduler
	Session   *session.Controller
}

// NewCore opens the configured store, starts the scheduler and loads the
// entry list. A load failure is not fatal: the session starts empty and
// the failure shows up as a notification.
func NewCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Core, error) {
	fs := afero.NewOsFs()

	c := &Core{
		Config:   cfg,
		Logger:   log,
		Fs:       fs,
		Registry: prometheus.NewRegistry(),
	}
	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	op, err := opener.New(cfg.Opener, fs, log)
	if err != nil {
		utils.MustClose(c.Store, log, "store")
		return nil, err
	}

	collector := metrics.NewCollector(c.Registry)
	notes := session.NewNotifications(cfg.NotificationBuffer)

	c.Scheduler = scheduler.New(op, log, scheduler.Options{
		Unit:        cfg.IntervalUnit,
		OpenTimeout: cfg.OpenTimeout,
		Metrics:     collector,
		OnFailure:   notes.OnFailure,
	})
	if err := c.Scheduler.Start(ctx); err != nil {
		utils.MustClose(c.Store, log, "store")
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	c.Session = session.New(c.Store, c.Scheduler, notes, collector, log)
	_ = c.Session.Load(ctx)

	return c, nil
}

func (c *Core) openStore(ctx context.Context) error {
	cfg := c.Config

	switch cfg.StoreDriver {
	case config.DriverRedis:
		// Fail fast if Redis is unavailable
		c.Logger.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		st := redisstore.NewStore(client, cfg.RedisKeyPrefix)
		c.Store = st
		c.StorePing = st.Ping

	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, sqlite.Config{
			Path:        cfg.SQLitePath,
			BusyTimeout: cfg.SQLiteBusyTimeout,
		})
		if err != nil {
			return err
		}
		c.Store = st
		c.StorePing = st.Ping

	default:
		c.Store = store.NewFileStore(c.Fs, cfg.DataFile)
	}

	c.Logger.Info("entry store ready", logger.String("backend", c.Store.Backend()))
	return nil
}

// FileStore returns the JSON file backend, or nil for other drivers.
func (c *Core) FileStore() *store.FileStore {
	fst, _ := c.Store.(*store.FileStore)
	return fst
}

// Close stops every chain and releases the store. The redis store owns
// its client and closes it.
func (c *Core) Close() {
	c.Scheduler.Stop()
	if err := c.Store.Close(); err != nil {
		c.Logger.Warnf("failed to close %s store: %v", c.Store.Backend(), err)
		return
	}
	c.Logger.Info("✅ store closed cleanly", logger.String("backend", c.Store.Backend()))
}
