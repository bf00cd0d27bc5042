package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/session"
)

// LastReloader reports when the entry list was last reloaded from the store.
type LastReloader interface {
	LastReload() time.Time
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time                // for testing, defaults to time.Now
	AllowedHosts    []string                        // Host headers allowed to access the server
	AllowedCIDRS    []string                        // IPs allowed to access the admin and API endpoints
	TrustProxy      bool                            // true if running behind a trusted reverse proxy
	RateLimitBurst  int                             // per-IP burst on /api
	RateLimitPerMin int                             // per-IP sustained rate on /api
	Session         *session.Controller             // entry list, activation and notifications
	StorePing       func(ctx context.Context) error // nil when the backend has nothing to ping
	Reloads         LastReloader                    // background reloader (nil if not running)
	ReloadTrigger   chan struct{}                   // Channel to trigger a manual store reload
	Gatherer        prometheus.Gatherer             // source for /metrics (nil disables the route)
}
