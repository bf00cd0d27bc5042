package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Entry store
	StoreDriver       string        // "file" | "redis" | "sqlite"
	DataFile          string        // JSON document used by the file driver
	SQLitePath        string        // database file used by the sqlite driver
	SQLiteBusyTimeout time.Duration // sqlite busy_timeout pragma
	RedisKeyPrefix    string        // key namespace used by the redis driver

	// Activation
	Opener       string        // "system" | "log"
	IntervalUnit time.Duration // length of one interval step (default: 1m)
	OpenTimeout  time.Duration // max time a single open may take

	// Background jobs
	ReloadInterval time.Duration // periodic reload from the store (0 = disabled)
	WatchStore     bool          // reload when the data file changes (file driver only)
	QuarantineTTL  time.Duration // keep malformed documents this long
	GCInterval     time.Duration // interval between quarantine collections

	NotificationBuffer int // number of notifications kept in memory

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy      bool     // true => trust X-Forwarded-For headers
	RateLimitBurst  int      // per-IP burst on the API
	RateLimitPerMin int      // per-IP sustained requests per minute
}

func Load() *Config {
	dataDir := defaultDataDir()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MYSA_LISTEN_PORT", "127.0.0.1:8080"),
		ShutdownTimeout: mustDuration("MYSA_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MYSA_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MYSA_PRETTY_LOG", true),

		// Entry store
		StoreDriver:       strings.ToLower(getenv("MYSA_STORE_DRIVER", DriverFile)),
		DataFile:          getenv("MYSA_DATA_FILE", filepath.Join(dataDir, "data.json")),
		SQLitePath:        getenv("MYSA_SQLITE_PATH", filepath.Join(dataDir, "mysa.db")),
		SQLiteBusyTimeout: mustDuration("MYSA_SQLITE_BUSY_TIMEOUT", 5*time.Second),
		RedisKeyPrefix:    getenv("MYSA_REDIS_KEY_PREFIX", "mysa:"),

		// Activation
		Opener:       strings.ToLower(getenv("MYSA_OPENER", "system")),
		IntervalUnit: mustDuration("MYSA_INTERVAL_UNIT", time.Minute),
		OpenTimeout:  mustDuration("MYSA_OPEN_TIMEOUT", 30*time.Second),

		// Background jobs
		ReloadInterval: mustDuration("MYSA_RELOAD_INTERVAL", 0),
		WatchStore:     mustBool("MYSA_WATCH_STORE", true),
		QuarantineTTL:  mustDuration("MYSA_QUARANTINE_TTL", 30*24*time.Hour),
		GCInterval:     mustDuration("MYSA_GC_INTERVAL", 24*time.Hour),

		NotificationBuffer: getenvInt("MYSA_NOTIFICATION_BUFFER", 50),

		// Redis settings
		RedisAddr:             getenv("MYSA_REDIS_ADDR", ""),
		RedisUser:             getenv("MYSA_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MYSA_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("MYSA_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MYSA_REDIS_DB", 0),
		RedisDT:               mustDuration("MYSA_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("MYSA_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("MYSA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("MYSA_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("MYSA_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("MYSA_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("MYSA_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("MYSA_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("MYSA_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("MYSA_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("MYSA_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("MYSA_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("MYSA_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("MYSA_RATE_LIMIT_PER_MIN", 120),
	}

	cfg.validate()

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (cfg *Config) validate() {
	switch cfg.StoreDriver {
	case DriverFile, DriverSQLite:
	case DriverRedis:
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = requireEnv("MYSA_REDIS_ADDR")
		}
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: MYSA_REDIS_PASSWORD is required when MYSA_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: MYSA_STORE_DRIVER must be file, redis or sqlite, got %q", cfg.StoreDriver))
	}

	if cfg.IntervalUnit <= 0 {
		panic("❌ FATAL: MYSA_INTERVAL_UNIT must be positive")
	}
	if cfg.RateLimitPerMin <= 0 || cfg.RateLimitBurst <= 0 {
		panic("❌ FATAL: MYSA_RATE_LIMIT_PER_MIN and MYSA_RATE_LIMIT_BURST must be positive")
	}
	if cfg.StoreDriver != DriverFile {
		cfg.WatchStore = false
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mysa")
	}
	return "."
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
