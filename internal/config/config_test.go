package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", contains)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, contains) {
			t.Errorf("panic = %v, want it to contain %q", r, contains)
		}
	}()
	fn()
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MYSA_DATA_FILE", "/tmp/mysa/data.json")

	cfg := Load()

	if cfg.StoreDriver != DriverFile {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverFile)
	}
	if cfg.DataFile != "/tmp/mysa/data.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.IntervalUnit != time.Minute {
		t.Errorf("IntervalUnit = %v, want 1m", cfg.IntervalUnit)
	}
	if cfg.Opener != "system" {
		t.Errorf("Opener = %q, want system", cfg.Opener)
	}
	if !cfg.WatchStore {
		t.Error("WatchStore should default to true for the file driver")
	}
	if cfg.ReloadInterval != 0 {
		t.Errorf("ReloadInterval = %v, want disabled", cfg.ReloadInterval)
	}
	if cfg.NotificationBuffer != 50 {
		t.Errorf("NotificationBuffer = %d, want 50", cfg.NotificationBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MYSA_STORE_DRIVER", "SQLite")
	t.Setenv("MYSA_SQLITE_PATH", "/var/lib/mysa/mysa.db")
	t.Setenv("MYSA_INTERVAL_UNIT", "1s")
	t.Setenv("MYSA_OPENER", "log")
	t.Setenv("MYSA_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.1.0/24")
	t.Setenv("MYSA_ALLOWED_HOSTS", "mysa.local")

	cfg := Load()

	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.SQLitePath != "/var/lib/mysa/mysa.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.IntervalUnit != time.Second {
		t.Errorf("IntervalUnit = %v, want 1s", cfg.IntervalUnit)
	}
	if cfg.Opener != "log" {
		t.Errorf("Opener = %q, want log", cfg.Opener)
	}
	if cfg.WatchStore {
		t.Error("WatchStore must be off for non-file drivers")
	}
	if want := []string{"10.0.0.0/8", "192.168.1.0/24"}; !reflect.DeepEqual(cfg.AllowedCIDRS, want) {
		t.Errorf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, want)
	}
	if want := []string{"mysa.local"}; !reflect.DeepEqual(cfg.AllowedHosts, want) {
		t.Errorf("AllowedHosts = %v, want %v", cfg.AllowedHosts, want)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		contains string
	}{
		{
			name:     "unknown driver",
			env:      map[string]string{"MYSA_STORE_DRIVER": "postgres"},
			contains: "MYSA_STORE_DRIVER",
		},
		{
			name:     "redis without address",
			env:      map[string]string{"MYSA_STORE_DRIVER": "redis"},
			contains: "MYSA_REDIS_ADDR",
		},
		{
			name: "redis password required",
			env: map[string]string{
				"MYSA_STORE_DRIVER":            "redis",
				"MYSA_REDIS_ADDR":              "localhost:6379",
				"MYSA_REDIS_PASSWORD_REQUIRED": "true",
			},
			contains: "MYSA_REDIS_PASSWORD",
		},
		{
			name:     "zero interval unit",
			env:      map[string]string{"MYSA_INTERVAL_UNIT": "0s"},
			contains: "MYSA_INTERVAL_UNIT",
		},
		{
			name:     "zero rate limit",
			env:      map[string]string{"MYSA_RATE_LIMIT_PER_MIN": "0"},
			contains: "MYSA_RATE_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			expectPanic(t, tt.contains, func() { Load() })
		})
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	if got := requireEnv("TEST_VAR"); got != "test_value" {
		t.Errorf("requireEnv() = %v, want test_value", got)
	}

	expectPanic(t, "TEST_VAR_MISSING", func() { requireEnv("TEST_VAR_MISSING") })
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{`"a", 'b'`, []string{"a", "b"}},
	}

	for _, tt := range tests {
		got := splitAndTrim(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "TEST_DURATION", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "TEST_DURATION_INVALID", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "TEST_DURATION_MISSING", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if result := mustDuration(tt.key, tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBoolAndInt(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_INVALID", "maybe")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "forty-two")

	if !mustBool("TEST_BOOL", false) {
		t.Error("mustBool(TEST_BOOL) = false, want true")
	}
	if !mustBool("TEST_BOOL_INVALID", true) {
		t.Error("invalid bool should fall back to the default")
	}
	if got := getenvInt("TEST_INT", 0); got != 42 {
		t.Errorf("getenvInt(TEST_INT) = %d, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("invalid int should fall back to the default, got %d", got)
	}
}
