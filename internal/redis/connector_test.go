package redis

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 50 * time.Millisecond,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    10 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestConnectOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectOptions)
		wantErr bool
	}{
		{name: "valid", mutate: func(*ConnectOptions) {}},
		{name: "missing addr", mutate: func(o *ConnectOptions) { o.Addr = "" }, wantErr: true},
		{name: "zero connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }, wantErr: true},
		{name: "zero retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }, wantErr: true},
		{name: "zero max wait", mutate: func(o *ConnectOptions) { o.MaxWait = 0 }, wantErr: true},
		{name: "zero ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }, wantErr: true},
		{name: "negative warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffNextIsCapped(t *testing.T) {
	b := backoff{max: 5 * time.Second}
	if got := b.next(time.Second); got != 2*time.Second {
		t.Errorf("next(1s) = %v, want 2s", got)
	}
	if got := b.next(4 * time.Second); got != 5*time.Second {
		t.Errorf("next(4s) = %v, want 5s", got)
	}
}

func TestNewGivesUpWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test")
	}

	_, err := New(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		t.Fatal("New() against a closed port should fail")
	}
}
