// Package opener performs the side effect of activating a reference:
// web addresses go to the default browser, paths to the OS default handler.
package opener

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/afero"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/logger"
)

const (
	ModeSystem = "system"
	ModeLog    = "log"
)

// Opener activates a reference. Failures are *domain.OpenError.
type Opener interface {
	Open(ctx context.Context, ref domain.Reference) error
}

// Func adapts a function to Opener.
type Func func(ctx context.Context, ref domain.Reference) error

func (f Func) Open(ctx context.Context, ref domain.Reference) error { return f(ctx, ref) }

// System opens references on the local desktop.
type System struct {
	fs       afero.Fs
	openURL  func(string) error
	openFile func(string) error
}

// NewSystem returns an opener backed by the platform launcher
// (xdg-open, open, or rundll32 depending on the OS).
func NewSystem(fs afero.Fs) *System {
	return &System{
		fs:       fs,
		openURL:  browser.OpenURL,
		openFile: browser.OpenFile,
	}
}

func (s *System) Open(ctx context.Context, ref domain.Reference) error {
	var launch func() error
	switch ref.Kind {
	case domain.KindURL:
		launch = func() error { return s.openURL(ref.Value) }
	case domain.KindFile:
		if _, err := s.fs.Stat(ref.Value); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &domain.OpenError{Ref: ref, Err: fmt.Errorf("file does not exist")}
			}
			return &domain.OpenError{Ref: ref, Err: err}
		}
		launch = func() error { return s.openFile(ref.Value) }
	default:
		return &domain.OpenError{Ref: ref, Err: fmt.Errorf("unknown reference kind %q", ref.Kind)}
	}

	done := make(chan error, 1)
	go func() { done <- launch() }()

	select {
	case err := <-done:
		if err != nil {
			return &domain.OpenError{Ref: ref, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &domain.OpenError{Ref: ref, Err: ctx.Err()}
	}
}

// Log only records activations. Used on headless hosts and in dry runs.
type Log struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Open(_ context.Context, ref domain.Reference) error {
	l.log.Info("activation (log only)",
		logger.String("kind", string(ref.Kind)),
		logger.String("reference", ref.Value))
	return nil
}

// New picks an opener by mode name.
func New(mode string, fs afero.Fs, log logger.Logger) (Opener, error) {
	switch mode {
	case "", ModeSystem:
		return NewSystem(fs), nil
	case ModeLog:
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown opener mode %q", mode)
	}
}
