// Package store persists the ordered entry list.
//
// Every backend implements the same contract: Load returns an empty list
// when nothing was ever saved, and Save replaces the durable copy as a
// whole or not at all.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// ErrQuarantined marks a load failure whose bad copy was already moved
// aside, so saving over the primary location loses nothing.
var ErrQuarantined = errors.New("moved aside")

// Store is the durable load/save capability used by the session.
type Store interface {
	Load(ctx context.Context) ([]domain.Entry, error)
	Save(ctx context.Context, entries []domain.Entry) error
	Backend() string
	Close() error
}

// LoadError wraps err as a load StoreError for backend.
func LoadError(backend string, err error) error {
	return &domain.StoreError{Op: "load", Backend: backend, Err: err}
}

// SaveError wraps err as a save StoreError for backend.
func SaveError(backend string, err error) error {
	return &domain.StoreError{Op: "save", Backend: backend, Err: err}
}
