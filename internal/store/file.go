package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

const quarantineMarker = ".corrupt-"

// FileStore keeps the entry list in a single JSON document.
//
// Saves go through a temp file in the same directory followed by a rename,
// so readers only ever see the previous or the next complete document.
// A document that fails to parse is moved aside on load instead of being
// left where the next save would overwrite it.
type FileStore struct {
	fs   afero.Fs
	path string
	now  func() time.Time
}

// QuarantinedFile is a malformed document moved aside by Load.
// At comes from the name suffix; ModTime is whatever the rename preserved.
type QuarantinedFile struct {
	Path    string
	At      time.Time
	ModTime time.Time
}

// NewFileStore creates a file store on fs. Pass afero.NewOsFs() in production.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{
		fs:   fs,
		path: path,
		now:  time.Now,
	}
}

func (s *FileStore) Backend() string { return BackendFile }

func (s *FileStore) Close() error { return nil }

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty list.
func (s *FileStore) Load(ctx context.Context) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, LoadError(BackendFile, err)
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Entry{}, nil
		}
		return nil, LoadError(BackendFile, fmt.Errorf("failed to read %s: %w", s.path, err))
	}

	entries, err := Unmarshal(data)
	if err != nil {
		moved, qerr := s.quarantine()
		if qerr != nil {
			return nil, LoadError(BackendFile, fmt.Errorf("%w (quarantine failed: %v)", err, qerr))
		}
		return nil, LoadError(BackendFile, fmt.Errorf("%w (%w to %s)", err, ErrQuarantined, moved))
	}
	return entries, nil
}

// Save atomically replaces the document with entries.
func (s *FileStore) Save(ctx context.Context, entries []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return SaveError(BackendFile, err)
	}

	data, err := Marshal(entries)
	if err != nil {
		return SaveError(BackendFile, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return SaveError(BackendFile, fmt.Errorf("failed to create %s: %w", dir, err))
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return SaveError(BackendFile, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return SaveError(BackendFile, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return SaveError(BackendFile, fmt.Errorf("failed to close temp file: %w", err))
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return SaveError(BackendFile, fmt.Errorf("failed to replace %s: %w", s.path, err))
	}
	return nil
}

func (s *FileStore) quarantine() (string, error) {
	target := fmt.Sprintf("%s%s%d", s.path, quarantineMarker, s.now().UnixNano())
	if err := s.fs.Rename(s.path, target); err != nil {
		return "", err
	}
	return target, nil
}

// Quarantined lists the malformed documents moved aside, oldest first.
func (s *FileStore) Quarantined() ([]QuarantinedFile, error) {
	dir := filepath.Dir(s.path)
	prefix := filepath.Base(s.path) + quarantineMarker

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []QuarantinedFile
	for _, info := range infos {
		if info.IsDir() || !strings.HasPrefix(info.Name(), prefix) {
			continue
		}
		at := info.ModTime()
		if nanos, err := strconv.ParseInt(strings.TrimPrefix(info.Name(), prefix), 10, 64); err == nil {
			at = time.Unix(0, nanos)
		}
		out = append(out, QuarantinedFile{
			Path:    filepath.Join(dir, info.Name()),
			At:      at,
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// RemoveQuarantined deletes a file returned by Quarantined.
func (s *FileStore) RemoveQuarantined(path string) error {
	if !strings.HasPrefix(filepath.Base(path), filepath.Base(s.path)+quarantineMarker) {
		return fmt.Errorf("%s is not a quarantined document", path)
	}
	return s.fs.Remove(path)
}
