package jobs

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/store"
)

func TestQuarantineCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	fs := afero.NewMemMapFs()
	fileStore := store.NewFileStore(fs, "/data/data.json")

	now := time.Now()
	if err := fs.MkdirAll("/data", 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]time.Time{
		"/data/data.json":            now,                           // live document
		"/data/other.json.corrupt-1": now.Add(-60 * 24 * time.Hour), // other store, untouched
	}
	quarantined := map[string]time.Time{
		"recent": now.Add(-10 * 24 * time.Hour), // 10 days ago
		"old":    now.Add(-35 * 24 * time.Hour), // 35 days ago
	}
	paths := map[string]string{}
	for name, at := range quarantined {
		paths[name] = "/data/data.json.corrupt-" + strconv.FormatInt(at.UnixNano(), 10)
		files[paths[name]] = at
	}
	for path := range files {
		if err := afero.WriteFile(fs, path, []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	gc := NewQuarantineCollector(fileStore, log, time.Hour, 30*24*time.Hour)
	gc.now = func() time.Time { return now }

	deleted, err := gc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 document deleted, got %d", deleted)
	}

	if ok, _ := afero.Exists(fs, paths["old"]); ok {
		t.Error("Expired quarantined document was not removed")
	}
	if ok, _ := afero.Exists(fs, paths["recent"]); !ok {
		t.Error("Recent quarantined document was incorrectly removed")
	}
	if ok, _ := afero.Exists(fs, "/data/data.json"); !ok {
		t.Error("Live document was incorrectly removed")
	}
	if ok, _ := afero.Exists(fs, "/data/other.json.corrupt-1"); !ok {
		t.Error("Another store's backup was incorrectly removed")
	}
}

func TestQuarantineCollector_DefaultTTL(t *testing.T) {
	gc := NewQuarantineCollector(nil, logger.Nop(), time.Hour, 0)
	if gc.ttl != DefaultQuarantineTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultQuarantineTTL, gc.ttl)
	}
}

type failingSource struct {
	listErr   error
	removeErr error
	files     []store.QuarantinedFile
	removed   []string
}

func (f *failingSource) Quarantined() ([]store.QuarantinedFile, error) { return f.files, f.listErr }

func (f *failingSource) RemoveQuarantined(path string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, path)
	return nil
}

func TestQuarantineCollector_Errors(t *testing.T) {
	src := &failingSource{listErr: errors.New("permission denied")}
	gc := NewQuarantineCollector(src, logger.Nop(), time.Hour, time.Hour)

	if _, err := gc.Collect(context.Background()); err == nil {
		t.Error("Expected list error to be returned")
	}

	src = &failingSource{
		removeErr: errors.New("busy"),
		files:     []store.QuarantinedFile{{Path: "/x.corrupt-1", At: time.Unix(0, 1)}},
	}
	gc = NewQuarantineCollector(src, logger.Nop(), time.Hour, time.Hour)
	deleted, err := gc.Collect(context.Background())
	if err != nil {
		t.Errorf("Remove failures should be logged, not returned: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", deleted)
	}
}

func TestQuarantineCollector_StartStop(t *testing.T) {
	src := &failingSource{files: []store.QuarantinedFile{{Path: "/x.corrupt-1", At: time.Unix(0, 1)}}}
	gc := NewQuarantineCollector(src, logger.Nop(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	gc.Stop()

	if len(src.removed) != 1 {
		t.Errorf("Start should collect immediately, removed %v", src.removed)
	}
}
