package index

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

func sampleEntries() []domain.Entry {
	return []domain.Entry{
		{ID: "a", Ref: domain.URL("https://a.example"), IntervalMinutes: 0},
		{ID: "b", Ref: domain.FilePath("/tmp/b.txt"), IntervalMinutes: 5},
		{ID: "c", Ref: domain.URL("https://c.example"), IntervalMinutes: 1},
	}
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if n := index.Count(); n != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %v", n)
	}
	if !index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be zero before any replace")
	}
}

func TestReplaceKeepsOrder(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleEntries())

	all := index.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %v entries, want 3", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].ID != want {
			t.Errorf("All()[%d].ID = %q, want %q", i, all[i].ID, want)
		}
	}
	if index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be set after Replace()")
	}
}

func TestReplaceOverwrites(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleEntries())
	index.Replace([]domain.Entry{{ID: "z", Ref: domain.URL("https://z.example")}})

	if n := index.Count(); n != 1 {
		t.Errorf("Replace() should overwrite, got %v entries want 1", n)
	}
	if _, ok := index.Get("a"); ok {
		t.Error("Get(a) should fail after overwrite")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	index := NewMemoryIndex()
	src := sampleEntries()
	index.Replace(src)

	src[0].Ref = domain.URL("https://mutated.example")
	all := index.All()
	all[1].IntervalMinutes = 99

	got, _ := index.Get("a")
	if got.Ref.Value != "https://a.example" {
		t.Errorf("index shares memory with the caller's slice")
	}
	got, _ = index.Get("b")
	if got.IntervalMinutes != 5 {
		t.Errorf("index shares memory with All() result")
	}
}

func TestGetAndPosition(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleEntries())

	tests := []struct {
		id      string
		wantPos int
		wantOK  bool
	}{
		{"a", 0, true},
		{"c", 2, true},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pos, ok := index.Position(tt.id)
			if ok != tt.wantOK || pos != tt.wantPos {
				t.Errorf("Position(%q) = %v, %v; want %v, %v", tt.id, pos, ok, tt.wantPos, tt.wantOK)
			}
			e, ok := index.Get(tt.id)
			if ok != tt.wantOK {
				t.Errorf("Get(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && e.ID != tt.id {
				t.Errorf("Get(%q).ID = %q", tt.id, e.ID)
			}
		})
	}
}

func TestIDsAt(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleEntries())

	ids, err := index.IDsAt([]int{2, 0})
	if err != nil {
		t.Fatalf("IDsAt() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "a" {
		t.Errorf("IDsAt([2 0]) = %v, want [c a]", ids)
	}

	for _, bad := range [][]int{{3}, {-1}, {0, 7}} {
		if _, err := index.IDsAt(bad); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("IDsAt(%v) error = %v, want validation error", bad, err)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			index.Replace(sampleEntries())
		}()
		go func() {
			defer wg.Done()
			_ = index.All()
			_, _ = index.Get("b")
			_ = index.Count()
		}()
	}

	wg.Wait()

	if n := index.Count(); n != 3 {
		t.Errorf("Count() = %v after concurrent replaces, want 3", n)
	}
}
