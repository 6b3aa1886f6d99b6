package progress

import (
	"testing"
	"time"

	"github.com/dtnitsch/reader-lens/pkg/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewStore(database)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name                             string
		scrollTop, viewport, docHeight   int
		want                             int
	}{
		{"halfway", 600, 800, 2000, 50},               // 600/1200
		{"nearly done", 1150, 800, 2000, 96},          // round(95.83)
		{"top of page", 0, 800, 2000, 0},
		{"shorter than viewport", 100, 800, 500, 0},   // non-positive denominator
		{"exact viewport height", 100, 800, 800, 0},
		{"bottom", 1200, 800, 2000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.scrollTop, tt.viewport, tt.docHeight); got != tt.want {
				t.Errorf("Percent(%d, %d, %d) = %d, want %d",
					tt.scrollTop, tt.viewport, tt.docHeight, got, tt.want)
			}
		})
	}
}

func TestDocumentKey(t *testing.T) {
	a := DocumentKey("https://example.com/article")
	b := DocumentKey("https://example.com/article")
	c := DocumentKey("https://example.com/other")

	if a != b {
		t.Error("key not deterministic")
	}
	if a == c {
		t.Error("distinct URLs should not collide")
	}
	if len(a) != 16 {
		t.Errorf("key length = %d, want 16", len(a))
	}
}

func TestRecordProgressShelfMembership(t *testing.T) {
	store := setupStore(t)
	url := "https://example.com/article"

	// Scenario A: height 2000, viewport 800, scrollTop 600 -> 50%.
	if err := store.RecordProgress(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000, Title: "A"}); err != nil {
		t.Fatalf("RecordProgress() error: %v", err)
	}

	shelf, err := store.Shelf()
	if err != nil {
		t.Fatalf("Shelf() error: %v", err)
	}
	if len(shelf) != 1 {
		t.Fatalf("shelf has %d entries, want 1", len(shelf))
	}
	if shelf[0].ProgressPercent != 50 {
		t.Errorf("ProgressPercent = %d, want 50", shelf[0].ProgressPercent)
	}

	// Scenario B: scrolled to 1150 -> 96%, shelf entry removed.
	if err := store.RecordProgress(url, Tick{ScrollTop: 1150, ViewportHeight: 800, DocumentHeight: 2000, Title: "A"}); err != nil {
		t.Fatalf("RecordProgress() error: %v", err)
	}
	shelf, err = store.Shelf()
	if err != nil {
		t.Fatalf("Shelf() error: %v", err)
	}
	if len(shelf) != 0 {
		t.Errorf("shelf has %d entries after 96%%, want 0", len(shelf))
	}

	// The record itself survives shelf removal.
	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record == nil {
		t.Fatal("record should still exist at 96%")
	}
	if record.ScrollTop != 1150 {
		t.Errorf("ScrollTop = %d, want 1150", record.ScrollTop)
	}
}

func TestShelfInvariant(t *testing.T) {
	store := setupStore(t)

	// Drive one document through a range of positions; after every
	// write, each shelf entry must satisfy 5 < percent < 95.
	positions := []int{0, 30, 80, 300, 600, 1150, 1190, 700, 40}
	for _, scrollTop := range positions {
		url := "https://example.com/article"
		if err := store.RecordProgress(url, Tick{ScrollTop: scrollTop, ViewportHeight: 800, DocumentHeight: 2000}); err != nil {
			t.Fatalf("RecordProgress(%d) error: %v", scrollTop, err)
		}

		shelf, err := store.Shelf()
		if err != nil {
			t.Fatalf("Shelf() error: %v", err)
		}
		for _, record := range shelf {
			if record.ProgressPercent <= 5 || record.ProgressPercent >= 95 {
				t.Errorf("after scrollTop=%d: shelf entry with percent %d violates bound",
					scrollTop, record.ProgressPercent)
			}
		}
	}
}

func TestShelfClearedWhenScrolledBackUp(t *testing.T) {
	store := setupStore(t)
	url := "https://example.com/article"

	// In progress, then scrolled back to the top: the entry is removed
	// so the shelf never points at a record outside its bounds.
	store.RecordProgress(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})
	store.RecordProgress(url, Tick{ScrollTop: 0, ViewportHeight: 800, DocumentHeight: 2000})

	shelf, err := store.Shelf()
	if err != nil {
		t.Fatalf("Shelf() error: %v", err)
	}
	if len(shelf) != 0 {
		t.Errorf("shelf has %d entries, want 0", len(shelf))
	}
}

func TestCheckProgressThresholds(t *testing.T) {
	store := setupStore(t)
	url := "https://example.com/article"

	// Too shallow to resume.
	store.RecordProgress(url, Tick{ScrollTop: 150, ViewportHeight: 800, DocumentHeight: 2000})
	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record != nil {
		t.Errorf("scrollTop 150 should not resume, got %+v", record)
	}

	// Deep enough.
	store.RecordProgress(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})
	record, err = store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record == nil {
		t.Fatal("scrollTop 600 should resume")
	}

	// Unknown document.
	record, err = store.CheckProgress("https://example.com/never-seen")
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record != nil {
		t.Errorf("unknown URL returned %+v", record)
	}
}

func TestExpiry(t *testing.T) {
	store := setupStore(t)
	url := "https://example.com/article"

	now := time.Now()
	store.Now = func() time.Time { return now.Add(-8 * 24 * time.Hour) }
	store.RecordProgress(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})

	// Eight days later the record is expired and swept.
	store.Now = func() time.Time { return now }
	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record != nil {
		t.Errorf("expired record returned: %+v", record)
	}

	// The sweep also removed the shelf entry via cascade.
	shelf, err := store.Shelf()
	if err != nil {
		t.Fatalf("Shelf() error: %v", err)
	}
	if len(shelf) != 0 {
		t.Errorf("shelf has %d entries after expiry, want 0", len(shelf))
	}
}

func TestSweepOnWrite(t *testing.T) {
	store := setupStore(t)

	now := time.Now()
	store.Now = func() time.Time { return now.Add(-8 * 24 * time.Hour) }
	store.RecordProgress("https://example.com/old", Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})

	store.Now = func() time.Time { return now }
	store.RecordProgress("https://example.com/new", Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})

	// The write path swept the stale record.
	record, err := store.CheckProgress("https://example.com/old")
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record != nil {
		t.Errorf("stale record survived a write: %+v", record)
	}
}

func TestDismiss(t *testing.T) {
	store := setupStore(t)
	url := "https://example.com/article"

	store.RecordProgress(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})
	if err := store.Dismiss(url); err != nil {
		t.Fatalf("Dismiss() error: %v", err)
	}

	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record != nil {
		t.Errorf("dismissed record returned: %+v", record)
	}
	shelf, _ := store.Shelf()
	if len(shelf) != 0 {
		t.Errorf("dismiss left a shelf entry")
	}
}

func TestToggles(t *testing.T) {
	store := setupStore(t)

	on, err := store.Toggle("vocabulary")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if on {
		t.Error("unset toggle should be off")
	}

	if err := store.SetToggle("vocabulary", true); err != nil {
		t.Fatalf("SetToggle() error: %v", err)
	}
	on, err = store.Toggle("vocabulary")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if !on {
		t.Error("toggle should be on after SetToggle(true)")
	}
}

func TestRecorderTrailingEdge(t *testing.T) {
	store := setupStore(t)
	recorder := NewRecorder(store, 30*time.Millisecond, func(err error) { t.Errorf("write error: %v", err) })

	url := "https://example.com/article"
	for _, scrollTop := range []int{100, 250, 400, 600} {
		recorder.Observe(url, Tick{ScrollTop: scrollTop, ViewportHeight: 800, DocumentHeight: 2000})
	}

	time.Sleep(80 * time.Millisecond)

	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record == nil {
		t.Fatal("trailing tick never persisted")
	}
	if record.ScrollTop != 600 {
		t.Errorf("ScrollTop = %d, want the last observed 600", record.ScrollTop)
	}
}

func TestRecorderFlush(t *testing.T) {
	store := setupStore(t)
	recorder := NewRecorder(store, time.Hour, nil)

	url := "https://example.com/article"
	recorder.Observe(url, Tick{ScrollTop: 600, ViewportHeight: 800, DocumentHeight: 2000})
	recorder.Flush()

	record, err := store.CheckProgress(url)
	if err != nil {
		t.Fatalf("CheckProgress() error: %v", err)
	}
	if record == nil {
		t.Fatal("Flush() did not persist the pending tick")
	}
}
