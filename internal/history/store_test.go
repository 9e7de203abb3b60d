package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), limit)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// Deterministic, strictly increasing timestamps
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	store.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	return store
}

func TestSaveAndRecent(t *testing.T) {
	store := newTestStore(t, 50)

	urls := []string{
		"https://first.example.com",
		"https://second.example.com",
		"https://third.example.com",
	}
	for _, u := range urls {
		if _, err := store.Save(u, "SAFE", 100, nil); err != nil {
			t.Fatalf("Save(%q) failed: %v", u, err)
		}
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Newest first
	if records[0].URL != urls[2] || records[2].URL != urls[0] {
		t.Errorf("wrong order: %v", records)
	}
	for _, r := range records {
		if r.ID == "" {
			t.Error("record missing ID")
		}
		if r.Timestamp.IsZero() {
			t.Error("record missing timestamp")
		}
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t, 50)

	for i := 0; i < 5; i++ {
		if _, err := store.Save("https://example.com", "SAFE", 100, nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestRetentionTrimsOldest(t *testing.T) {
	store := newTestStore(t, 3)

	for i, u := range []string{"a", "b", "c", "d", "e"} {
		if _, err := store.Save("https://"+u+".example.com", "SAFE", 100-i, nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 after trimming", len(records))
	}
	if records[0].URL != "https://e.example.com" {
		t.Errorf("newest = %q, want e", records[0].URL)
	}
	if records[2].URL != "https://c.example.com" {
		t.Errorf("oldest kept = %q, want c", records[2].URL)
	}
}

func TestSaveStoresIssues(t *testing.T) {
	store := newTestStore(t, 10)

	issues := []string{"Uses HTTP (not secure) instead of HTTPS"}
	record, err := store.Save("http://example.com", "CAUTION", 75, issues)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if record.Rating != "CAUTION" || record.Score != 75 {
		t.Errorf("record = %+v", record)
	}

	records, err := store.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 || len(records[0].Issues) != 1 || records[0].Issues[0] != issues[0] {
		t.Errorf("stored issues = %v", records)
	}
}

func TestRecentOnEmptyStore(t *testing.T) {
	store := newTestStore(t, 10)
	records, err := store.Recent(5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records from empty store", len(records))
	}
}
