package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BegaDeveloper/nlbash/internal/runtimeconfig"
)

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestFileStore_AppendWritesTwoLines(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), ".bash_history")
	store := NewFileStore(historyPath)
	timestamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	if err := store.Append(Entry{Timestamp: timestamp, Query: "list files", Command: "ls -la"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	raw, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	expected := "# 2026-03-14 09:26:53 - NL: list files\nls -la\n"
	if string(raw) != expected {
		t.Fatalf("expected %q, got %q", expected, string(raw))
	}
}

func TestFileStore_RecentNewestFirstAndBounded(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), ".bash_history")
	preexisting := "cd /tmp\ngit status\n"
	if err := os.WriteFile(historyPath, []byte(preexisting), 0o600); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	store := NewFileStore(historyPath)
	store.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))
	for _, pair := range [][2]string{
		{"list files", "ls -la"},
		{"disk usage", "du -sh ."},
		{"show processes", "ps aux"},
	} {
		if err := store.Append(Entry{Query: pair[0], Command: pair[1]}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Command != "ps aux" || entries[1].Command != "du -sh ." {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if entries[0].Query != "show processes" {
		t.Fatalf("unexpected query: %q", entries[0].Query)
	}

	all, err := store.Recent(100)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected plain shell history lines to be skipped, got %+v", all)
	}
}

func TestFileStore_MultilineCommandStaysOneEntry(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history"))
	if err := store.Append(Entry{Query: "two steps", Command: "mkdir out\ncd out"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	entries, err := store.Recent(5)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Command != "mkdir out cd out" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Parallel()

	entries, err := NewFileStore(filepath.Join(t.TempDir(), "missing")).Recent(5)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %v %v", entries, err)
	}
}

func TestCheckWritable(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	historyPath := filepath.Join(tempDir, "nested", "bash_history")
	fileStore := NewFileStore(historyPath)
	if err := fileStore.CheckWritable(); err != nil {
		t.Fatalf("expected writable history file, got %v", err)
	}
	entries, err := fileStore.Recent(5)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected the check to add no entries, got %v %v", entries, err)
	}

	blocker := filepath.Join(tempDir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if err := NewFileStore(filepath.Join(blocker, "bash_history")).CheckWritable(); err == nil {
		t.Fatalf("expected an error when the history directory is a file")
	}

	boltStore, err := OpenBoltStore(filepath.Join(tempDir, "history.db"), 10)
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	defer boltStore.Close()
	if err := boltStore.CheckWritable(); err != nil {
		t.Fatalf("expected writable bolt store, got %v", err)
	}
}

func TestBoltStore_PersistenceAndPruning(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenBoltStore(dbPath, 3)
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	store.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	for index := 1; index <= 5; index++ {
		command := "echo " + strings.Repeat("x", index)
		if err := store.Append(Entry{Query: "query", Command: command}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	_ = store.Close()

	reopened, err := OpenBoltStore(dbPath, 3)
	if err != nil {
		t.Fatalf("reopen store failed: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected pruning to keep 3 entries, got %d", len(entries))
	}
	if entries[0].Command != "echo xxxxx" || entries[2].Command != "echo xxx" {
		t.Fatalf("expected newest first after pruning, got %+v", entries)
	}
}

func TestBoltStore_SameTimestampKeepsBoth(t *testing.T) {
	t.Parallel()

	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "history.db"), 0)
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	defer store.Close()

	timestamp := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, command := range []string{"ls", "pwd"} {
		if err := store.Append(Entry{Timestamp: timestamp, Query: "q", Command: command}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	entries, err := store.Recent(0)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Command != "pwd" {
		t.Fatalf("expected both entries newest first, got %+v", entries)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	fileStore, err := Open(runtimeconfig.HistoryConfig{Backend: "file", File: filepath.Join(tempDir, "h")})
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	if _, ok := fileStore.(*FileStore); !ok {
		t.Fatalf("expected file store, got %T", fileStore)
	}

	boltStore, err := Open(runtimeconfig.HistoryConfig{Backend: "bolt", DB: filepath.Join(tempDir, "h.db"), MaxEntries: 10})
	if err != nil {
		t.Fatalf("open bolt backend: %v", err)
	}
	defer boltStore.Close()
	if _, ok := boltStore.(*BoltStore); !ok {
		t.Fatalf("expected bolt store, got %T", boltStore)
	}

	if _, err := Open(runtimeconfig.HistoryConfig{Backend: "sqlite"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
