package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	queryMarker     = " - NL: "
)

// FileStore appends two lines per entry to a shell history file:
//
//	# 2006-01-02 15:04:05 - NL: <query>
//	<command>
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (store *FileStore) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = store.now()
	}
	file, err := store.openForAppend()
	if err != nil {
		return err
	}
	defer file.Close()

	record := fmt.Sprintf("# %s%s%s\n%s\n",
		entry.Timestamp.Format(timestampLayout), queryMarker, singleLine(entry.Query), singleLine(entry.Command))
	if _, err := file.WriteString(record); err != nil {
		return fmt.Errorf("write history failed: %w", err)
	}
	return nil
}

func (store *FileStore) CheckWritable() error {
	file, err := store.openForAppend()
	if err != nil {
		return err
	}
	return file.Close()
}

func (store *FileStore) openForAppend() (*os.File, error) {
	if strings.TrimSpace(store.path) == "" {
		return nil, fmt.Errorf("history file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory failed: %w", err)
	}
	file, err := os.OpenFile(store.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open history file failed: %w", err)
	}
	return file, nil
}

func (store *FileStore) Recent(limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)
	file, err := os.Open(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open history file failed: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history failed: %w", err)
	}

	entries := make([]Entry, 0, limit)
	for index := len(lines) - 2; index >= 0 && len(entries) < limit; index-- {
		entry, ok := parseEntry(lines[index], lines[index+1])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *FileStore) Close() error {
	return nil
}

func parseEntry(header string, commandLine string) (Entry, bool) {
	if !strings.HasPrefix(header, "# ") {
		return Entry{}, false
	}
	stamp, query, found := strings.Cut(strings.TrimPrefix(header, "# "), queryMarker)
	if !found {
		return Entry{}, false
	}
	timestamp, err := time.ParseInLocation(timestampLayout, strings.TrimSpace(stamp), time.Local)
	if err != nil {
		return Entry{}, false
	}
	command := strings.TrimSpace(commandLine)
	if command == "" || strings.HasPrefix(command, "#") {
		return Entry{}, false
	}
	return Entry{Timestamp: timestamp, Query: strings.TrimSpace(query), Command: command}, true
}
