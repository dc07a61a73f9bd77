// Package history records translated commands. Entries map a timestamp and the
// natural-language query to the command that was generated for it.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/BegaDeveloper/nlbash/internal/runtimeconfig"
)

const (
	BackendFile = "file"
	BackendBolt = "bolt"

	defaultRecentLimit = 10
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Command   string    `json:"command"`
}

type Store interface {
	Append(entry Entry) error
	// Recent returns at most limit entries, newest first.
	Recent(limit int) ([]Entry, error)
	// CheckWritable reports whether Append could write, without adding an entry.
	CheckWritable() error
	Close() error
}

// Open returns the store selected by the history configuration.
func Open(cfg runtimeconfig.HistoryConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(runtimeconfig.ExpandPath(cfg.File)), nil
	case BackendBolt:
		return OpenBoltStore(runtimeconfig.ExpandPath(cfg.DB), cfg.MaxEntries)
	default:
		return nil, fmt.Errorf("unknown history backend %q (expected file|bolt)", cfg.Backend)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	return limit
}

// singleLine keeps an entry on its own line without touching inner spacing.
func singleLine(value string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value))
}
