package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("history")

// BoltStore keeps entries in a bbolt bucket keyed by big-endian nanosecond
// timestamps, so cursor order is chronological.
type BoltStore struct {
	db         *bolt.DB
	maxEntries int
	now        func() time.Time
}

func OpenBoltStore(path string, maxEntries int) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory failed: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db failed: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(historyBucket)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

func (store *BoltStore) Close() error {
	if store == nil || store.db == nil {
		return nil
	}
	return store.db.Close()
}

// CheckWritable runs an empty write transaction; it fails when the db was opened
// read-only or the bucket is missing.
func (store *BoltStore) CheckWritable() error {
	return store.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(historyBucket) == nil {
			return fmt.Errorf("history bucket missing")
		}
		return nil
	})
}

func (store *BoltStore) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = store.now()
	}
	entry.Query = singleLine(entry.Query)
	entry.Command = singleLine(entry.Command)

	return store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(historyBucket)
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		key := timestampKey(entry.Timestamp)
		for bucket.Get(key) != nil {
			key = nextKey(key)
		}
		if err := bucket.Put(key, payload); err != nil {
			return err
		}
		return prune(bucket, store.maxEntries)
	})
}

func (store *BoltStore) Recent(limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)
	result := make([]Entry, 0, limit)
	err := store.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(historyBucket).Cursor()
		for key, value := cursor.Last(); key != nil && len(result) < limit; key, value = cursor.Prev() {
			entry := Entry{}
			if decodeErr := json.Unmarshal(value, &entry); decodeErr != nil {
				continue
			}
			result = append(result, entry)
		}
		return nil
	})
	return result, err
}

// prune deletes the oldest entries beyond maxEntries. A non-positive limit keeps
// everything.
func prune(bucket *bolt.Bucket, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}
	count := 0
	cursor := bucket.Cursor()
	for key, _ := cursor.First(); key != nil; key, _ = cursor.Next() {
		count++
	}
	excess := count - maxEntries
	if excess <= 0 {
		return nil
	}
	staleKeys := make([][]byte, 0, excess)
	for key, _ := cursor.First(); key != nil && len(staleKeys) < excess; key, _ = cursor.Next() {
		staleKeys = append(staleKeys, append([]byte{}, key...))
	}
	for _, key := range staleKeys {
		if err := bucket.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func timestampKey(timestamp time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(timestamp.UnixNano()))
	return key
}

func nextKey(key []byte) []byte {
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, binary.BigEndian.Uint64(key)+1)
	return next
}
