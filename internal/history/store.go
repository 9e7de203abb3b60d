// Package history persists recent analysis results so the monitor can
// compare new verdicts against earlier ones for the same domain.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketScans = []byte("scans")

// Record is one stored analysis outcome
type Record struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Rating    string    `json:"rating"`
	Score     int       `json:"score"`
	Issues    []string  `json:"issues"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps a bounded history of analysis records in a bbolt file.
// Keys sort by timestamp so the newest records sit at the end of the
// bucket and retention trims from the front.
type Store struct {
	db    *bolt.DB
	limit int
	now   func() time.Time
}

// Open opens or creates the history database at path, retaining at
// most limit records
func Open(path string, limit int) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScans)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &Store{db: db, limit: limit, now: time.Now}, nil
}

// Close releases the underlying database file
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a record, assigning it an ID and timestamp, and trims
// the oldest entries beyond the retention limit
func (s *Store) Save(url, rating string, score int, issues []string) (*Record, error) {
	record := &Record{
		ID:        uuid.NewString(),
		URL:       url,
		Rating:    rating,
		Score:     score,
		Issues:    issues,
		Timestamp: s.now().UTC(),
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketScans)

		key := []byte(fmt.Sprintf("%020d:%s", record.Timestamp.UnixNano(), record.ID))
		if err := bucket.Put(key, encoded); err != nil {
			return err
		}

		// Trim oldest entries beyond the limit
		count := 0
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			count++
		}
		excess := count - s.limit
		if excess <= 0 {
			return nil
		}
		for k, _ := cursor.First(); k != nil && excess > 0; k, _ = cursor.Next() {
			if err := cursor.Delete(); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save history record: %w", err)
	}

	return record, nil
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	records := make([]Record, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketScans).Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("corrupt history record %s: %w", k, err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
