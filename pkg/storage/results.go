// pkg/storage/results.go
package storage

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// ResultsBucket holds one entry per comparison served.
const ResultsBucket = "results"

// Record is a logged comparison. Only scores are kept, never fingerprints.
type Record struct {
	A     string    `json:"a"`
	B     string    `json:"b"`
	Score float64   `json:"score"`
	At    time.Time `json:"at"`
}

// ResultLog appends comparison records to a bolt bucket through a Batcher.
type ResultLog struct {
	db *bolt.DB
	b  *Batcher
}

// OpenResultLog prepares the results bucket in db.
func OpenResultLog(db *bolt.DB) (*ResultLog, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ResultsBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", ResultsBucket, err)
	}
	return &ResultLog{db: db, b: NewBatcher(db, ResultsBucket)}, nil
}

// key sorts records by time; the pair keeps same-instant records apart.
func key(r Record) []byte {
	return []byte(fmt.Sprintf("%020d|%s|%s", r.At.UnixNano(), r.A, r.B))
}

// Append queues r; it reaches disk within one flush interval.
func (l *ResultLog) Append(r Record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	l.b.Put(key(r), raw)
	return nil
}

// List returns every flushed record, oldest first.
func (l *ResultLog) List() ([]Record, error) {
	var out []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ResultsBucket)).ForEach(func(_, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

// Expire deletes records older than ttl and returns how many it removed.
func (l *ResultLog) Expire(now time.Time, ttl time.Duration) (int, error) {
	limit := []byte(fmt.Sprintf("%020d|", now.Add(-ttl).UnixNano()))
	removed := 0
	err := l.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(ResultsBucket))
		var stale [][]byte
		c := bkt.Cursor()
		for k, _ := c.First(); k != nil && bytes.Compare(k, limit) < 0; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close flushes pending records. It does not close the database.
func (l *ResultLog) Close() { l.b.Close() }
