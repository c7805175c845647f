/*===============================================================================
  pkg/storage/batcher.go
  -----------------------------------------------------------------------------*/

package storage

import (
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	batchSize     = 100
	flushInterval = 250 * time.Millisecond
)

type kv struct{ k, v []byte }

// Batcher coalesces Puts into one bucket into periodic bolt transactions.
type Batcher struct {
	db     *bolt.DB
	bucket string
	ch     chan kv
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewBatcher(db *bolt.DB, bucket string) *Batcher {
	b := &Batcher{db: db, bucket: bucket, ch: make(chan kv, 1024), done: make(chan struct{})}
	b.wg.Add(1)
	go b.loop()
	return b
}

// Put queues k=v for the next flush. It must not be called after Close.
func (b *Batcher) Put(k, v []byte) { b.ch <- kv{k, v} }

// Close flushes everything queued so far and stops the batcher.
func (b *Batcher) Close() {
	b.once.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *Batcher) loop() {
	defer b.wg.Done()
	buf := make([]kv, 0, batchSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		_ = b.db.Update(func(tx *bolt.Tx) error {
			bk, err := tx.CreateBucketIfNotExists([]byte(b.bucket))
			if err != nil {
				return err
			}
			for _, p := range buf {
				bk.Put(p.k, p.v)
			}
			return nil
		})
		buf = buf[:0]
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case p := <-b.ch:
			buf = append(buf, p)
			if len(buf) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-b.done:
			for {
				select {
				case p := <-b.ch:
					buf = append(buf, p)
				default:
					flush()
					return
				}
			}
		}
	}
}
