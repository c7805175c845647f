// pkg/weights/table.go
package weights

import (
	"fmt"
	"sync"

	"github.com/dattu/rollsim/pkg/bigint"
)

// Table maps every byte value v to v * base^(window-1), the amount a byte
// contributes to the rolling hash while it is the oldest byte of the window.
// A Table is immutable once built.
type Table struct {
	base   uint64
	window int
	w      [256]bigint.Nat
}

// Build computes the table for (base, window). It panics if window < 1.
func Build(base uint64, window int) *Table {
	if window < 1 {
		panic(fmt.Sprintf("weights: window must be positive, got %d", window))
	}
	b := bigint.NewNat(base)
	pow := bigint.NewNat(1)
	for i := 0; i < window-1; i++ {
		pow.Mul(pow, b)
	}

	t := &Table{base: base, window: window}
	v := new(bigint.Nat)
	for i := range t.w {
		v.SetUint64(uint64(i))
		t.w[i].Mul(v, pow)
	}
	return t
}

// At returns the weight of byte b. The result must not be modified.
func (t *Table) At(b byte) *bigint.Nat { return &t.w[b] }

// Base returns the polynomial base the table was built for.
func (t *Table) Base() uint64 { return t.base }

// Window returns the window size the table was built for.
func (t *Table) Window() int { return t.window }

/* ------------------------------------------------------------------------ */
/* cache                                                                    */
/* ------------------------------------------------------------------------ */

type key struct {
	base   uint64
	window int
}

type entry struct {
	once sync.Once
	t    *Table
}

// Cache hands out one Table per (base, window) pair. Each table is built
// at most once, even when the first requests race; entries are never
// evicted. The zero value is ready to use.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*entry
}

// Shared is the process-wide cache used by engines that are not given one.
var Shared = &Cache{}

// Get returns the table for (base, window), building it on first use.
func (c *Cache) Get(base uint64, window int) *Table {
	k := key{base: base, window: window}

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[key]*entry)
	}
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	c.mu.Unlock()

	// Built outside c.mu; racing callers for the same key wait in once.Do.
	e.once.Do(func() { e.t = Build(base, window) })
	return e.t
}

// Len returns the number of configurations the cache holds.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
