// pkg/buffer/buffer.go
package buffer

import (
	pool "github.com/libp2p/go-buffer-pool"
)

// Allocator hands out staging buffers for reading chunks of a stream.
// Get returns a slice of exactly n bytes; Put gives it back once the
// caller is done with it.
type Allocator interface {
	Get(n int) []byte
	Put(b []byte)
}

// Pooled recycles buffers through a size-classed pool. The zero value is
// ready to use.
type Pooled struct {
	p pool.BufferPool
}

func (a *Pooled) Get(n int) []byte { return a.p.Get(n) }
func (a *Pooled) Put(b []byte)     { a.p.Put(b) }

// Heap allocates a fresh buffer on every Get and leaves reclamation to
// the garbage collector.
type Heap struct{}

func (Heap) Get(n int) []byte { return make([]byte, n) }
func (Heap) Put([]byte)       {}

// Default is the allocator used when none is configured.
var Default Allocator = &Pooled{}
