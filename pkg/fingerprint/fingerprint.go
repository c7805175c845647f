// pkg/fingerprint/fingerprint.go
package fingerprint

import (
	"errors"
	"fmt"
	"io"

	"github.com/dattu/rollsim/pkg/bigint"
	"github.com/dattu/rollsim/pkg/buffer"
	"github.com/dattu/rollsim/pkg/source"
	"github.com/dattu/rollsim/pkg/weights"
)

// Engine computes the rolling-hash fingerprint of one byte source.
// An Engine must not be driven by two goroutines at once; engines that
// share a configuration share its weight table read-only.
type Engine struct {
	src   source.Source
	cfg   Config
	table *weights.Table
	alloc buffer.Allocator
	base  bigint.Nat
	stats Stats
}

// Stats describes the last completed pass over the source.
type Stats struct {
	Bytes   int64 // bytes read
	Windows int64 // checksums computed
	Sampled int64 // checksums that passed the selector, duplicates included
}

type options struct {
	cache *weights.Cache
	alloc buffer.Allocator
}

// Option customises New.
type Option func(*options)

// WithWeights takes weight tables from c instead of weights.Shared.
func WithWeights(c *weights.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithAllocator stages reads in buffers obtained from a.
func WithAllocator(a buffer.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// New returns an Engine reading src under cfg.
func New(src source.Source, cfg Config, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{cache: weights.Shared, alloc: buffer.Default}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		src:   src,
		cfg:   cfg,
		table: o.cache.Get(cfg.Base, cfg.WindowSize),
		alloc: o.alloc,
	}
	e.base.SetUint64(cfg.Base)
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Stats returns statistics of the last pass that reached end-of-stream.
func (e *Engine) Stats() Stats { return e.stats }

// Walk reads the source from the start and calls fn with the checksum of
// every window, in stream order; pos is the offset of the window's first
// byte. A stream shorter than one window yields a single checksum over
// all of its bytes, and an empty stream yields none.
func (e *Engine) Walk(fn func(pos int64, checksum uint64)) (err error) {
	if err := e.src.Open(); err != nil {
		return &StreamError{Op: "open", Err: err}
	}
	defer func() {
		if cerr := e.src.Close(); cerr != nil && err == nil {
			err = &StreamError{Op: "close", Err: cerr}
		}
	}()

	buf := e.alloc.Get(e.cfg.BufferSize)
	defer e.alloc.Put(buf)

	var (
		w       = e.cfg.WindowSize
		mod     = e.cfg.Modulus
		hash    bigint.Nat
		in      bigint.Nat
		filled  int   // bytes of buf holding stream data
		start   int   // index in buf of the window's oldest byte
		pos     int64 // stream offset of the window's oldest byte
		rolling bool
		st      Stats
	)
	for {
		if filled == len(buf) {
			// Only the live window is still needed; copy is overlap-safe.
			filled = copy(buf, buf[start:filled])
			start = 0
		}
		n, rerr := e.src.ReadChunk(buf[filled:])
		filled += n
		st.Bytes += int64(n)

		if !rolling && filled >= w {
			horner(&hash, &e.base, buf[:w])
			fn(0, hash.Rem(mod))
			st.Windows++
			rolling = true
		}
		if rolling {
			for next := start + w; next < filled; next++ {
				hash.Sub(&hash, e.table.At(buf[start]))
				hash.Mul(&hash, &e.base)
				in.SetUint64(uint64(buf[next]))
				hash.Add(&hash, &in)
				start++
				pos++
				fn(pos, hash.Rem(mod))
				st.Windows++
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return &StreamError{Op: "read", Err: rerr}
		}
		if n == 0 {
			break
		}
	}

	if !rolling && filled > 0 {
		horner(&hash, &e.base, buf[:filled])
		fn(0, hash.Rem(mod))
		st.Windows++
	}
	e.stats = st
	return nil
}

// Fingerprints drains the source and returns the set of sampled
// checksums.
func (e *Engine) Fingerprints() (*Set, error) {
	mask := e.cfg.SelectorMask
	set := NewSet(e.cfg.Params())
	var sampled int64
	err := e.Walk(func(_ int64, c uint64) {
		if c&mask == mask {
			set.Add(c)
			sampled++
		}
	})
	if err != nil {
		return nil, err
	}
	e.stats.Sampled = sampled
	return set, nil
}

// Similarity fingerprints e and then other and returns the resemblance of
// the two streams. Engines with different Params are rejected before
// either source is opened.
func (e *Engine) Similarity(other *Engine) (float64, error) {
	if p, q := e.cfg.Params(), other.cfg.Params(); p != q {
		return 0, fmt.Errorf("%w: %s vs %s", ErrConfigMismatch, p, q)
	}
	a, err := e.Fingerprints()
	if err != nil {
		return 0, err
	}
	b, err := other.Fingerprints()
	if err != nil {
		return 0, err
	}
	return Similarity(a, b)
}

// Checksum evaluates the hash of window directly, without rolling, and
// reduces it mod p.Modulus. Walk reports the same value for every window.
func (p Params) Checksum(window []byte) uint64 {
	var hash bigint.Nat
	horner(&hash, bigint.NewNat(p.Base), window)
	return hash.Rem(p.Modulus)
}

// horner sets h to Σ p[i]*base^(len(p)-1-i).
func horner(h, base *bigint.Nat, p []byte) {
	var b bigint.Nat
	h.SetUint64(0)
	for _, c := range p {
		h.Mul(h, base)
		b.SetUint64(uint64(c))
		h.Add(h, &b)
	}
}
