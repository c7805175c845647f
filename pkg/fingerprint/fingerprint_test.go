// pkg/fingerprint/fingerprint_test.go
package fingerprint

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/dattu/rollsim/pkg/buffer"
	"github.com/dattu/rollsim/pkg/source"
	"github.com/dattu/rollsim/pkg/weights"
)

func randomBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func mustEngine(t *testing.T, src source.Source, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(src, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestChecksumDeterministic(t *testing.T) {
	p := Params{WindowSize: 5, Base: 31, Modulus: math.MaxUint64}
	// ((((1*r)+2)*r+3)*r+4)*r+5  where r = 31
	want := uint64(986115)
	if got := p.Checksum([]byte{1, 2, 3, 4, 5}); got != want {
		t.Errorf("Checksum mismatch: got %d, want %d", got, want)
	}
}

func TestChecksumLinear(t *testing.T) {
	// Checksum(a+b) == Checksum(a) + Checksum(b) mod m for same-length slices
	p := Params{WindowSize: 3, Base: 99, Modulus: 1 << 30}
	a := []byte{10, 20, 30}
	b := []byte{5, 15, 25}
	sum := make([]byte, len(a))
	for i := range a {
		sum[i] = a[i] + b[i]
	}
	if got, want := p.Checksum(sum), (p.Checksum(a)+p.Checksum(b))%p.Modulus; got != want {
		t.Errorf("Checksum(sum)=%d, Checksum(a)+Checksum(b)=%d", got, want)
	}
}

func TestAbabByHand(t *testing.T) {
	cfg := Config{WindowSize: 4, Base: 3, Modulus: 97, SelectorMask: 1, BufferSize: 16}
	// 'a'*27 + 'b'*9 + 'a'*3 + 'b' = 2619 + 882 + 291 + 98 = 3890; 3890 mod 97 = 10
	const want = 10

	e := mustEngine(t, source.Bytes([]byte("abab")), cfg)
	var got []uint64
	if err := e.Walk(func(pos int64, c uint64) {
		if pos != 0 {
			t.Errorf("unexpected window at %d", pos)
		}
		got = append(got, c)
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("checksums = %v, want [%d]", got, want)
	}

	// 10 is even, so the odd selector keeps nothing.
	set, err := e.Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("odd selector kept %v", set.Slice())
	}

	cfg.SelectorMask = 0
	set, err = mustEngine(t, source.Bytes([]byte("abab")), cfg).Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if s := set.Slice(); len(s) != 1 || s[0] != want {
		t.Errorf("accept-all selector kept %v, want [%d]", s, want)
	}
}

type readerKind struct {
	name string
	wrap func(io.Reader) io.Reader
}

var readerKinds = []readerKind{
	{"plain", func(r io.Reader) io.Reader { return r }},
	{"onebyte", iotest.OneByteReader},
	{"half", iotest.HalfReader},
	{"dataerr", iotest.DataErrReader},
}

func TestRollingMatchesDirectEvaluation(t *testing.T) {
	for _, w := range []int{1, 4, 40} {
		for _, bufSize := range []int{w + 1, w + 7, 64, 4096} {
			if bufSize <= w {
				continue
			}
			for _, n := range []int{0, 1, w - 1, w, w + 1, 2*bufSize + 3, 3000} {
				if n < 0 {
					continue
				}
				data := randomBytes(int64(n*131+w), n)
				cfg := Config{WindowSize: w, Base: 3, Modulus: 1 << 30, SelectorMask: 1, BufferSize: bufSize}
				p := cfg.Params()

				for _, rk := range readerKinds {
					src := source.Reader(rk.name, func() (io.Reader, error) {
						return rk.wrap(bytes.NewReader(data)), nil
					})
					e := mustEngine(t, src, cfg, WithAllocator(buffer.Heap{}))

					var count int64
					err := e.Walk(func(pos int64, c uint64) {
						if pos != count {
							t.Fatalf("w=%d buf=%d n=%d %s: window %d reported at %d", w, bufSize, n, rk.name, count, pos)
						}
						end := int(pos) + w
						if end > n {
							end = n
						}
						if want := p.Checksum(data[pos:end]); c != want {
							t.Fatalf("w=%d buf=%d n=%d %s: window %d checksum %d, want %d",
								w, bufSize, n, rk.name, pos, c, want)
						}
						count++
					})
					if err != nil {
						t.Fatalf("Walk: %v", err)
					}

					want := int64(0)
					switch {
					case n >= w:
						want = int64(n - w + 1)
					case n > 0:
						want = 1
					}
					if count != want {
						t.Errorf("w=%d buf=%d n=%d %s: %d windows, want %d", w, bufSize, n, rk.name, count, want)
					}
					if st := e.Stats(); st.Bytes != int64(n) || st.Windows != want {
						t.Errorf("stats %+v, want bytes=%d windows=%d", st, n, want)
					}
				}
			}
		}
	}
}

func TestSimilarityProperties(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 1 << 12

	a := randomBytes(1, 20000)
	b := append(append([]byte{}, a[:10000]...), randomBytes(2, 10000)...)

	ab, err := mustEngine(t, source.Bytes(a), cfg).Similarity(mustEngine(t, source.Bytes(b), cfg))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	ba, err := mustEngine(t, source.Bytes(b), cfg).Similarity(mustEngine(t, source.Bytes(a), cfg))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if ab != ba {
		t.Errorf("asymmetric: %v vs %v", ab, ba)
	}
	// Half the content is shared: roughly 1/3 of the union.
	if ab < 0.25 || ab > 0.42 {
		t.Errorf("similarity of half-shared streams = %v", ab)
	}

	aa, err := mustEngine(t, source.Bytes(a), cfg).Similarity(mustEngine(t, source.Bytes(a), cfg))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if aa != 1.0 {
		t.Errorf("self similarity = %v, want 1", aa)
	}

	unrelated, err := mustEngine(t, source.Bytes(a), cfg).Similarity(mustEngine(t, source.Bytes(randomBytes(3, 20000)), cfg))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if unrelated > 0.01 {
		t.Errorf("unrelated streams similarity = %v", unrelated)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	// modulus 97 never produces bit 7, so this selector rejects everything
	cfg := Config{WindowSize: 8, Base: 3, Modulus: 97, SelectorMask: 0x80, BufferSize: 64}
	got, err := mustEngine(t, source.Bytes([]byte("abc")), cfg).
		Similarity(mustEngine(t, source.Bytes([]byte("xyz")), cfg))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if got != 0.0 {
		t.Errorf("empty similarity = %v, want 0", got)
	}

	empty := DefaultConfig()
	empty.BufferSize = 64
	got, err = mustEngine(t, source.Bytes(nil), empty).Similarity(mustEngine(t, source.Bytes(nil), empty))
	if err != nil || got != 0.0 {
		t.Errorf("empty streams: %v, %v", got, err)
	}
}

func TestSelectorMonotonicity(t *testing.T) {
	data := randomBytes(9, 50000)
	prev := math.MaxInt
	for _, mask := range []uint64{0, 1, 3, 7, 0xff} {
		cfg := Config{WindowSize: 40, Base: 3, Modulus: 1 << 30, SelectorMask: mask, BufferSize: 1 << 12}
		set, err := mustEngine(t, source.Bytes(data), cfg).Fingerprints()
		if err != nil {
			t.Fatalf("Fingerprints: %v", err)
		}
		if set.Len() > prev {
			t.Errorf("mask %#x kept %d checksums, looser mask kept %d", mask, set.Len(), prev)
		}
		prev = set.Len()
	}
}

func TestSamplingRate(t *testing.T) {
	const n = 100000
	cfg := DefaultConfig()
	cfg.BufferSize = 1 << 14
	e := mustEngine(t, source.Bytes(randomBytes(11, n)), cfg)
	set, err := e.Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	windows := float64(n - cfg.WindowSize + 1)
	if got := float64(set.Len()) / windows; math.Abs(got-0.5) > 0.02 {
		t.Errorf("odd selector kept %.3f of windows, want ~0.5", got)
	}
	if st := e.Stats(); st.Sampled < int64(set.Len()) || st.Windows != int64(windows) {
		t.Errorf("stats %+v inconsistent with set of %d", st, set.Len())
	}
}

func TestConfigMismatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 64
	other := cfg
	other.Modulus = 1 << 20

	_, err := mustEngine(t, source.Bytes([]byte("hello")), cfg).
		Similarity(mustEngine(t, source.Bytes([]byte("hello")), other))
	if !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("engine mismatch error = %v", err)
	}

	_, err = Similarity(NewSet(cfg.Params()), NewSet(other.Params()))
	if !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("set mismatch error = %v", err)
	}

	// Buffer size does not affect checksums and is not part of the identity.
	bigger := cfg
	bigger.BufferSize = 4096
	if _, err := Similarity(NewSet(cfg.Params()), NewSet(bigger.Params())); err != nil {
		t.Errorf("buffer size treated as mismatch: %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	bad := []Config{
		{WindowSize: 0, Base: 3, Modulus: 97, BufferSize: 10},
		{WindowSize: 4, Base: 0, Modulus: 97, BufferSize: 10},
		{WindowSize: 4, Base: 3, Modulus: 0, BufferSize: 10},
		{WindowSize: 4, Base: 3, Modulus: 97, BufferSize: 4},
	}
	for _, cfg := range bad {
		if _, err := New(source.Bytes(nil), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("New(%+v) error = %v", cfg, err)
		}
	}
	if _, err := New(nil, DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(nil) error = %v", err)
	}
}

type failingSource struct {
	openErr, readErr error
	served           bool
}

func (f *failingSource) Open() error { return f.openErr }
func (f *failingSource) Close() error { return nil }
func (f *failingSource) ReadChunk(p []byte) (int, error) {
	if !f.served {
		f.served = true
		return copy(p, "some bytes before the failure"), nil
	}
	return 0, f.readErr
}

func TestStreamErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	cfg := DefaultConfig()
	cfg.WindowSize = 4
	cfg.BufferSize = 64

	_, err := mustEngine(t, &failingSource{openErr: boom}, cfg).Fingerprints()
	var se *StreamError
	if !errors.As(err, &se) || se.Op != "open" || !errors.Is(err, boom) {
		t.Errorf("open failure: %v", err)
	}

	_, err = mustEngine(t, &failingSource{readErr: boom}, cfg).Fingerprints()
	if !errors.As(err, &se) || se.Op != "read" || !errors.Is(err, boom) {
		t.Errorf("read failure: %v", err)
	}
}

func TestEnginesShareWeights(t *testing.T) {
	var cache weights.Cache
	cfg := DefaultConfig()
	cfg.BufferSize = 64
	a := mustEngine(t, source.Bytes(nil), cfg, WithWeights(&cache))
	b := mustEngine(t, source.Bytes(nil), cfg, WithWeights(&cache))
	if a.table != b.table || cache.Len() != 1 {
		t.Errorf("engines of one config built %d tables", cache.Len())
	}
}
