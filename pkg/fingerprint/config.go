// pkg/fingerprint/config.go
package fingerprint

import (
	"fmt"
)

// Defaults for Config.
const (
	DefaultWindowSize   = 40
	DefaultBase         = 3
	DefaultModulus      = 1 << 30
	DefaultSelectorMask = 0x1
	DefaultBufferSize   = 10 << 20
)

// Config parameterises an Engine.
//
// WindowSize bytes are hashed per window as the polynomial
// Σ b[i]*Base^(WindowSize-1-i). Each window's checksum is that value mod
// Modulus, and a checksum c is kept when c&SelectorMask == SelectorMask.
// BufferSize is the size of the staging buffer and must exceed WindowSize;
// it has no effect on the result.
type Config struct {
	WindowSize   int
	Base         uint64
	Modulus      uint64
	SelectorMask uint64
	BufferSize   int
}

// Params is the part of a Config that determines checksums. Fingerprints
// are only comparable when their Params are equal.
type Params struct {
	WindowSize   int
	Base         uint64
	Modulus      uint64
	SelectorMask uint64
}

func (p Params) String() string {
	return fmt.Sprintf("window=%d base=%d modulus=%d selector=%#x",
		p.WindowSize, p.Base, p.Modulus, p.SelectorMask)
}

// DefaultConfig returns the stock configuration: 40-byte windows, base 3,
// checksums mod 2^30, odd checksums sampled, 10 MiB staging buffer.
func DefaultConfig() Config {
	return Config{
		WindowSize:   DefaultWindowSize,
		Base:         DefaultBase,
		Modulus:      DefaultModulus,
		SelectorMask: DefaultSelectorMask,
		BufferSize:   DefaultBufferSize,
	}
}

// Params returns the result-determining part of c.
func (c Config) Params() Params {
	return Params{
		WindowSize:   c.WindowSize,
		Base:         c.Base,
		Modulus:      c.Modulus,
		SelectorMask: c.SelectorMask,
	}
}

// Validate reports whether c can drive an Engine.
func (c Config) Validate() error {
	switch {
	case c.WindowSize < 1:
		return fmt.Errorf("%w: window size %d < 1", ErrInvalidConfig, c.WindowSize)
	case c.Base < 1:
		return fmt.Errorf("%w: base must be positive", ErrInvalidConfig)
	case c.Modulus < 1:
		return fmt.Errorf("%w: modulus must be positive", ErrInvalidConfig)
	case c.BufferSize <= c.WindowSize:
		return fmt.Errorf("%w: buffer size %d must exceed window size %d",
			ErrInvalidConfig, c.BufferSize, c.WindowSize)
	}
	return nil
}
