// pkg/bigint/nat.go
package bigint

import (
	"math/big"
	"math/bits"
)

// Nat is an exact non-negative integer of unbounded magnitude.
// The zero value is 0 and ready to use. A Nat must not be copied after
// first use; pass pointers.
type Nat struct {
	x big.Int
}

// NewNat returns a Nat holding v.
func NewNat(v uint64) *Nat {
	z := new(Nat)
	z.x.SetUint64(v)
	return z
}

// SetUint64 sets z to v and returns z.
func (z *Nat) SetUint64(v uint64) *Nat {
	z.x.SetUint64(v)
	return z
}

// Set sets z to x and returns z.
func (z *Nat) Set(x *Nat) *Nat {
	z.x.Set(&x.x)
	return z
}

// Add sets z to x+y and returns z.
func (z *Nat) Add(x, y *Nat) *Nat {
	z.x.Add(&x.x, &y.x)
	return z
}

// Sub sets z to x-y and returns z. It panics if y > x: a Nat never goes
// negative.
func (z *Nat) Sub(x, y *Nat) *Nat {
	if x.x.Cmp(&y.x) < 0 {
		panic("bigint: subtraction underflow")
	}
	z.x.Sub(&x.x, &y.x)
	return z
}

// Mul sets z to x*y and returns z.
func (z *Nat) Mul(x, y *Nat) *Nat {
	z.x.Mul(&x.x, &y.x)
	return z
}

// Rem returns x mod m. It does not allocate. Rem panics if m is zero.
func (x *Nat) Rem(m uint64) uint64 {
	if m == 0 {
		panic("bigint: division by zero")
	}
	var rem uint64
	words := x.x.Bits()
	for i := len(words) - 1; i >= 0; i-- {
		w := uint64(words[i])
		if bits.UintSize == 64 {
			_, rem = bits.Div64(rem, w, m)
		} else {
			// rem < m, so the high half stays below m as Div64 requires.
			_, rem = bits.Div64(rem>>32, rem<<32|w, m)
		}
	}
	return rem
}

// IsUint64 reports whether x fits in a uint64.
func (x *Nat) IsUint64() bool {
	return x.x.IsUint64()
}

// Uint64 narrows x to a uint64. It panics if x does not fit.
func (x *Nat) Uint64() uint64 {
	if !x.x.IsUint64() {
		panic("bigint: value overflows uint64")
	}
	return x.x.Uint64()
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x *Nat) Cmp(y *Nat) int {
	return x.x.Cmp(&y.x)
}

// BitLen returns the length of x in bits. The bit length of 0 is 0.
func (x *Nat) BitLen() int {
	return x.x.BitLen()
}

// Big returns x as a newly allocated *big.Int.
func (x *Nat) Big() *big.Int {
	return new(big.Int).Set(&x.x)
}

func (x *Nat) String() string {
	return x.x.String()
}
