package blockbench

import (
	"fmt"
	"math/bits"
	"strconv"
)

// Key layout: 12 bits, three 4-bit fields holding log2 of each dimension,
// k in bits 8-11, m in bits 4-7, n in bits 0-3.
const (
	keyFieldBits = 4
	keyFieldMask = 1<<keyFieldBits - 1

	// MaxDimension is the largest dimension a SizeKey can represent.
	MaxDimension = 1 << keyFieldMask
)

// SizeTriple holds the K, M, N dimensions of a matrix product (or of its
// blocking). All three are powers of two.
type SizeTriple struct {
	K, M, N int
}

// SizeKey is the compact encoding of a SizeTriple. Comparing keys as integers
// orders triples lexicographically by (log2 K, log2 M, log2 N).
type SizeKey uint16

// NewSizeTriple validates k, m, n and returns the triple.
func NewSizeTriple(k, m, n int) (SizeTriple, error) {
	for _, d := range [...]int{k, m, n} {
		if !IsPowerOfTwo(d) {
			return SizeTriple{}, NewInvalidArgError("NewSizeTriple",
				fmt.Sprintf("dimension %d is not a positive power of two", d))
		}
		if d > MaxDimension {
			return SizeTriple{}, NewInvalidArgError("NewSizeTriple",
				fmt.Sprintf("dimension %d exceeds %d", d, MaxDimension))
		}
	}
	return SizeTriple{K: k, M: m, N: n}, nil
}

// IsPowerOfTwo reports whether x is a positive power of two.
func IsPowerOfTwo(x int) bool {
	return x > 0 && x&(x-1) == 0
}

// Log2POT returns l such that x == 1<<l. x must be a positive power of two;
// the result is meaningless otherwise.
func Log2POT(x int) uint {
	return uint(bits.Len(uint(x)) - 1)
}

// EncodeSizes packs k, m, n into a SizeKey.
func EncodeSizes(k, m, n int) SizeKey {
	return SizeKey(Log2POT(k)<<(2*keyFieldBits) | Log2POT(m)<<keyFieldBits | Log2POT(n))
}

// Key returns the compact encoding of t.
func (t SizeTriple) Key() SizeKey {
	return EncodeSizes(t.K, t.M, t.N)
}

// Decode recovers the triple encoded in key.
func (key SizeKey) Decode() SizeTriple {
	return SizeTriple{
		K: 1 << ((key >> (2 * keyFieldBits)) & keyFieldMask),
		M: 1 << ((key >> keyFieldBits) & keyFieldMask),
		N: 1 << (key & keyFieldMask),
	}
}

// String renders the key in lowercase hex without prefix, the form used in
// result tables.
func (key SizeKey) String() string {
	return strconv.FormatUint(uint64(key), 16)
}

// ParseSizeKey parses the hex form produced by SizeKey.String.
func ParseSizeKey(s string) (SizeKey, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, NewInvalidArgError("ParseSizeKey", fmt.Sprintf("bad size key %q: %v", s, err))
	}
	if v >= 1<<(3*keyFieldBits) {
		return 0, NewInvalidArgError("ParseSizeKey", fmt.Sprintf("size key %q out of range", s))
	}
	return SizeKey(v), nil
}

// Flops returns the floating-point operations of one product of this size,
// counting one multiply and one add per term.
func (t SizeTriple) Flops() float64 {
	return 2 * float64(t.K) * float64(t.M) * float64(t.N)
}

// Fits reports whether every dimension of t is at most the matching one of o.
func (t SizeTriple) Fits(o SizeTriple) bool {
	return t.K <= o.K && t.M <= o.M && t.N <= o.N
}

func (t SizeTriple) String() string {
	return fmt.Sprintf("(%d, %d, %d)", t.K, t.M, t.N)
}
