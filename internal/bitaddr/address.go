// internal/bitaddr/address.go
package bitaddr

import (
	"fmt"
	"math"
	"strings"
)

// MaxBytes is the largest byte count an Address built from input may carry.
const MaxBytes = math.MaxUint32

// Address is a bit-precise position or length: a byte count plus 0..7 bits.
// Only the total bit count is stored, so == and map keys compare by total bits.
// The zero value is offset 0.
type Address struct {
	total uint64
}

// New builds an Address from a byte and bit count. Bits beyond 7 carry into bytes.
func New(bytes, bits uint64) (Address, error) {
	whole := bytes + bits/8
	if bytes > MaxBytes || whole > MaxBytes {
		return Address{}, fmt.Errorf("%w: %d bytes and %d bits exceed %d bytes", ErrSyntax, bytes, bits, uint64(MaxBytes))
	}
	return Address{total: bytes*8 + bits}, nil
}

// FromBits builds an Address from a raw bit count.
func FromBits(total uint64) Address {
	return Address{total: total}
}

// FromBytes builds a whole-byte Address.
func FromBytes(n int) Address {
	return Address{total: uint64(n) * 8}
}

// Parse reads "<num>[.<num>]" where the first number counts bytes and the
// optional second counts bits. multiplier (1, 2, 4 or 8) scales the byte
// portion only, converting a word address into a byte address.
func Parse(s string, multiplier int) (Address, error) {
	switch multiplier {
	case 1, 2, 4, 8:
	default:
		return Address{}, fmt.Errorf("bitaddr: address multiplier %d is not 1, 2, 4, or 8", multiplier)
	}

	bytesPart, bitsPart, hasBits := s, "", false
	if strings.Contains(s, ".") {
		parts := strings.Split(s, ".")
		if len(parts) != 2 {
			return Address{}, fmt.Errorf("%w: %q must have exactly one '.' between bytes and bits (<bytes>.<bits>)", ErrSyntax, s)
		}
		bytesPart, bitsPart, hasBits = parts[0], parts[1], true
	}

	bytes, _, err := ParseNumber(bytesPart, 32)
	if err != nil {
		return Address{}, fmt.Errorf("%w: bytes portion %q of %q could not be parsed", ErrSyntax, bytesPart, s)
	}
	var bits uint64
	if hasBits {
		bits, _, err = ParseNumber(bitsPart, 32)
		if err != nil {
			return Address{}, fmt.Errorf("%w: bits portion %q of %q could not be parsed", ErrSyntax, bitsPart, s)
		}
	}

	a, err := New(bytes*uint64(multiplier), bits)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q is larger than %d bytes", ErrSyntax, s, uint64(MaxBytes))
	}
	return a, nil
}

// MustParse is Parse with multiplier 1 that panics on error. For literals.
func MustParse(s string) Address {
	a, err := Parse(s, 1)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) Bytes() int        { return int(a.total / 8) }
func (a Address) Bits() int         { return int(a.total % 8) }
func (a Address) TotalBits() uint64 { return a.total }
func (a Address) IsZero() bool      { return a.total == 0 }

// BufferLen is the number of bytes needed to hold a section of this length.
func (a Address) BufferLen() int {
	return int((a.total + 7) / 8)
}

func (a Address) Add(b Address) Address {
	return Address{total: a.total + b.total}
}

// Sub panics if b is larger than a.
func (a Address) Sub(b Address) Address {
	if b.total > a.total {
		panic(fmt.Sprintf("bitaddr: %s - %s is negative", a, b))
	}
	return Address{total: a.total - b.total}
}

func (a *Address) AddBits(n uint64)  { a.total += n }
func (a *Address) AddBytes(n uint64) { a.total += n * 8 }

// Compare returns -1, 0 or +1 ordering by total bits.
func (a Address) Compare(b Address) int {
	switch {
	case a.total < b.total:
		return -1
	case a.total > b.total:
		return 1
	}
	return 0
}

func (a Address) Less(b Address) bool { return a.total < b.total }

// CompareBytes compares against a plain byte count.
func (a Address) CompareBytes(n uint64) int {
	return a.Compare(Address{total: n * 8})
}

// String renders "0x<bytes>" or "0x<bytes>.<bits>", which Parse reads back.
func (a Address) String() string {
	if a.Bits() == 0 {
		return fmt.Sprintf("0x%X", a.Bytes())
	}
	return fmt.Sprintf("0x%X.%d", a.Bytes(), a.Bits())
}
