// internal/bitaddr/number.go
package bitaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse failure in this package.
var ErrSyntax = errors.New("bitaddr: invalid syntax")

// Format records the textual base a number was authored in,
// so it can be written back the same way.
type Format uint8

const (
	Decimal   Format = iota // 1,024
	HexSuffix               // 400h
	HexPrefix               // 0x400
	Binary                  // 10000000000b
)

// ParseNumber parses an unsigned number in one of the supported notations.
// Priority: trailing 'h' hex, '0x' hex, trailing 'b' binary, decimal.
// Underscores are digit-group separators everywhere; decimal numbers may
// also use ',' thousands separators. bitSize bounds the result as in
// strconv.ParseUint.
func ParseNumber(s string, bitSize int) (uint64, Format, error) {
	t := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))

	var (
		digits string
		base   int
		format Format
	)
	switch {
	case len(t) > 1 && t[len(t)-1] == 'h':
		digits, base, format = t[:len(t)-1], 16, HexSuffix
	case len(t) > 2 && t[0] == '0' && t[1] == 'x':
		digits, base, format = t[2:], 16, HexPrefix
	case len(t) > 1 && t[len(t)-1] == 'b':
		digits, base, format = t[:len(t)-1], 2, Binary
	default:
		if strings.HasPrefix(t, ",") || strings.HasSuffix(t, ",") {
			return 0, Decimal, fmt.Errorf("%w: %q is not a number", ErrSyntax, s)
		}
		digits, base, format = strings.ReplaceAll(t, ",", ""), 10, Decimal
	}

	v, err := strconv.ParseUint(digits, base, bitSize)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, format, fmt.Errorf("%w: %q does not fit in %d bits", ErrSyntax, s, bitSize)
		}
		return 0, format, fmt.Errorf("%w: %q is not a number", ErrSyntax, s)
	}
	return v, format, nil
}

// FormatNumber renders v in the given notation.
func FormatNumber(v uint64, f Format) string {
	switch f {
	case HexSuffix:
		return fmt.Sprintf("%Xh", v)
	case HexPrefix:
		return fmt.Sprintf("0x%X", v)
	case Binary:
		return strconv.FormatUint(v, 2) + "b"
	default:
		return strconv.FormatUint(v, 10)
	}
}

func (f Format) String() string {
	switch f {
	case HexSuffix:
		return "hex-suffix"
	case HexPrefix:
		return "hex-prefix"
	case Binary:
		return "binary"
	default:
		return "decimal"
	}
}
