// internal/field/number.go
package field

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tamzrod/regcache/internal/bitaddr"
	"github.com/tamzrod/regcache/internal/regmap"
)

// mask has the low n bits set, n <= 64.
func mask(n uint64) uint64 {
	if n >= 64 {
		return math.MaxUint64
	}
	return 1<<n - 1
}

// decodeUint assembles a section buffer into a number. Big-endian puts the
// first byte in the most significant position.
func decodeUint(buf []byte, order regmap.ByteOrder) uint64 {
	var x uint64
	if order == regmap.BigEndian {
		for _, b := range buf {
			x = x<<8 | uint64(b)
		}
		return x
	}
	for i := len(buf) - 1; i >= 0; i-- {
		x = x<<8 | uint64(buf[i])
	}
	return x
}

func encodeUint(x uint64, n int, order regmap.ByteOrder) []byte {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		if order == regmap.BigEndian {
			buf[n-1-i] = byte(x)
		} else {
			buf[i] = byte(x)
		}
		x >>= 8
	}
	return buf
}

func signExtend(x uint64, bits uint64) int64 {
	if bits < 64 && x&(1<<(bits-1)) != 0 {
		x |= ^mask(bits)
	}
	return int64(x)
}

func parseUnsigned(text string, bits uint64) (uint64, error) {
	x, _, err := bitaddr.ParseNumber(text, 64)
	if err != nil {
		return 0, err
	}
	if x > mask(bits) {
		return 0, fmt.Errorf("%d does not fit in %d bits", x, bits)
	}
	return x, nil
}

func parseSigned(text string, bits uint64) (int64, error) {
	s := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(text))
	x, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a signed integer", text)
	}
	if bits < 64 {
		lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
		if x < lo || x > hi {
			return 0, fmt.Errorf("%d is outside %d..%d", x, lo, hi)
		}
	}
	return x, nil
}

func parseFloat(text string, t regmap.Type) (float64, error) {
	s := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(text))
	size := 64
	if t == regmap.TypeFloat {
		size = 32
	}
	x, err := strconv.ParseFloat(s, size)
	if err != nil {
		return 0, fmt.Errorf("%q is not a %s", text, t)
	}
	return x, nil
}

func formatUnsigned(x uint64, v *regmap.Value) string {
	bits := int(v.Length().TotalBits())
	switch v.Format().Display {
	case regmap.DisplayHex:
		return fmt.Sprintf("0x%0*X", (bits+3)/4, x)
	case regmap.DisplayBin:
		return fmt.Sprintf("%0*bb", bits, x)
	default:
		return strconv.FormatUint(x, 10)
	}
}

func decodeFloat(buf []byte, v *regmap.Value) float64 {
	x := decodeUint(buf, v.Format().Order)
	if v.Type == regmap.TypeFloat {
		return float64(math.Float32frombits(uint32(x)))
	}
	return math.Float64frombits(x)
}

func formatFloat(x float64, v *regmap.Value) string {
	size := 64
	if v.Type == regmap.TypeFloat {
		size = 32
	}
	if p := v.Format().Precision; p >= 0 {
		return strconv.FormatFloat(x, 'f', p, size)
	}
	return strconv.FormatFloat(x, 'g', -1, size)
}
