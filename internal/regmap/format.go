// internal/regmap/format.go
package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Display selects how integer values render as text.
type Display uint8

const (
	DisplayNum Display = iota
	DisplayHex
	DisplayBin
)

// ByteOrder of a multi-byte field inside its section.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Encoding of a string field.
type Encoding uint8

const (
	EncodingUTF8 Encoding = iota
	EncodingASCII
	EncodingUnicode // UTF-16 little-endian
	EncodingLatin1
)

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingUnicode:
		return "unicode"
	case EncodingLatin1:
		return "latin1"
	default:
		return "utf8"
	}
}

// Format is the parsed subtype of a value. Only the members relevant to the
// value's type are set.
type Format struct {
	Display   Display
	Order     ByteOrder
	Low       string // bool
	High      string // bool
	Precision int    // float, -1 when not given
	Encoding  Encoding
	IPVersion int
}

// resolveFormat checks the length and subtype of v against its type.
// Enum values are checked against their enum by Initialize.
func resolveFormat(v *Value) (Format, error) {
	f := Format{Precision: -1}
	bits := v.length.TotalBits()
	sub := v.Subtype

	bad := func(format string, args ...any) (Format, error) {
		return Format{}, fmt.Errorf("%w: value %q (%s): %s", ErrInvalid, v.Name, v.Type, fmt.Sprintf(format, args...))
	}

	switch {
	case v.Type == TypeBool:
		if bits != 1 {
			return bad("length %s is not a single bit", v.length)
		}
		if sub == "" {
			f.Low, f.High = "0", "1"
			return f, nil
		}
		parts := strings.Split(sub, ",")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return bad("subtype %q is not <low text>,<high text>", sub)
		}
		f.Low, f.High = parts[0], parts[1]

	case v.Type.IsUnsigned():
		if bits > uint64(v.Type.Bits()) {
			return bad("length %s is wider than %d bits", v.length, v.Type.Bits())
		}
		parts := strings.Split(sub, ",")
		if len(parts) > 2 {
			return bad("subtype %q is not <hex|bin|num>[,<be|le>]", sub)
		}
		switch parts[0] {
		case "", "num":
			f.Display = DisplayNum
		case "hex":
			f.Display = DisplayHex
		case "bin":
			f.Display = DisplayBin
		default:
			return bad("display %q in subtype is not hex, bin or num", parts[0])
		}
		if len(parts) == 2 {
			order, ok := parseOrder(parts[1])
			if !ok {
				return bad("byte order %q in subtype is not be or le", parts[1])
			}
			f.Order = order
		}

	case v.Type.IsSigned():
		if bits > uint64(v.Type.Bits()) {
			return bad("length %s is wider than %d bits", v.length, v.Type.Bits())
		}
		if sub != "" {
			order, ok := parseOrder(sub)
			if !ok {
				return bad("subtype %q is not be or le", sub)
			}
			f.Order = order
		}

	case v.Type.IsFloat():
		if bits != uint64(v.Type.Bits()) {
			return bad("length %s is not %d bits", v.length, v.Type.Bits())
		}
		if sub != "" {
			p, err := strconv.Atoi(sub)
			if err != nil || p < 0 {
				return bad("subtype %q is not a precision", sub)
			}
			f.Precision = p
		}

	case v.Type == TypeString:
		if v.length.Bits() != 0 {
			return bad("length %s does not end on a byte boundary", v.length)
		}
		switch strings.ToLower(sub) {
		case "", "utf8":
			f.Encoding = EncodingUTF8
		case "ascii":
			f.Encoding = EncodingASCII
		case "unicode":
			f.Encoding = EncodingUnicode
			if n := v.length.Bytes(); n < 2 || n%2 != 0 {
				return bad("unicode length %s is not a multiple of 2 bytes", v.length)
			}
		case "latin1":
			f.Encoding = EncodingLatin1
		default:
			return bad("subtype %q is not ascii, utf8, unicode or latin1", sub)
		}

	case v.Type == TypeIP:
		switch {
		case sub == "4" && bits == 32:
			f.IPVersion = 4
		case sub == "6" && bits == 128:
			f.IPVersion = 6
		case sub == "4" || sub == "6":
			return bad("IPv%s needs %d bits, got %s", sub, map[string]int{"4": 32, "6": 128}[sub], v.length)
		default:
			return bad("subtype %q is not 4 or 6", sub)
		}

	case v.Type == TypeMAC:
		if sub != "" {
			return bad("subtype %q given, none expected", sub)
		}
		if bits != 48 {
			return bad("length %s is not 48 bits", v.length)
		}
	}

	// be swaps whole bytes
	if f.Order == BigEndian && v.length.Bits() != 0 {
		return bad("big-endian length %s does not end on a byte boundary", v.length)
	}
	return f, nil
}

func parseOrder(s string) (ByteOrder, bool) {
	switch strings.ToLower(s) {
	case "le":
		return LittleEndian, true
	case "be":
		return BigEndian, true
	}
	return 0, false
}
