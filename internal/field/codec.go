// internal/field/codec.go
package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/regcache/internal/regcache"
	"github.com/tamzrod/regcache/internal/regmap"
)

// Get renders the cached value of v as text.
func Get(acc regcache.Accessor, v *regmap.Value) (string, error) {
	if !v.Readable() {
		return "", fmt.Errorf("%w: %q is write-only", ErrAccess, v.Name)
	}
	buf, err := read(acc, v)
	if err != nil {
		return "", err
	}

	f := v.Format()
	switch t := v.Type; {
	case t == regmap.TypeBool:
		if buf[0]&1 == 1 {
			return f.High, nil
		}
		return f.Low, nil

	case t.IsUnsigned():
		return formatUnsigned(decodeUint(buf, f.Order), v), nil

	case t.IsSigned():
		return fmt.Sprintf("%d", signExtend(decodeUint(buf, f.Order), v.Length().TotalBits())), nil

	case t.IsFloat():
		return formatFloat(decodeFloat(buf, v), v), nil

	case t == regmap.TypeEnum:
		x := decodeUint(buf, regmap.LittleEndian)
		it, ok := v.Enumeration().ItemByValue(x)
		if !ok {
			return "", fmt.Errorf("%w: %q holds %d, which is not an item of enum %q", ErrInput, v.Name, x, v.Subtype)
		}
		return it.Name, nil

	case t == regmap.TypeString:
		s, err := decodeString(buf, f.Encoding)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInput, v.Name, err)
		}
		return s, nil

	case t == regmap.TypeIP:
		return formatIP(buf), nil

	case t == regmap.TypeMAC:
		return formatMAC(buf), nil
	}
	return "", fmt.Errorf("field: %q has unsupported type %s", v.Name, v.Type)
}

// Set parses text and writes it into the cache. Text that does not parse or
// fit returns ErrInput and leaves the cache untouched.
func Set(acc regcache.Accessor, v *regmap.Value, text string) error {
	if !v.Writable() {
		return fmt.Errorf("%w: %q is read-only", ErrAccess, v.Name)
	}
	buf, err := encode(v, text)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInput, v.Name, err)
	}
	return acc.WriteSection(v.Address(), v.Length(), buf)
}

// State is the cache state of the field's bits.
func State(acc regcache.Accessor, v *regmap.Value) (regcache.State, error) {
	return acc.SectionState(v.Address(), v.Length())
}

// Raw returns the unsigned register number of an integer, enum or bool
// field, before any conversion.
func Raw(acc regcache.Accessor, v *regmap.Value) (uint64, error) {
	order := v.Format().Order
	switch t := v.Type; {
	case t.IsInteger():
	case t == regmap.TypeEnum, t == regmap.TypeBool:
		order = regmap.LittleEndian
	default:
		return 0, fmt.Errorf("%w: %q is %s", ErrType, v.Name, v.Type)
	}
	buf, err := read(acc, v)
	if err != nil {
		return 0, err
	}
	return decodeUint(buf, order), nil
}

// Scaled returns the engineering value of a numeric field: the register
// number (sign-extended for signed types) times gain plus offset.
func Scaled(acc regcache.Accessor, v *regmap.Value) (float64, error) {
	if !v.Type.IsNumeric() {
		return 0, fmt.Errorf("%w: %q is %s", ErrType, v.Name, v.Type)
	}
	buf, err := read(acc, v)
	if err != nil {
		return 0, err
	}

	var x float64
	switch {
	case v.Type.IsFloat():
		x = decodeFloat(buf, v)
	case v.Type.IsSigned():
		x = float64(signExtend(decodeUint(buf, v.Format().Order), v.Length().TotalBits()))
	default:
		x = float64(decodeUint(buf, v.Format().Order))
	}
	if c := v.Conversion(); c != nil {
		x = c.Apply(x)
	}
	return x, nil
}

func read(acc regcache.Accessor, v *regmap.Value) ([]byte, error) {
	buf := make([]byte, v.Length().BufferLen())
	if err := acc.ReadSection(v.Address(), v.Length(), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func encode(v *regmap.Value, text string) ([]byte, error) {
	f := v.Format()
	n := v.Length().BufferLen()
	bits := v.Length().TotalBits()

	switch t := v.Type; {
	case t == regmap.TypeBool:
		switch {
		case strings.EqualFold(text, f.High), text == "1", strings.EqualFold(text, "true"):
			return []byte{1}, nil
		case strings.EqualFold(text, f.Low), text == "0", strings.EqualFold(text, "false"):
			return []byte{0}, nil
		}
		return nil, fmt.Errorf("%q is neither %q nor %q", text, f.Low, f.High)

	case t.IsUnsigned():
		x, err := parseUnsigned(text, bits)
		if err != nil {
			return nil, err
		}
		return encodeUint(x, n, f.Order), nil

	case t.IsSigned():
		x, err := parseSigned(text, bits)
		if err != nil {
			return nil, err
		}
		return encodeUint(uint64(x)&mask(bits), n, f.Order), nil

	case t.IsFloat():
		x, err := parseFloat(text, v.Type)
		if err != nil {
			return nil, err
		}
		if v.Type == regmap.TypeFloat {
			return encodeUint(uint64(math.Float32bits(float32(x))), n, f.Order), nil
		}
		return encodeUint(math.Float64bits(x), n, f.Order), nil

	case t == regmap.TypeEnum:
		e := v.Enumeration()
		if it, ok := e.ItemByName(text); ok {
			return encodeUint(it.Value, n, regmap.LittleEndian), nil
		}
		return nil, fmt.Errorf("%q is not an item of enum %q", text, e.ID)

	case t == regmap.TypeString:
		return encodeString(text, n, f.Encoding)

	case t == regmap.TypeIP:
		return parseIP(text, f.IPVersion)

	case t == regmap.TypeMAC:
		return parseMAC(text)
	}
	return nil, fmt.Errorf("unsupported type %s", v.Type)
}
