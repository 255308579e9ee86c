// internal/regmap/types.go
package regmap

import "fmt"

// Type is the declared data type of a value.
type Type uint8

const (
	TypeBool Type = iota + 1
	TypeString
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat
	TypeDouble
	TypeIP
	TypeMAC
	TypeEnum
)

var typeNames = []string{
	TypeBool:   "bool",
	TypeString: "string",
	TypeUint8:  "uint8",
	TypeUint16: "uint16",
	TypeUint32: "uint32",
	TypeUint64: "uint64",
	TypeInt8:   "int8",
	TypeInt16:  "int16",
	TypeInt32:  "int32",
	TypeInt64:  "int64",
	TypeFloat:  "float",
	TypeDouble: "double",
	TypeIP:     "ip",
	TypeMAC:    "mac",
	TypeEnum:   "enum",
}

// ParseType matches the markup names exactly (lower case).
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name != "" && name == s {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("%w: type %q is not a recognized value type", ErrMalformed, s)
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t Type) IsUnsigned() bool { return t >= TypeUint8 && t <= TypeUint64 }
func (t Type) IsSigned() bool   { return t >= TypeInt8 && t <= TypeInt64 }
func (t Type) IsInteger() bool  { return t.IsUnsigned() || t.IsSigned() }
func (t Type) IsFloat() bool    { return t == TypeFloat || t == TypeDouble }

// IsNumeric reports whether units and conversions apply.
func (t Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// Bits is the storage width of numeric types, 0 for the rest.
func (t Type) Bits() int {
	switch t {
	case TypeUint8, TypeInt8:
		return 8
	case TypeUint16, TypeInt16:
		return 16
	case TypeUint32, TypeInt32, TypeFloat:
		return 32
	case TypeUint64, TypeInt64, TypeDouble:
		return 64
	}
	return 0
}
