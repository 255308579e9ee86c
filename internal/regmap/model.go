// internal/regmap/model.go
package regmap

import (
	"github.com/tamzrod/regcache/internal/bitaddr"
)

// Block is the root of a register map: one contiguous register region and
// the fields laid out in it.
//
// Exported fields mirror the markup. Everything derived from them
// (addresses, lookup tables, resolved references) is filled by Initialize.
type Block struct {
	ID          string
	Name        string
	Description string
	Access      Access // zero means RW
	Addressable int    // bytes per address unit; zero means 1
	SizeInBytes int
	SizeFormat  bitaddr.Format
	Version     Version

	Convs  []*Conv
	Enums  []*Enum
	Groups []*Group
	Values []*Value

	addressable int
	access      Access
	enums       map[string]*Enum
	convs       map[string]*Conv
	values      map[string]*Value
	ordered     []*Value
	initialized bool
}

// Group is a named set of values. It has no layout of its own.
type Group struct {
	Name    string
	Ordinal int
	Values  []*Value
}

// Value is one field of the block.
type Value struct {
	Name    string
	Addr    string // address units of the block, "<n>[.<bit>]"
	Size    string // bytes, "<n>[.<bits>]"
	Type    Type
	Access  Access // zero inherits the block's access
	Conv    string
	Subtype string
	Tooltip string
	Units   string
	Ordinal int

	address bitaddr.Address
	length  bitaddr.Address
	access  Access
	conv    *Conv
	enum    *Enum
	format  Format
	group   *Group
}

// Enum names the values of an enum-typed field.
type Enum struct {
	ID      string
	Width   string
	Ordinal int
	Items   []*Item

	length  bitaddr.Address
	mask    uint64
	byValue map[uint64]*Item
	byName  map[string]*Item
}

type Item struct {
	Name        string
	Value       uint64
	ValueFormat bitaddr.Format
	Tooltip     string
}

// Conv maps a raw register number to an engineering value:
// raw*gain + offset.
type Conv struct {
	ID      string
	Gain    *Float
	Offset  *Float
	Ordinal int
}

// AddValue appends v as the last child of the block.
func (b *Block) AddValue(v *Value) {
	v.Ordinal = b.nextOrdinal()
	b.Values = append(b.Values, v)
	b.initialized = false
}

func (b *Block) AddGroup(g *Group) {
	g.Ordinal = b.nextOrdinal()
	b.Groups = append(b.Groups, g)
	b.initialized = false
}

func (b *Block) AddEnum(e *Enum) {
	e.Ordinal = b.nextOrdinal()
	b.Enums = append(b.Enums, e)
	b.initialized = false
}

func (b *Block) AddConv(c *Conv) {
	c.Ordinal = b.nextOrdinal()
	b.Convs = append(b.Convs, c)
	b.initialized = false
}

func (b *Block) nextOrdinal() int {
	next := 0
	bump := func(o int) {
		if o+1 > next {
			next = o + 1
		}
	}
	for _, c := range b.Convs {
		bump(c.Ordinal)
	}
	for _, e := range b.Enums {
		bump(e.Ordinal)
	}
	for _, g := range b.Groups {
		bump(g.Ordinal)
	}
	for _, v := range b.Values {
		bump(v.Ordinal)
	}
	return next
}

// Initialized reports whether Initialize succeeded since the last change
// made through the Add methods.
func (b *Block) Initialized() bool { return b.initialized }

// AddressUnit is the resolved addressable size in bytes.
func (b *Block) AddressUnit() int { return b.addressable }

// Accessibility is the resolved block access.
func (b *Block) Accessibility() Access { return b.access }

// AllValues returns every value, group members included, in declaration
// order. Valid after Initialize.
func (b *Block) AllValues() []*Value { return b.ordered }

// Value looks a value up by name. Valid after Initialize.
func (b *Block) Value(name string) (*Value, bool) {
	v, ok := b.values[name]
	return v, ok
}

func (b *Block) Enum(id string) (*Enum, bool) {
	e, ok := b.enums[id]
	return e, ok
}

func (b *Block) Conv(id string) (*Conv, bool) {
	c, ok := b.convs[id]
	return c, ok
}

// Address is the resolved byte/bit address of the value.
func (v *Value) Address() bitaddr.Address { return v.address }
func (v *Value) Length() bitaddr.Address  { return v.length }

// End is the first bit past the value.
func (v *Value) End() bitaddr.Address { return v.address.Add(v.length) }

func (v *Value) Accessibility() Access { return v.access }
func (v *Value) Readable() bool        { return v.access.Contains(Read) }
func (v *Value) Writable() bool        { return v.access.Contains(Write) }

// Conversion is nil when the value has none.
func (v *Value) Conversion() *Conv { return v.conv }

// Enumeration is set for enum-typed values.
func (v *Value) Enumeration() *Enum { return v.enum }

// Format is the resolved subtype.
func (v *Value) Format() Format { return v.format }

// Group is the group holding the value, nil at block level.
func (v *Value) Group() *Group { return v.group }

func (e *Enum) Length() bitaddr.Address { return e.length }

// Mask has the low Length bits set.
func (e *Enum) Mask() uint64 { return e.mask }

func (e *Enum) ItemByValue(v uint64) (*Item, bool) {
	it, ok := e.byValue[v]
	return it, ok
}

func (e *Enum) ItemByName(name string) (*Item, bool) {
	it, ok := e.byName[name]
	return it, ok
}

// Apply converts a raw register number. Missing gain is 1, missing offset 0.
func (c *Conv) Apply(raw float64) float64 {
	v := raw
	if c.Gain != nil {
		v *= c.Gain.Value
	}
	if c.Offset != nil {
		v += c.Offset.Value
	}
	return v
}
