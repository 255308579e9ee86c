// internal/regmap/initialize.go
package regmap

import (
	"fmt"
	"sort"

	"github.com/tamzrod/regcache/internal/bitaddr"
)

// Initialize resolves addresses, lengths, access and references, builds the
// lookup tables and validates the layout. It stops at the first violation
// and may be called again after the schema was edited.
func (b *Block) Initialize() error {
	b.initialized = false
	b.enums = make(map[string]*Enum)
	b.convs = make(map[string]*Conv)
	b.values = make(map[string]*Value)
	b.ordered = nil

	switch b.Addressable {
	case 0:
		b.addressable = 1
	case 1, 2, 4, 8:
		b.addressable = b.Addressable
	default:
		return fmt.Errorf("%w: addressable (%d) is not 1, 2, 4 or 8", ErrInvalid, b.Addressable)
	}

	b.access = b.Access
	if b.access == 0 {
		b.access = ReadWrite
	}

	if b.SizeInBytes < 1 || uint64(b.SizeInBytes) > bitaddr.MaxBytes {
		return fmt.Errorf("%w: size_in_bytes (%d) is out of range", ErrInvalid, b.SizeInBytes)
	}

	for _, e := range b.Enums {
		if e.ID == "" {
			return fmt.Errorf("%w: enum without an id", ErrInvalid)
		}
		if _, dup := b.enums[e.ID]; dup {
			return fmt.Errorf("%w: enum id %q is used more than once; ids must be unique across the block", ErrInvalid, e.ID)
		}
		b.enums[e.ID] = e
		if err := e.initialize(); err != nil {
			return err
		}
	}

	for _, c := range b.Convs {
		if c.ID == "" {
			return fmt.Errorf("%w: conv without an id", ErrInvalid)
		}
		if _, dup := b.convs[c.ID]; dup {
			return fmt.Errorf("%w: conv id %q is used more than once; ids must be unique across the block", ErrInvalid, c.ID)
		}
		b.convs[c.ID] = c
	}

	for _, v := range b.declared() {
		if err := b.initValue(v); err != nil {
			return err
		}
		b.ordered = append(b.ordered, v)
	}

	if err := b.checkLayout(); err != nil {
		return err
	}

	b.initialized = true
	return nil
}

// declared lists values in declaration order, group members in place of
// their group.
func (b *Block) declared() []*Value {
	type entry struct {
		ordinal int
		values  []*Value
		group   *Group
	}
	var entries []entry
	for _, v := range b.Values {
		v.group = nil
		entries = append(entries, entry{ordinal: v.Ordinal, values: []*Value{v}})
	}
	for _, g := range b.Groups {
		entries = append(entries, entry{ordinal: g.Ordinal, values: g.Values, group: g})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ordinal < entries[j].ordinal })

	var out []*Value
	for _, e := range entries {
		for _, v := range e.values {
			if e.group != nil {
				v.group = e.group
			}
			out = append(out, v)
		}
	}
	return out
}

func (b *Block) initValue(v *Value) error {
	if v.Name == "" {
		return fmt.Errorf("%w: value without a name", ErrInvalid)
	}
	if _, dup := b.values[v.Name]; dup {
		return fmt.Errorf("%w: value name %q is used more than once", ErrInvalid, v.Name)
	}
	b.values[v.Name] = v

	var err error
	if v.address, err = bitaddr.Parse(v.Addr, b.addressable); err != nil {
		return fmt.Errorf("%w: value %q addr: %v", ErrInvalid, v.Name, err)
	}
	if v.length, err = bitaddr.Parse(v.Size, 1); err != nil {
		return fmt.Errorf("%w: value %q size: %v", ErrInvalid, v.Name, err)
	}
	if v.length.IsZero() {
		return fmt.Errorf("%w: value %q has a length of zero", ErrInvalid, v.Name)
	}

	v.access = b.access
	if v.Access != 0 {
		if !b.access.Contains(v.Access) {
			return fmt.Errorf("%w: value %q has %s access, but the block only allows %s", ErrInvalid, v.Name, v.Access, b.access)
		}
		v.access = v.Access
	}

	if v.Units != "" && !v.Type.IsNumeric() {
		return fmt.Errorf("%w: value %q has units (%s), but %s values take none (integer or floating point only)", ErrInvalid, v.Name, v.Units, v.Type)
	}

	v.conv = nil
	if v.Conv != "" {
		c, ok := b.convs[v.Conv]
		if !ok {
			return fmt.Errorf("%w: value %q refers to conv %q, which is not in the block", ErrInvalid, v.Name, v.Conv)
		}
		if !v.Type.IsNumeric() {
			return fmt.Errorf("%w: value %q has a conversion (%s), but %s values take none (integer or floating point only)", ErrInvalid, v.Name, v.Conv, v.Type)
		}
		v.conv = c
	}

	v.enum = nil
	if v.Type == TypeEnum {
		e, ok := b.enums[v.Subtype]
		if !ok {
			return fmt.Errorf("%w: value %q refers to enum %q, which is not in the block", ErrInvalid, v.Name, v.Subtype)
		}
		if e.length != v.length {
			return fmt.Errorf("%w: value %q is %s long, but enum %q is %s wide", ErrInvalid, v.Name, v.length, e.ID, e.length)
		}
		v.enum = e
	}

	v.format, err = resolveFormat(v)
	return err
}

// checkLayout rejects overlapping values and values reaching the end of the
// block.
func (b *Block) checkLayout() error {
	var maxEnd bitaddr.Address
	for i, v := range b.ordered {
		end := v.End()
		for _, w := range b.ordered[i+1:] {
			if v.address.Less(w.End()) && w.address.Less(end) {
				return fmt.Errorf("%w: value %q (%s+%s) overlaps value %q (%s+%s); mapped regions must be unique in the block",
					ErrInvalid, v.Name, v.address, v.length, w.Name, w.address, w.length)
			}
		}
		if maxEnd.Less(end) {
			maxEnd = end
		}
	}
	if maxEnd.CompareBytes(uint64(b.SizeInBytes)) >= 0 {
		return fmt.Errorf("%w: end address %s of a value is not below the block size (%d)", ErrInvalid, maxEnd, b.SizeInBytes)
	}
	return nil
}

func (e *Enum) initialize() error {
	length, err := bitaddr.Parse(e.Width, 1)
	if err != nil {
		return fmt.Errorf("%w: enum %q width: %v", ErrInvalid, e.ID, err)
	}
	if length.TotalBits() > 64 {
		return fmt.Errorf("%w: enum %q width %s is larger than 64 bits", ErrInvalid, e.ID, length)
	}
	if length.IsZero() {
		return fmt.Errorf("%w: enum %q has a width of zero", ErrInvalid, e.ID)
	}
	e.length = length
	e.mask = ^uint64(0) >> (64 - length.TotalBits())

	e.byValue = make(map[uint64]*Item, len(e.Items))
	e.byName = make(map[string]*Item, len(e.Items))
	for _, it := range e.Items {
		if _, dup := e.byName[it.Name]; dup {
			return fmt.Errorf("%w: item name %q in enum %q is used more than once", ErrInvalid, it.Name, e.ID)
		}
		e.byName[it.Name] = it

		if prev, dup := e.byValue[it.Value]; dup {
			return fmt.Errorf("%w: item %q in enum %q reuses the value of item %q", ErrInvalid, it.Name, e.ID, prev.Name)
		}
		e.byValue[it.Value] = it

		if it.Value > e.mask {
			return fmt.Errorf("%w: item %q value (%d) in enum %q does not fit %s", ErrInvalid, it.Name, it.Value, e.ID, e.length)
		}
	}
	return nil
}
