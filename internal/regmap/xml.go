// internal/regmap/xml.go
package regmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/tamzrod/regcache/internal/bitaddr"
)

// Parse reads a <block> document. The result is not initialized.
func Parse(r io.Reader) (*Block, error) {
	var b Block
	if err := xml.NewDecoder(r).Decode(&b); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &b, nil
}

// ParseFile reads a <block> document from path.
func ParseFile(path string) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regmap: %w", err)
	}
	defer f.Close()

	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Load parses and initializes the schema at path.
func Load(path string) (*Block, error) {
	b, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := b.Initialize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Encode regenerates the document. Numeric attributes keep the notation they
// were parsed in; children come out in ordinal order.
func Encode(w io.Writer, b *Block) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(b); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// EncodeFile regenerates the document into path.
func EncodeFile(path string, b *Block) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("regmap: %w", err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ------------------------------------------------------------
// decoding
// ------------------------------------------------------------

type attrs struct {
	elem string
	m    map[string]string
}

func newAttrs(start xml.StartElement) attrs {
	a := attrs{elem: start.Name.Local, m: make(map[string]string, len(start.Attr))}
	for _, at := range start.Attr {
		a.m[at.Name.Local] = at.Value
	}
	return a
}

func (a attrs) required(name string) (string, error) {
	s, ok := a.m[name]
	if !ok {
		return "", fmt.Errorf("%w: <%s> is missing required attribute %q", ErrMalformed, a.elem, name)
	}
	if s == "" {
		return "", fmt.Errorf("%w: <%s> attribute %q is empty", ErrMalformed, a.elem, name)
	}
	return s, nil
}

// optional returns ok=false when the attribute is absent. Present but empty
// is an error.
func (a attrs) optional(name string) (string, bool, error) {
	s, ok := a.m[name]
	if !ok {
		return "", false, nil
	}
	if s == "" {
		return "", false, fmt.Errorf("%w: <%s> attribute %q is empty", ErrMalformed, a.elem, name)
	}
	return s, true, nil
}

func (a attrs) access() (Access, error) {
	s, ok, err := a.optional("access")
	if err != nil || !ok {
		return 0, err
	}
	acc, err := ParseAccess(s)
	if err != nil {
		return 0, fmt.Errorf("<%s>: %w", a.elem, err)
	}
	return acc, nil
}

func (b *Block) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if start.Name.Local != "block" {
		return fmt.Errorf("%w: root element is <%s>, expected <block>", ErrMalformed, start.Name.Local)
	}
	a := newAttrs(start)

	var err error
	if b.Access, err = a.access(); err != nil {
		return err
	}
	if s, ok, err := a.optional("addressable"); err != nil {
		return err
	} else if ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: <block> addressable %q is not an integer", ErrMalformed, s)
		}
		b.Addressable = n
	}
	if b.Description, _, err = a.optional("description"); err != nil {
		return err
	}
	if b.ID, err = a.required("id"); err != nil {
		return err
	}
	if b.Name, err = a.required("name"); err != nil {
		return err
	}

	s, err := a.required("size_in_bytes")
	if err != nil {
		return err
	}
	size, format, err := bitaddr.ParseNumber(s, 31)
	if err != nil {
		return fmt.Errorf("%w: <block> size_in_bytes: %v", ErrMalformed, err)
	}
	if size < 1 {
		return fmt.Errorf("%w: <block> size_in_bytes (%s) is less than 1", ErrMalformed, s)
	}
	b.SizeInBytes, b.SizeFormat = int(size), format

	if s, err = a.required("version"); err != nil {
		return err
	}
	if b.Version, err = ParseVersion(s); err != nil {
		return err
	}

	ordinal := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "value":
				v, err := decodeValue(d, t)
				if err != nil {
					return err
				}
				v.Ordinal = ordinal
				b.Values = append(b.Values, v)
			case "group":
				g, err := decodeGroup(d, t)
				if err != nil {
					return err
				}
				g.Ordinal = ordinal
				b.Groups = append(b.Groups, g)
			case "enum":
				e, err := decodeEnum(d, t)
				if err != nil {
					return err
				}
				e.Ordinal = ordinal
				b.Enums = append(b.Enums, e)
			case "conv":
				c, err := decodeConv(d, t)
				if err != nil {
					return err
				}
				c.Ordinal = ordinal
				b.Convs = append(b.Convs, c)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			ordinal++
		case xml.EndElement:
			return nil
		}
	}
}

func decodeValue(d *xml.Decoder, start xml.StartElement) (*Value, error) {
	a := newAttrs(start)
	v := &Value{}
	var err error

	if v.Name, err = a.required("name"); err != nil {
		return nil, err
	}
	if v.Addr, err = a.required("addr"); err != nil {
		return nil, err
	}
	if v.Size, err = a.required("size"); err != nil {
		return nil, err
	}
	s, err := a.required("type")
	if err != nil {
		return nil, err
	}
	if v.Type, err = ParseType(s); err != nil {
		return nil, fmt.Errorf("<value> %q: %w", v.Name, err)
	}
	if v.Access, err = a.access(); err != nil {
		return nil, err
	}
	if v.Conv, _, err = a.optional("conv"); err != nil {
		return nil, err
	}
	if v.Subtype, _, err = a.optional("subtype"); err != nil {
		return nil, err
	}
	if v.Tooltip, _, err = a.optional("tooltip"); err != nil {
		return nil, err
	}
	if v.Units, _, err = a.optional("units"); err != nil {
		return nil, err
	}
	return v, d.Skip()
}

func decodeGroup(d *xml.Decoder, start xml.StartElement) (*Group, error) {
	a := newAttrs(start)
	g := &Group{}
	var err error
	if g.Name, err = a.required("name"); err != nil {
		return nil, err
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			v, err := decodeValue(d, t)
			if err != nil {
				return nil, err
			}
			v.Ordinal = len(g.Values)
			g.Values = append(g.Values, v)
		case xml.EndElement:
			return g, nil
		}
	}
}

func decodeEnum(d *xml.Decoder, start xml.StartElement) (*Enum, error) {
	a := newAttrs(start)
	e := &Enum{}
	var err error
	if e.ID, err = a.required("id"); err != nil {
		return nil, err
	}
	if e.Width, err = a.required("width"); err != nil {
		return nil, err
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "item" {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			it, err := decodeItem(d, t)
			if err != nil {
				return nil, fmt.Errorf("<enum> %q: %w", e.ID, err)
			}
			e.Items = append(e.Items, it)
		case xml.EndElement:
			return e, nil
		}
	}
}

func decodeItem(d *xml.Decoder, start xml.StartElement) (*Item, error) {
	a := newAttrs(start)
	it := &Item{}
	var err error
	if it.Name, err = a.required("name"); err != nil {
		return nil, err
	}
	if it.Tooltip, _, err = a.optional("tooltip"); err != nil {
		return nil, err
	}
	s, err := a.required("value")
	if err != nil {
		return nil, err
	}
	if it.Value, it.ValueFormat, err = bitaddr.ParseNumber(s, 64); err != nil {
		return nil, fmt.Errorf("%w: <item> %q value: %v", ErrMalformed, it.Name, err)
	}
	return it, d.Skip()
}

func decodeConv(d *xml.Decoder, start xml.StartElement) (*Conv, error) {
	a := newAttrs(start)
	c := &Conv{}
	var err error
	if c.ID, err = a.required("id"); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		dst  **Float
	}{{"gain", &c.Gain}, {"offset", &c.Offset}} {
		s, ok, err := a.optional(f.name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		v, err := ParseFloat(s)
		if err != nil {
			return nil, fmt.Errorf("<conv> %q %s: %w", c.ID, f.name, err)
		}
		*f.dst = &v
	}
	return c, d.Skip()
}

// ------------------------------------------------------------
// encoding
// ------------------------------------------------------------

type attrList []xml.Attr

func (l *attrList) add(name, value string) {
	*l = append(*l, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (l *attrList) addIf(name, value string) {
	if value != "" {
		l.add(name, value)
	}
}

func (b *Block) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	var at attrList
	at.addIf("access", b.Access.String())
	if b.Addressable != 0 {
		at.add("addressable", strconv.Itoa(b.Addressable))
	}
	at.addIf("description", b.Description)
	at.add("id", b.ID)
	at.add("name", b.Name)
	at.add("size_in_bytes", bitaddr.FormatNumber(uint64(b.SizeInBytes), b.SizeFormat))
	at.add("version", b.Version.String())

	type child struct {
		ordinal int
		node    any
	}
	var children []child
	for _, c := range b.Convs {
		children = append(children, child{c.Ordinal, c})
	}
	for _, en := range b.Enums {
		children = append(children, child{en.Ordinal, en})
	}
	for _, g := range b.Groups {
		children = append(children, child{g.Ordinal, g})
	}
	for _, v := range b.Values {
		children = append(children, child{v.Ordinal, v})
	}
	sort.SliceStable(children, func(i, j int) bool { return children[i].ordinal < children[j].ordinal })
	for i := 1; i < len(children); i++ {
		if children[i].ordinal == children[i-1].ordinal {
			return fmt.Errorf("%w: two child elements share ordinal %d; ordinals must be unique across all children", ErrInvalid, children[i].ordinal)
		}
	}

	start := xml.StartElement{Name: xml.Name{Local: "block"}, Attr: at}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range children {
		if err := encodeChild(e, c.node); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func element(e *xml.Encoder, name string, at attrList, body func() error) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: at}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if body != nil {
		if err := body(); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func encodeChild(e *xml.Encoder, node any) error {
	switch n := node.(type) {
	case *Conv:
		return encodeConv(e, n)
	case *Enum:
		return encodeEnum(e, n)
	case *Group:
		return encodeGroup(e, n)
	case *Value:
		return encodeValue(e, n)
	}
	return fmt.Errorf("regmap: cannot encode %T", node)
}

func encodeValue(e *xml.Encoder, v *Value) error {
	var at attrList
	at.addIf("access", v.Access.String())
	at.add("addr", v.Addr)
	at.addIf("conv", v.Conv)
	at.add("name", v.Name)
	at.add("size", v.Size)
	at.addIf("subtype", v.Subtype)
	at.addIf("tooltip", v.Tooltip)
	at.add("type", v.Type.String())
	at.addIf("units", v.Units)
	return element(e, "value", at, nil)
}

func encodeGroup(e *xml.Encoder, g *Group) error {
	var at attrList
	at.add("name", g.Name)
	return element(e, "group", at, func() error {
		for _, v := range g.Values {
			if err := encodeValue(e, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeEnum(e *xml.Encoder, en *Enum) error {
	var at attrList
	at.add("id", en.ID)
	at.add("width", en.Width)
	return element(e, "enum", at, func() error {
		for _, it := range en.Items {
			var iat attrList
			iat.add("name", it.Name)
			iat.addIf("tooltip", it.Tooltip)
			iat.add("value", bitaddr.FormatNumber(it.Value, it.ValueFormat))
			if err := element(e, "item", iat, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeConv(e *xml.Encoder, c *Conv) error {
	var at attrList
	if c.Gain != nil {
		at.add("gain", c.Gain.String())
	}
	at.add("id", c.ID)
	if c.Offset != nil {
		at.add("offset", c.Offset.String())
	}
	return element(e, "conv", at, nil)
}
