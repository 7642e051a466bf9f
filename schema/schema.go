package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
)

// AggregateKind selects how an aggregate's fields are combined.
type AggregateKind uint8

const (
	Struct AggregateKind = iota
	Enum
	Union
)

var aggregateKindNames = [...]string{
	Struct: "struct",
	Enum:   "enum",
	Union:  "union",
}

func (k AggregateKind) String() string {
	if int(k) < len(aggregateKindNames) {
		return aggregateKindNames[k]
	}
	return "unknown"
}

// ParseAggregateKind accepts struct, enum and union.
func ParseAggregateKind(s string) (AggregateKind, error) {
	for k, name := range aggregateKindNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return AggregateKind(k), nil
		}
	}
	return Struct, fmt.Errorf("invalid aggregate kind %q; expected struct, enum or union", s)
}

// Layout is the padding mode of an aggregate's in-memory image.
type Layout uint8

const (
	// Natural inserts host-natural alignment padding between fields.
	Natural Layout = iota
	// Packed inserts no padding; fields may be unaligned.
	Packed
)

func (l Layout) String() string {
	if l == Packed {
		return "packed"
	}
	return "natural"
}

// ParseLayout accepts natural (or c, default, empty) and packed.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "natural", "c", "default":
		return Natural, nil
	case "packed":
		return Packed, nil
	}
	return Natural, fmt.Errorf("invalid layout %q; expected natural or packed", s)
}

// Scalar is a fixed-width primitive.
type Scalar uint8

const (
	Bool Scalar = iota + 1
	U8
	U16
	U32
	U64
	U128
	S8
	S16
	S32
	S64
	S128
	F32
	F64
	Char
)

var scalarNames = [...]string{
	Bool: "bool",
	U8:   "u8",
	U16:  "u16",
	U32:  "u32",
	U64:  "u64",
	U128: "u128",
	S8:   "s8",
	S16:  "s16",
	S32:  "s32",
	S64:  "s64",
	S128: "s128",
	F32:  "f32",
	F64:  "f64",
	Char: "char",
}

func (s Scalar) String() string {
	if s > 0 && int(s) < len(scalarNames) {
		return scalarNames[s]
	}
	return "unknown"
}

// Width returns the scalar's size in bytes, or 0 for an unknown scalar.
func (s Scalar) Width() int {
	switch s {
	case Bool, U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, F32, Char:
		return 4
	case U64, S64, F64:
		return 8
	case U128, S128:
		return 16
	default:
		return 0
	}
}

// Signed reports whether s is a two's complement integer.
func (s Scalar) Signed() bool {
	switch s {
	case S8, S16, S32, S64, S128:
		return true
	}
	return false
}

// ParseScalar accepts the canonical names plus byte, i8..i128 and the Go
// spellings uint8..uint64, int8..int64, float32 and float64.
func ParseScalar(s string) (Scalar, bool) {
	switch strings.ToLower(s) {
	case "bool":
		return Bool, true
	case "u8", "uint8", "byte":
		return U8, true
	case "u16", "uint16":
		return U16, true
	case "u32", "uint32":
		return U32, true
	case "u64", "uint64":
		return U64, true
	case "u128", "uint128":
		return U128, true
	case "s8", "i8", "int8":
		return S8, true
	case "s16", "i16", "int16":
		return S16, true
	case "s32", "i32", "int32":
		return S32, true
	case "s64", "i64", "int64":
		return S64, true
	case "s128", "i128", "int128":
		return S128, true
	case "f32", "float32":
		return F32, true
	case "f64", "float64":
		return F64, true
	case "char", "rune":
		return Char, true
	}
	return 0, false
}

// TypeKind discriminates Type.
type TypeKind uint8

const (
	TypeScalar TypeKind = iota + 1
	TypeArray
	TypeString
	TypeRef
)

// Type is the logical type of a field.
type Type struct {
	Elem   *Type
	Ref    *Aggregate
	Name   string // unresolved aggregate name, documents only
	Len    int
	Kind   TypeKind
	Scalar Scalar
}

func ScalarOf(s Scalar) *Type { return &Type{Kind: TypeScalar, Scalar: s} }

// ArrayOf returns a fixed array of n elements.
func ArrayOf(n int, elem *Type) *Type { return &Type{Kind: TypeArray, Len: n, Elem: elem} }

// BytesOf returns byte[n], a passthrough field.
func BytesOf(n int) *Type { return ArrayOf(n, ScalarOf(U8)) }

// StringType returns the text-bearing logical string. Fields of this type
// need a text directive.
func StringType() *Type { return &Type{Kind: TypeString} }

// RefOf embeds another aggregate.
func RefOf(a *Aggregate) *Type { return &Type{Kind: TypeRef, Ref: a} }

// IsBytes reports whether t is byte[N].
func (t *Type) IsBytes() bool {
	return t.Kind == TypeArray && t.Elem != nil && t.Elem.Kind == TypeScalar && t.Elem.Scalar == U8
}

// HasText reports whether a string is reachable from t.
func (t *Type) HasText() bool {
	switch t.Kind {
	case TypeString:
		return true
	case TypeArray:
		return t.Elem != nil && t.Elem.HasText()
	case TypeRef:
		return t.Ref != nil && t.Ref.HasText()
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeScalar:
		return t.Scalar.String()
	case TypeArray:
		if t.IsBytes() {
			return "byte[" + strconv.Itoa(t.Len) + "]"
		}
		return t.Elem.String() + "[" + strconv.Itoa(t.Len) + "]"
	case TypeString:
		return "string"
	case TypeRef:
		if t.Ref != nil {
			return t.Ref.Name
		}
		return t.Name
	}
	return "unknown"
}

// ParseType parses a type expression: a scalar name, "string", an aggregate
// name, or any of these followed by one or more [N] suffixes. Suffixes apply
// left to right, so u16[3][2] is two elements of u16[3]. Aggregate names
// are left unresolved in Type.Name.
func ParseType(s string) (*Type, error) {
	s = strings.TrimSpace(s)
	base := s
	var dims []int
	if i := strings.IndexByte(s, '['); i >= 0 {
		base = strings.TrimSpace(s[:i])
		rest := s[i:]
		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("invalid type %q: unexpected %q", s, rest)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid type %q: unterminated array length", s)
			}
			n, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid type %q: array length must be a positive integer", s)
			}
			dims = append(dims, n)
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	if base == "" {
		return nil, fmt.Errorf("invalid type %q: missing element type", s)
	}

	var t *Type
	if sc, ok := ParseScalar(base); ok {
		t = ScalarOf(sc)
	} else if strings.EqualFold(base, "string") {
		t = StringType()
	} else {
		t = &Type{Kind: TypeRef, Name: base}
	}
	for _, n := range dims {
		t = ArrayOf(n, t)
	}
	return t, nil
}

// TextDirective is the per-field text encoding request. The byte order is
// resolved from the field and its aggregate.
type TextDirective struct {
	Encoding text.Encoding
	Units    int
	Pad      text.Pad
}

func (d TextDirective) Format(order endian.Order) text.Format {
	return text.Format{Encoding: d.Encoding, Units: d.Units, Pad: d.Pad, Order: order}
}

func (d TextDirective) String() string {
	return fmt.Sprintf("%s,units=%d,pad=%s", d.Encoding, d.Units, d.Pad)
}

// ParseTextDirective parses "utf16,units=12,pad=space". Encoding and units
// are required; pad defaults to null.
func ParseTextDirective(s string) (TextDirective, error) {
	var d TextDirective
	var haveEnc, haveUnits bool
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"`)
		switch {
		case !hasVal:
			enc, err := text.ParseEncoding(key)
			if err != nil {
				return d, fmt.Errorf("unknown text option %q; expected utf8/utf16/utf32, units=N, pad=null|space|packed", part)
			}
			d.Encoding = enc
			haveEnc = true
		case key == "units":
			n, err := strconv.Atoi(val)
			if err != nil {
				return d, fmt.Errorf("invalid text units %q", val)
			}
			d.Units = n
			haveUnits = true
		case key == "pad":
			p, err := text.ParsePad(val)
			if err != nil {
				return d, err
			}
			d.Pad = p
		case key == "encoding" || key == "enc":
			enc, err := text.ParseEncoding(val)
			if err != nil {
				return d, err
			}
			d.Encoding = enc
			haveEnc = true
		default:
			return d, fmt.Errorf("unknown text option %q", key)
		}
	}
	if !haveEnc {
		return d, fmt.Errorf("text encoding missing; expected utf8, utf16 or utf32")
	}
	if !haveUnits {
		return d, fmt.Errorf("text units missing; expected units=N")
	}
	return d, nil
}

// Field is one member of a struct, union or enum variant. Tuple variant
// members have no name and are addressed by position.
type Field struct {
	Type *Type
	// Order overrides the aggregate's default byte order when set.
	Order *endian.Order
	Text  *TextDirective
	Name  string
}

// Variant is one case of an enum.
type Variant struct {
	Name         string
	Fields       []Field
	Discriminant uint64
	// Explicit is set when the discriminant was declared rather than
	// inferred from the variant's position.
	Explicit bool
	// Tuple marks positional members.
	Tuple bool
}

// HasData reports whether the variant carries a payload.
func (v *Variant) HasData() bool { return len(v.Fields) > 0 }

// Aggregate is a LogicalTypeDescription: a named struct, enum or union with
// an ordered field list and a default byte order.
type Aggregate struct {
	Name     string
	Fields   []Field
	Variants []Variant
	// Derive lists trait names passed through to generated wire types.
	Derive   []string
	TagWidth int
	Kind     AggregateKind
	Order    endian.Order
	Layout   Layout
}

// HasData reports whether any variant of an enum carries a payload.
func (a *Aggregate) HasData() bool {
	for i := range a.Variants {
		if a.Variants[i].HasData() {
			return true
		}
	}
	return false
}

// HasText reports whether a text field is reachable from the aggregate.
func (a *Aggregate) HasText() bool {
	return a.hasText(map[*Aggregate]bool{})
}

func (a *Aggregate) hasText(seen map[*Aggregate]bool) bool {
	if seen[a] {
		return false
	}
	seen[a] = true
	check := func(fields []Field) bool {
		for _, f := range fields {
			if f.Type == nil {
				continue
			}
			if f.Type.Kind == TypeRef && f.Type.Ref != nil {
				if f.Type.Ref.hasText(seen) {
					return true
				}
				continue
			}
			if f.Type.HasText() {
				return true
			}
		}
		return false
	}
	if check(a.Fields) {
		return true
	}
	for _, v := range a.Variants {
		if check(v.Fields) {
			return true
		}
	}
	return false
}

// FieldOrder resolves the byte order of f inside a: the field override,
// else the aggregate default.
func (a *Aggregate) FieldOrder(f *Field) endian.Order {
	if f.Order != nil {
		return *f.Order
	}
	return a.Order
}

// Validate checks the aggregate's own declarations: names, types, text
// directives and tag width. Layout rules are enforced by the compiler.
func (a *Aggregate) Validate() error {
	path := []string{a.Name}
	if a.Name == "" {
		return errors.Schema(errors.KindInvalidData, nil, "aggregate name is empty")
	}
	switch a.Kind {
	case Struct, Union:
		if len(a.Variants) > 0 {
			return errors.Schema(errors.KindInvalidData, path, "%s cannot declare variants", a.Kind)
		}
		return validateFields(path, a.Fields, false)
	case Enum:
		if len(a.Fields) > 0 {
			return errors.Schema(errors.KindInvalidData, path, "enum declares fields outside a variant")
		}
		switch a.TagWidth {
		case 1, 2, 4, 8:
		default:
			return errors.Schema(errors.KindInvalidWidth, path, "enum tag width %d not in {1, 2, 4, 8}", a.TagWidth)
		}
		if len(a.Variants) == 0 {
			return errors.Schema(errors.KindInvalidData, path, "enum has no variants")
		}
		for i := range a.Variants {
			v := &a.Variants[i]
			if v.Name == "" {
				return errors.Schema(errors.KindInvalidData, path, "variant %d has no name", i)
			}
			if err := validateFields(append(path, v.Name), v.Fields, v.Tuple); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Schema(errors.KindUnsupported, path, "unknown aggregate kind %d", a.Kind)
	}
}

func validateFields(path []string, fields []Field, tuple bool) error {
	for i := range fields {
		f := &fields[i]
		name := f.Name
		if tuple {
			name = strconv.Itoa(i)
		} else if name == "" {
			return errors.Schema(errors.KindInvalidData, path, "field %d has no name", i)
		}
		fp := append(append([]string{}, path...), name)
		if f.Type == nil {
			return errors.Schema(errors.KindInvalidData, fp, "field has no type")
		}
		if err := validateType(fp, f.Type, f.Text); err != nil {
			return err
		}
	}
	return nil
}

func validateType(path []string, t *Type, dir *TextDirective) error {
	switch t.Kind {
	case TypeScalar:
		if t.Scalar.Width() == 0 {
			return errors.Schema(errors.KindInvalidWidth, path, "unknown scalar %d", t.Scalar)
		}
	case TypeArray:
		if t.Len <= 0 {
			return errors.Schema(errors.KindInvalidData, path, "array length must be positive, got %d", t.Len)
		}
		if t.Elem == nil {
			return errors.Schema(errors.KindInvalidData, path, "array has no element type")
		}
		return validateType(path, t.Elem, dir)
	case TypeString:
		if dir == nil {
			return errors.Schema(errors.KindInvalidDirective, path, "string field needs a text directive {encoding, units, pad}")
		}
		if err := dir.Format(endian.Little).Validate(); err != nil {
			return errors.WithPath(err, path...)
		}
		return nil
	case TypeRef:
		if t.Ref == nil {
			return errors.Schema(errors.KindFieldMissing, path, "unresolved aggregate %q", t.Name)
		}
	default:
		return errors.Schema(errors.KindUnsupported, path, "unknown type kind %d", t.Kind)
	}
	if dir != nil {
		return errors.Schema(errors.KindInvalidDirective, path, "text directive on non-string field of type %s", t)
	}
	return nil
}
