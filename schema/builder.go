package schema

import (
	"fmt"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
)

// FieldOption adjusts a field declaration.
type FieldOption func(*Field)

// WithOrder overrides the aggregate's default byte order for one field.
func WithOrder(o endian.Order) FieldOption {
	return func(f *Field) { f.Order = &o }
}

// WithText attaches a text directive.
func WithText(enc text.Encoding, units int, pad text.Pad) FieldOption {
	return func(f *Field) {
		f.Text = &TextDirective{Encoding: enc, Units: units, Pad: pad}
	}
}

// NewField returns a named field.
func NewField(name string, t *Type, opts ...FieldOption) Field {
	f := Field{Name: name, Type: t}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Pos returns a positional tuple-variant member.
func Pos(t *Type, opts ...FieldOption) Field {
	return NewField("", t, opts...)
}

// Text is shorthand for a string field with a directive.
func Text(name string, enc text.Encoding, units int, pad text.Pad, opts ...FieldOption) Field {
	return NewField(name, StringType(), append([]FieldOption{WithText(enc, units, pad)}, opts...)...)
}

// Builder assembles an Aggregate. Misuse is recorded and reported by Build.
type Builder struct {
	agg *Aggregate
	err error
}

func NewStruct(name string, order endian.Order) *Builder {
	return &Builder{agg: &Aggregate{Name: name, Kind: Struct, Order: order}}
}

func NewUnion(name string, order endian.Order) *Builder {
	return &Builder{agg: &Aggregate{Name: name, Kind: Union, Order: order}}
}

// NewEnum starts an enum whose tag occupies tagWidth bytes.
func NewEnum(name string, order endian.Order, tagWidth int) *Builder {
	return &Builder{agg: &Aggregate{Name: name, Kind: Enum, Order: order, TagWidth: tagWidth}}
}

// Packed requests a layout without inter-field padding.
func (b *Builder) Packed() *Builder {
	b.agg.Layout = Packed
	return b
}

// Derive records pass-through derivation requests for the wire type.
func (b *Builder) Derive(names ...string) *Builder {
	b.agg.Derive = append(b.agg.Derive, names...)
	return b
}

// Field appends a struct or union member.
func (b *Builder) Field(name string, t *Type, opts ...FieldOption) *Builder {
	if b.agg.Kind == Enum {
		b.fail("Field(%q) on enum %s; declare variants instead", name, b.agg.Name)
		return b
	}
	b.agg.Fields = append(b.agg.Fields, NewField(name, t, opts...))
	return b
}

// Add appends prebuilt struct or union members.
func (b *Builder) Add(fields ...Field) *Builder {
	for _, f := range fields {
		b.Field(f.Name, f.Type, func(dst *Field) {
			dst.Order = f.Order
			dst.Text = f.Text
		})
	}
	return b
}

// Case appends an enum variant whose discriminant is its position. Only
// valid when no variant carries data.
func (b *Builder) Case(name string, fields ...Field) *Builder {
	return b.variant(Variant{Name: name, Fields: fields, Discriminant: uint64(b.nextIndex())})
}

// CaseAt appends an enum variant with an explicit discriminant.
func (b *Builder) CaseAt(name string, disc uint64, fields ...Field) *Builder {
	return b.variant(Variant{Name: name, Fields: fields, Discriminant: disc, Explicit: true})
}

// TupleCaseAt appends a variant with positional members.
func (b *Builder) TupleCaseAt(name string, disc uint64, fields ...Field) *Builder {
	return b.variant(Variant{Name: name, Fields: fields, Discriminant: disc, Explicit: true, Tuple: true})
}

func (b *Builder) nextIndex() int {
	return len(b.agg.Variants)
}

func (b *Builder) variant(v Variant) *Builder {
	if b.agg.Kind != Enum {
		b.fail("variant %q on %s %s", v.Name, b.agg.Kind, b.agg.Name)
		return b
	}
	b.agg.Variants = append(b.agg.Variants, v)
	return b
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = errors.Schema(errors.KindInvalidData, []string{b.agg.Name}, format, args...)
	}
}

// Build validates and returns the aggregate.
func (b *Builder) Build() (*Aggregate, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.agg.Validate(); err != nil {
		return nil, err
	}
	return b.agg, nil
}

// MustBuild is Build for package-level schema declarations.
func (b *Builder) MustBuild() *Aggregate {
	a, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return a
}
