package types

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/text"
)

// CompiledType is one node of a compiled wire layout. Size, Align and field
// offsets describe the in-memory image; the stream form is the same members
// in declaration order without padding.
type CompiledType struct {
	GoType reflect.Type
	Elem   *CompiledType
	Text   *text.Format
	Name   string
	Cases  []Case
	Fields []Field
	Derive []string
	Len    int
	Size   uint32
	Align  uint32
	// TagWidth and PayloadOffset are set for enums.
	TagWidth      uint32
	PayloadOffset uint32
	Order         endian.Order
	Kind          Kind
	Packed        bool
	// HasCodec is false when a union is reachable.
	HasCodec bool
	// Fallible is true when a text field is reachable, so converting a wire
	// value back to its logical form can fail on content.
	Fallible bool
}

type Field struct {
	Type   *CompiledType
	Name   string
	Offset uint32
	// GoIndex is the bound Go struct field, or -1.
	GoIndex int
}

type Case struct {
	// Type is the payload, nil for unit variants.
	Type         *CompiledType
	Name         string
	Discriminant uint64
	GoIndex      int
}

func (ct *CompiledType) IsScalar() bool {
	return ct.Kind.IsScalar()
}

// IsPure returns true if no text is reachable: conversions cannot fail.
func (ct *CompiledType) IsPure() bool {
	switch ct.Kind {
	case KindText:
		return false
	case KindArray:
		return ct.Elem.IsPure()
	case KindStruct, KindTuple, KindUnion:
		for _, f := range ct.Fields {
			if !f.Type.IsPure() {
				return false
			}
		}
		return true
	case KindEnum:
		for _, c := range ct.Cases {
			if c.Type != nil && !c.Type.IsPure() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// HasUnion reports whether a union is reachable from ct.
func (ct *CompiledType) HasUnion() bool {
	switch ct.Kind {
	case KindUnion:
		return true
	case KindArray:
		return ct.Elem.HasUnion()
	case KindStruct, KindTuple:
		for _, f := range ct.Fields {
			if f.Type.HasUnion() {
				return true
			}
		}
	case KindEnum:
		for _, c := range ct.Cases {
			if c.Type != nil && c.Type.HasUnion() {
				return true
			}
		}
	}
	return false
}

// Contiguous reports whether the stream form equals the image byte for
// byte: no padding anywhere and no enum or union.
func (ct *CompiledType) Contiguous() bool {
	switch ct.Kind {
	case KindEnum, KindUnion:
		return false
	case KindArray:
		return ct.Elem.Contiguous()
	case KindStruct, KindTuple:
		var next uint32
		for _, f := range ct.Fields {
			if f.Offset != next || !f.Type.Contiguous() {
				return false
			}
			next += f.Type.Size
		}
		return next == ct.Size
	default:
		return true
	}
}

// FieldIndex returns the position of the named member, or -1.
func (ct *CompiledType) FieldIndex(name string) int {
	for i := range ct.Fields {
		if ct.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// CaseByName returns the variant with the given name.
func (ct *CompiledType) CaseByName(name string) (*Case, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].Name == name {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}

// CaseByDiscriminant returns the variant selected by tag.
func (ct *CompiledType) CaseByDiscriminant(tag uint64) (*Case, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].Discriminant == tag {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}

// String renders the wire type: u32be, byte[4], u16le[3], utf16le[4,space]
// or the aggregate name.
func (ct *CompiledType) String() string {
	switch {
	case ct == nil:
		return "<nil>"
	case ct.Kind.IsScalar():
		if ct.Size == 1 {
			return ct.Kind.String()
		}
		return ct.Kind.String() + ct.Order.String()
	case ct.Kind == KindBytes:
		return "byte[" + strconv.Itoa(ct.Len) + "]"
	case ct.Kind == KindArray:
		return ct.Elem.String() + "[" + strconv.Itoa(ct.Len) + "]"
	case ct.Kind == KindText:
		return ct.Text.String()
	case ct.Name != "":
		return ct.Name
	}

	var b strings.Builder
	b.WriteString(ct.Kind.String())
	b.WriteByte('(')
	for i, f := range ct.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}
