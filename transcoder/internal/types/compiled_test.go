package types

import (
	"testing"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/text"
)

func u16(order endian.Order) *CompiledType {
	return &CompiledType{Kind: KindU16, Size: 2, Align: 2, Order: order}
}

func textType() *CompiledType {
	f := text.Format{Encoding: text.UTF16, Units: 4, Pad: text.PadSpace, Order: endian.Little}
	return &CompiledType{Kind: KindText, Size: 8, Align: 2, Text: &f, Order: endian.Little}
}

func TestCompiledTypeIsPure(t *testing.T) {
	t.Run("scalar_is_pure", func(t *testing.T) {
		if !u16(endian.Big).IsPure() {
			t.Error("scalar should be pure")
		}
	})

	t.Run("text_not_pure", func(t *testing.T) {
		if textType().IsPure() {
			t.Error("text should not be pure")
		}
	})

	t.Run("array_of_text", func(t *testing.T) {
		ct := &CompiledType{Kind: KindArray, Len: 2, Elem: textType()}
		if ct.IsPure() {
			t.Error("array of text should not be pure")
		}
	})

	t.Run("struct", func(t *testing.T) {
		pure := &CompiledType{Kind: KindStruct, Fields: []Field{{Type: u16(endian.Big)}}}
		if !pure.IsPure() {
			t.Error("numeric struct should be pure")
		}
		impure := &CompiledType{Kind: KindStruct, Fields: []Field{{Type: u16(endian.Big)}, {Type: textType()}}}
		if impure.IsPure() {
			t.Error("struct with text should not be pure")
		}
	})

	t.Run("enum_payload", func(t *testing.T) {
		ct := &CompiledType{Kind: KindEnum, Cases: []Case{
			{Name: "unit"},
			{Name: "named", Type: &CompiledType{Kind: KindTuple, Fields: []Field{{Type: textType()}}}},
		}}
		if ct.IsPure() {
			t.Error("enum with text payload should not be pure")
		}
	})
}

func TestCompiledTypeHasUnion(t *testing.T) {
	union := &CompiledType{Kind: KindUnion, Fields: []Field{{Type: u16(endian.Big)}}}
	outer := &CompiledType{Kind: KindStruct, Fields: []Field{{Type: &CompiledType{Kind: KindArray, Elem: union}}}}
	if !outer.HasUnion() {
		t.Error("union inside array inside struct not found")
	}
	if u16(endian.Big).HasUnion() {
		t.Error("scalar has no union")
	}
}

func TestCompiledTypeContiguous(t *testing.T) {
	tight := &CompiledType{Kind: KindStruct, Size: 4, Fields: []Field{
		{Type: u16(endian.Big), Offset: 0},
		{Type: u16(endian.Little), Offset: 2},
	}}
	if !tight.Contiguous() {
		t.Error("struct without padding should be contiguous")
	}

	padded := &CompiledType{Kind: KindStruct, Size: 4, Fields: []Field{
		{Type: &CompiledType{Kind: KindU8, Size: 1}, Offset: 0},
		{Type: u16(endian.Big), Offset: 2},
	}}
	if padded.Contiguous() {
		t.Error("interior padding breaks contiguity")
	}

	trailing := &CompiledType{Kind: KindStruct, Size: 4, Fields: []Field{
		{Type: u16(endian.Big), Offset: 0},
		{Type: &CompiledType{Kind: KindU8, Size: 1}, Offset: 2},
	}}
	if trailing.Contiguous() {
		t.Error("trailing padding breaks contiguity")
	}

	if (&CompiledType{Kind: KindEnum}).Contiguous() {
		t.Error("enums stream only the active payload")
	}
}

func TestCompiledTypeLookups(t *testing.T) {
	ct := &CompiledType{
		Kind: KindEnum,
		Cases: []Case{
			{Name: "Ping", Discriminant: 1},
			{Name: "Data", Discriminant: 2},
		},
	}
	if c, ok := ct.CaseByDiscriminant(2); !ok || c.Name != "Data" {
		t.Errorf("CaseByDiscriminant(2) = %v, %v", c, ok)
	}
	if _, ok := ct.CaseByDiscriminant(3); ok {
		t.Error("unknown discriminant should not resolve")
	}
	if c, ok := ct.CaseByName("Ping"); !ok || c.Discriminant != 1 {
		t.Errorf("CaseByName = %v, %v", c, ok)
	}

	st := &CompiledType{Kind: KindStruct, Fields: []Field{{Name: "a"}, {Name: "b"}}}
	if st.FieldIndex("b") != 1 || st.FieldIndex("c") != -1 {
		t.Error("FieldIndex misreported")
	}
}

func TestCompiledTypeString(t *testing.T) {
	tests := []struct {
		ct   *CompiledType
		want string
	}{
		{u16(endian.Big), "u16be"},
		{&CompiledType{Kind: KindU8, Size: 1}, "u8"},
		{&CompiledType{Kind: KindBytes, Len: 4}, "byte[4]"},
		{&CompiledType{Kind: KindArray, Len: 3, Elem: u16(endian.Little)}, "u16le[3]"},
		{textType(), "utf16le[4,space]"},
		{&CompiledType{Kind: KindStruct, Name: "Header"}, "Header"},
		{&CompiledType{Kind: KindTuple, Fields: []Field{{Type: u16(endian.Big)}, {Type: &CompiledType{Kind: KindU8, Size: 1}}}}, "tuple(u16be, u8)"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	build := func(order endian.Order) *CompiledType {
		return &CompiledType{
			Kind: KindStruct, Name: "Header", Size: 8, Align: 2, HasCodec: true,
			Fields: []Field{
				{Name: "len", Type: u16(order), Offset: 0, GoIndex: 3},
				{Name: "name", Type: textType(), Offset: 2, GoIndex: 0},
			},
		}
	}

	a, b := build(endian.Big), build(endian.Big)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal layouts must fingerprint equally")
	}

	b.Fields[0].GoIndex = 1
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Go binding must not affect the fingerprint")
	}

	if a.Fingerprint() == build(endian.Little).Fingerprint() {
		t.Error("byte order is part of the layout")
	}
	if len(a.Fingerprint().String()) != 64 {
		t.Errorf("hex fingerprint = %q", a.Fingerprint())
	}
}

func TestDescriptor(t *testing.T) {
	ct := &CompiledType{
		Kind: KindEnum, Name: "Command", Size: 4, Align: 2, TagWidth: 1, PayloadOffset: 2,
		Order: endian.Big, HasCodec: true,
		Cases: []Case{
			{Name: "Ping", Discriminant: 1},
			{Name: "Data", Discriminant: 2, Type: &CompiledType{Kind: KindStruct, Size: 2, Align: 2,
				Fields: []Field{{Name: "len", Type: u16(endian.Big)}}}},
		},
	}
	d := ct.Descriptor()
	if d.Kind != "enum" || d.Order != "be" || d.TagWidth != 1 || d.PayloadOffset != 2 {
		t.Errorf("descriptor = %+v", d)
	}
	if len(d.Cases) != 2 || d.Cases[0].Type != nil || d.Cases[1].Type == nil {
		t.Fatalf("cases = %+v", d.Cases)
	}
	if d.NoCodec {
		t.Error("enum has a codec")
	}
	if _, err := d.MarshalCanonical(); err != nil {
		t.Errorf("MarshalCanonical: %v", err)
	}
}
