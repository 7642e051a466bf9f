package text

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

func TestEncode_SpacePaddedUTF16LE(t *testing.T) {
	buf, err := Encode("HI", 4, PadSpace, UTF16, endian.Little)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if diff := cmp.Diff([]uint32{'H', 'I', 0x20, 0x20}, buf.Units()); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}

	wire := buf.AppendBytes(nil)
	want := []byte{'H', 0, 'I', 0, 0x20, 0, 0x20, 0}
	if !bytes.Equal(wire, want) {
		t.Errorf("wire = % x, want % x", wire, want)
	}

	s, err := buf.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s != "HI" {
		t.Errorf("Decode = %q, want %q", s, "HI")
	}
}

func TestEncode_OrderAppliesToUnits(t *testing.T) {
	f := Format{Encoding: UTF16, Units: 2, Pad: PadNull, Order: endian.Big}
	buf, err := f.Encode("A")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := buf.AppendBytes(nil); !bytes.Equal(got, []byte{0, 'A', 0, 0}) {
		t.Errorf("be wire = % x", got)
	}

	f.Encoding = UTF32
	buf, err = f.Encode("A")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := buf.AppendBytes(nil); !bytes.Equal(got, []byte{0, 0, 0, 'A', 0, 0, 0, 0}) {
		t.Errorf("utf32be wire = % x", got)
	}
}

func TestEncode_Overflow(t *testing.T) {
	buf, err := Encode("HELLO", 4, PadNull, UTF16, endian.Little)
	if err == nil {
		t.Fatal("expected overflow error")
	}
	if buf != nil {
		t.Error("no partial buffer may be returned")
	}
	if !errors.IsOverflow(err) {
		t.Errorf("class = %v, want overflow", errors.ClassOf(err))
	}
}

func TestEncode_SurrogatePairCountsTwoUnits(t *testing.T) {
	// U+1F600 needs a surrogate pair in UTF-16 and one unit in UTF-32.
	if _, err := Encode("a\U0001F600", 2, PadNull, UTF16, endian.Little); !errors.IsOverflow(err) {
		t.Errorf("utf16 should overflow, got %v", err)
	}
	buf, err := Encode("a\U0001F600", 2, PadNull, UTF32, endian.Little)
	if err != nil {
		t.Fatalf("utf32: %v", err)
	}
	if s, _ := buf.Decode(); s != "a\U0001F600" {
		t.Errorf("round trip = %q", s)
	}

	buf, err = Encode("\U0001F600", 3, PadNull, UTF16, endian.Big)
	if err != nil {
		t.Fatalf("utf16: %v", err)
	}
	if diff := cmp.Diff([]uint32{0xD83D, 0xDE00, 0}, buf.Units()); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_UTF8CountsBytes(t *testing.T) {
	if _, err := Encode("é", 1, PadNull, UTF8, endian.Little); !errors.IsOverflow(err) {
		t.Errorf("two-byte rune in one unit should overflow, got %v", err)
	}
	buf, err := Encode("é", 4, PadSpace, UTF8, endian.Little)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := buf.AppendBytes(nil); !bytes.Equal(got, []byte{0xC3, 0xA9, ' ', ' '}) {
		t.Errorf("wire = % x", got)
	}
}

func TestEncode_InvalidInput(t *testing.T) {
	_, err := Encode("\xff", 4, PadNull, UTF16, endian.Little)
	if err == nil {
		t.Fatal("expected error for invalid UTF-8 input")
	}
	var e *errors.Error
	if !asError(err, &e) || e.Kind != errors.KindInvalidText {
		t.Errorf("got %v, want invalid_text", err)
	}
}

func TestEncode_Packed(t *testing.T) {
	buf, err := Encode("ABCD", 4, PadPacked, UTF8, endian.Little)
	if err != nil {
		t.Fatalf("exact fit: %v", err)
	}
	if s, _ := buf.Decode(); s != "ABCD" {
		t.Errorf("Decode = %q", s)
	}

	if _, err := Encode("ABC", 4, PadPacked, UTF8, endian.Little); !errors.IsOverflow(err) {
		t.Errorf("short packed text should fail, got %v", err)
	}
}

func TestEncode_EmptyStringIsAllPadding(t *testing.T) {
	buf, err := Encode("", 3, PadNull, UTF16, endian.Little)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 0, 0}, buf.Units()); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}
	if !buf.Equal(New(buf.Format())) {
		t.Error("empty string must equal a fresh buffer")
	}
	if s, err := buf.Decode(); err != nil || s != "" {
		t.Errorf("Decode = %q, %v", s, err)
	}
}

func TestDecode_InteriorPaddingPreserved(t *testing.T) {
	buf, err := FromUnits([]uint32{'A', 0, 'B', 0, 0}, UTF16, endian.Little, PadNull)
	if err != nil {
		t.Fatalf("FromUnits: %v", err)
	}
	s, err := buf.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s != "A\x00B" {
		t.Errorf("Decode = %q, want %q", s, "A\x00B")
	}
	if diff := cmp.Diff([]uint32{'A', 0, 'B'}, buf.Trimmed()); diff != "" {
		t.Errorf("Trimmed mismatch (-want +got):\n%s", diff)
	}

	sp, _ := FromUnits([]uint32{' ', 'x', ' ', ' '}, UTF32, endian.Big, PadSpace)
	if s, _ := sp.Decode(); s != " x" {
		t.Errorf("space Decode = %q, want %q", s, " x")
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		units []uint32
		enc   Encoding
	}{
		{"unpaired high surrogate", []uint32{'a', 0xD800, 'b'}, UTF16},
		{"high surrogate at end", []uint32{'a', 0xD800}, UTF16},
		{"lone low surrogate", []uint32{0xDC00, 0}, UTF16},
		{"utf32 above max", []uint32{0x110000}, UTF32},
		{"utf32 surrogate", []uint32{0xD800}, UTF32},
		{"utf8 truncated sequence", []uint32{0xC3}, UTF8},
		{"utf8 stray continuation", []uint32{0x80, 'a'}, UTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := FromUnits(tt.units, tt.enc, endian.Little, PadNull)
			if err != nil {
				t.Fatalf("FromUnits: %v", err)
			}
			s, err := buf.Decode()
			if err == nil {
				t.Fatalf("expected decode error, got %q", s)
			}
			if !errors.IsDecode(err) {
				t.Errorf("class = %v, want decode", errors.ClassOf(err))
			}
			if s != "" {
				t.Errorf("partial result %q returned", s)
			}
		})
	}
}

func TestFromUnits_UnitWidth(t *testing.T) {
	if _, err := FromUnits([]uint32{0x100}, UTF8, endian.Little, PadNull); err == nil {
		t.Error("0x100 does not fit a UTF-8 code unit")
	}
	if _, err := FromUnits([]uint32{0x10000}, UTF16, endian.Little, PadNull); err == nil {
		t.Error("0x10000 does not fit a UTF-16 code unit")
	}
	if _, err := FromUnits([]uint32{0x10000}, UTF32, endian.Little, PadNull); err != nil {
		t.Errorf("UTF-32 unit rejected: %v", err)
	}
}

func TestParse(t *testing.T) {
	f := Format{Encoding: UTF16, Units: 3, Pad: PadSpace, Order: endian.Big}
	buf, err := f.Parse([]byte{0, 'o', 0, 'k', 0, ' '})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s, err := buf.Decode(); err != nil || s != "ok" {
		t.Errorf("Decode = %q, %v", s, err)
	}
	if _, err := f.Parse([]byte{0, 'o'}); err == nil {
		t.Error("expected error for wrong byte count")
	}
}

func TestFormat_Validate(t *testing.T) {
	if err := (Format{Encoding: UTF16, Units: 0}).Validate(); !errors.IsSchema(err) {
		t.Errorf("zero units should be a schema error, got %v", err)
	}
	if err := (Format{Encoding: Encoding(9), Units: 2}).Validate(); err == nil {
		t.Error("unknown encoding should fail")
	}
	if err := (Format{Encoding: UTF8, Units: 2, Pad: PadSpace}).Validate(); err != nil {
		t.Errorf("valid format rejected: %v", err)
	}
}

func TestParseNames(t *testing.T) {
	for in, want := range map[string]Encoding{"utf8": UTF8, "UTF-16": UTF16, "utf32": UTF32} {
		if got, err := ParseEncoding(in); err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %v, %v", in, got, err)
		}
	}
	for in, want := range map[string]Pad{"null": PadNull, "space": PadSpace, "packed": PadPacked, "none": PadPacked, "": PadNull} {
		if got, err := ParsePad(in); err != nil || got != want {
			t.Errorf("ParsePad(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePad("zero"); err == nil {
		t.Error("expected error for unknown pad")
	}
}

func TestBuffer_String(t *testing.T) {
	ok, _ := Encode("hey", 4, PadNull, UTF16, endian.Little)
	if ok.String() != "hey" {
		t.Errorf("String() = %q", ok.String())
	}
	bad, _ := FromUnits([]uint32{0xDC00}, UTF16, endian.Little, PadNull)
	if bad.String() != "<invalid utf16>" {
		t.Errorf("String() = %q", bad.String())
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}
