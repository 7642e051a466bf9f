package abi

import "testing"

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		// packed members use align 1; 0 leaves the offset alone
		{7, 0, 7},
		{7, 1, 7},
		// u8 tag followed by a u16 payload
		{1, 2, 2},
		// byte[3] followed by u32
		{3, 4, 4},
		{8, 4, 8},
		{9, 8, 16},
		// u128 member after a u8
		{1, 16, 16},
		{16, 16, 16},
		{33, 16, 48},
	}

	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestValidateChar(t *testing.T) {
	valid := []rune{0, 'Z', 0xD7FF, 0xE000, 0xFFFD, 0x1F600, 0x10FFFF}
	invalid := []rune{0xD800, 0xDC00, 0xDFFF, 0x110000, -1}

	for _, r := range valid {
		if !ValidateChar(r) {
			t.Errorf("ValidateChar(%#x) = false, want true", r)
		}
	}
	for _, r := range invalid {
		if ValidateChar(r) {
			t.Errorf("ValidateChar(%#x) = true, want false", r)
		}
	}
}

func TestTypeName(t *testing.T) {
	type header struct{ Len uint16 }

	tests := map[string]any{
		"nil":         nil,
		"uint16":      uint16(1),
		"[4]uint8":    [4]byte{},
		"*abi.header": &header{},
	}
	for want, v := range tests {
		if got := TypeName(v); got != want {
			t.Errorf("TypeName(%v) = %q, want %q", v, got, want)
		}
	}
}
