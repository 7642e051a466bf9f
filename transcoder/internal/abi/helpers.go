package abi

import (
	"math"
	"reflect"
)

// SafeMulU32 multiplies element size by count; ok is false when the
// array would not fit a 32-bit layout.
func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

// SafeAddU32 advances a layout offset; ok is false on wraparound.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// TypeName names the Go type of value for error messages.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AlignTo rounds offset up to a power-of-two alignment. An alignment of 0
// leaves offset unchanged.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// ValidateChar reports whether r is a Unicode scalar value.
func ValidateChar(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	if r < 0 || r >= 0x110000 {
		return false
	}
	return true
}
