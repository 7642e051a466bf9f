package abi

import "math"

// CoerceToUint64 accepts any Go integer or integral float that is not
// negative. Floats cover JSON and YAML decoded numbers.
func CoerceToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case int8:
		if v >= 0 {
			return uint64(v), true
		}
	case int16:
		if v >= 0 {
			return uint64(v), true
		}
	case int32:
		if v >= 0 {
			return uint64(v), true
		}
	case float64:
		if v >= 0 && v <= float64(math.MaxUint64) && v == float64(uint64(v)) {
			return uint64(v), true
		}
	case float32:
		// Use float64 for range check to avoid precision loss
		if v >= 0 && float64(v) <= float64(math.MaxUint64) && v == float32(uint64(v)) {
			return uint64(v), true
		}
	case int:
		if v >= 0 {
			return uint64(v), true
		}
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

// CoerceToInt64 accepts any Go integer or integral float in int64 range.
func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		if v >= float64(math.MinInt64) && v <= float64(math.MaxInt64) && v == float64(int64(v)) {
			return int64(v), true
		}
	case float32:
		if v >= float32(math.MinInt64) && v <= float32(math.MaxInt64) && v == float32(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// CoerceToFloat64 accepts floats and integers. Integers above 2^53 may round.
func CoerceToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := CoerceToInt64(value); ok {
		return float64(i), true
	}
	if u, ok := CoerceToUint64(value); ok {
		return float64(u), true
	}
	return 0, false
}

// FitsUnsigned reports whether v is representable in width bytes.
func FitsUnsigned(v uint64, width uint32) bool {
	if width >= 8 {
		return true
	}
	return v>>(width*8) == 0
}

// FitsSigned reports whether v is representable as a width-byte two's
// complement integer.
func FitsSigned(v int64, width uint32) bool {
	if width >= 8 {
		return true
	}
	bits := width * 8
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}
