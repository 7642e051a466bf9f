package types

type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindU128
	KindS128
	KindF32
	KindF64
	KindChar
	KindBytes
	KindArray
	KindText
	KindStruct
	KindTuple
	KindEnum
	KindUnion
)

var kindNames = [...]string{
	KindBool:   "bool",
	KindU8:     "u8",
	KindS8:     "s8",
	KindU16:    "u16",
	KindS16:    "s16",
	KindU32:    "u32",
	KindS32:    "s32",
	KindU64:    "u64",
	KindS64:    "s64",
	KindU128:   "u128",
	KindS128:   "s128",
	KindF32:    "f32",
	KindF64:    "f64",
	KindChar:   "char",
	KindBytes:  "bytes",
	KindArray:  "array",
	KindText:   "text",
	KindStruct: "struct",
	KindTuple:  "tuple",
	KindEnum:   "enum",
	KindUnion:  "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether k is a fixed-width primitive.
func (k Kind) IsScalar() bool {
	return k <= KindChar
}

// IsSigned reports whether k is a two's complement integer.
func (k Kind) IsSigned() bool {
	switch k {
	case KindS8, KindS16, KindS32, KindS64, KindS128:
		return true
	}
	return false
}

// IsFloat reports whether k is an IEEE-754 float.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// IsComposite reports whether k has members.
func (k Kind) IsComposite() bool {
	switch k {
	case KindStruct, KindTuple, KindEnum, KindUnion:
		return true
	}
	return false
}

// Width returns the byte width of a scalar kind, 0 otherwise.
func (k Kind) Width() uint32 {
	switch k {
	case KindBool, KindU8, KindS8:
		return 1
	case KindU16, KindS16:
		return 2
	case KindU32, KindS32, KindF32, KindChar:
		return 4
	case KindU64, KindS64, KindF64:
		return 8
	case KindU128, KindS128:
		return 16
	}
	return 0
}
