package transcoder

import (
	"github.com/wippyai/wirelayout/transcoder/internal/types"
)

type TypeKind = types.Kind

const (
	KindBool   = types.KindBool
	KindU8     = types.KindU8
	KindS8     = types.KindS8
	KindU16    = types.KindU16
	KindS16    = types.KindS16
	KindU32    = types.KindU32
	KindS32    = types.KindS32
	KindU64    = types.KindU64
	KindS64    = types.KindS64
	KindU128   = types.KindU128
	KindS128   = types.KindS128
	KindF32    = types.KindF32
	KindF64    = types.KindF64
	KindChar   = types.KindChar
	KindBytes  = types.KindBytes
	KindArray  = types.KindArray
	KindText   = types.KindText
	KindStruct = types.KindStruct
	KindTuple  = types.KindTuple
	KindEnum   = types.KindEnum
	KindUnion  = types.KindUnion
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case

// Descriptor is the Go-independent summary of a compiled layout.
type Descriptor = types.Descriptor

// Fingerprint identifies a layout: equal layouts have equal fingerprints.
type Fingerprint = types.Sum
