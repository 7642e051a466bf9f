// Package transcoder compiles schema aggregates into fixed-size wire layouts
// and moves values across a byte stream.
//
// # Layout
//
// Every wire type has a static size and alignment:
//
//	Type            Size        Alignment
//	──────────────────────────────────────────
//	bool/u8/s8      1           1
//	u16/s16         2           2
//	u32/s32/f32     4           4
//	char            4           4
//	u64/s64/f64     8           8
//	u128/s128       16          16
//	byte[N]         N           1
//	T[N]            N*size(T)   align(T)
//	text            K*unit      unit size
//	struct          sum+pad     max member align
//	union           max member  max member align
//	enum            tag+payload max(tag, payload align)
//
// Packed aggregates drop all padding and align to 1.
//
// # Image and stream
//
// A Value holds the in-memory image: members at their laid-out offsets, with
// every scalar already in its declared byte order. The stream is what
// crosses the wire: members in declaration order without padding, and for
// enums the tag followed by the active payload only. When a layout has no
// padding and no enum, stream and image are the same bytes and are copied
// in one call.
//
// # Key Types
//
//	Compiler      - Compiles and caches aggregates into CompiledTypes
//	CompiledType  - Layout tree with offsets, orders and Go binding
//	Value         - Wire image with typed accessors
//	Encoder       - Writes values to an io.Writer
//	Decoder       - Reads values from an io.Reader
//
// # Encoding Flow
//
//  1. Compiler.CompileType(reflect.TypeOf(x)) → CompiledType
//  2. ToWire(ct, x) → Value (text encoded and checked here)
//  3. Encoder.Write(w, value) → stream bytes
//
// # Decoding Flow
//
//  1. Decoder.Read(r, ct) → Value (enum tags checked here)
//  2. FromWire(value, &x) (text decoded and validated here)
//
// Marshal, Unmarshal, WriteValue and ReadValue wrap both flows for tagged Go
// types.
package transcoder
