// Package types defines the compiled wire layout model.
//
// CompiledType holds precomputed layout information (size, alignment,
// offsets, discriminants, byte orders and text formats) for one schema
// aggregate bound to an optional Go type. By compiling once, the transcoder
// avoids repeated schema walks during conversion and I/O.
//
// # Key Types
//
//   - CompiledType: Cached layout node
//   - Kind: Type discriminator (scalar, bytes, array, text, struct, enum, union)
//   - Descriptor: Go-independent layout summary used for fingerprints
//
// This package is internal to the transcoder.
package types
