// Package layout computes image size, alignment and member offsets.
//
// Natural layout follows C rules:
//   - Scalars: alignment equals width (u8=1, u32=4, u128=16)
//   - Text: alignment equals the code unit size
//   - Structs: members in order, each padded to its alignment, total padded
//     to the widest member
//   - Enums: tag, then the payload area at the first offset aligned to the
//     widest payload
//   - Unions: every member at offset 0, size of the largest
//
// Packed layout places each member at the next byte with alignment 1.
//
// This package is internal to the transcoder.
package layout
