// Package abi provides low-level helpers shared by the transcoder.
//
// # Contents
//
//   - coerce.go: Go value coercion and width range checks for dynamic setters
//   - helpers.go: alignment, overflow-checked arithmetic and char validation
//
// This package is internal to the transcoder.
package abi
