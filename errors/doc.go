// Package errors provides structured error types for the wirelayout module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/wire type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("header", "name").
//		WireType("utf16[12]").
//		Detail("text needs %d code units", 13).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseCompile, path, "string", "u32")
//	err := errors.InvalidTag(path, 3)
//
// Every error maps to a Class: schema errors block compilation, overflow and
// decode errors are recoverable per-value failures, io errors come from the
// byte-stream boundary and keep the boundary's error as Cause.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
