package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // schema to wire compilation
	PhaseEncode  Phase = "encode"  // logical to wire
	PhaseDecode  Phase = "decode"  // wire to logical
	PhaseIO      Phase = "io"      // byte-stream boundary
	PhaseParse   Phase = "parse"   // schema documents
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch          Kind = "type_mismatch"
	KindUnsupported           Kind = "unsupported"
	KindInvalidWidth          Kind = "invalid_width"
	KindInvalidDirective      Kind = "invalid_directive"
	KindMissingDiscriminant   Kind = "missing_discriminant"
	KindDuplicateDiscriminant Kind = "duplicate_discriminant"
	KindDuplicateField        Kind = "duplicate_field"
	KindFieldMissing          Kind = "field_missing"
	KindOverflow              Kind = "overflow"
	KindInvalidText           Kind = "invalid_text"
	KindInvalidTag            Kind = "invalid_tag"
	KindInvalidData           Kind = "invalid_data"
	KindNilPointer            Kind = "nil_pointer"
	KindShortRead             Kind = "short_read"
	KindShortWrite            Kind = "short_write"
)

// Class is the coarse error category callers branch on.
type Class string

const (
	ClassSchema   Class = "schema"
	ClassOverflow Class = "overflow"
	ClassIO       Class = "io"
	ClassDecode   Class = "decode"
	ClassOther    Class = "other"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	WireType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WireType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.WireType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", wire type ")
			b.WriteString(e.WireType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WireType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Class maps the error onto one of the four categories: schema errors block
// compilation, overflow and decode errors are recoverable value failures, and
// io errors come from the byte-stream boundary.
func (e *Error) Class() Class {
	switch {
	case e.Phase == PhaseCompile || e.Phase == PhaseParse:
		return ClassSchema
	case e.Kind == KindOverflow:
		return ClassOverflow
	case e.Phase == PhaseIO || e.Kind == KindShortRead || e.Kind == KindShortWrite:
		return ClassIO
	case e.Phase == PhaseDecode:
		return ClassDecode
	default:
		return ClassOther
	}
}

// ClassOf returns the class of the first *Error in err's chain.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class()
	}
	return ClassOther
}

// IsSchema reports whether err blocked compilation of a schema.
func IsSchema(err error) bool { return ClassOf(err) == ClassSchema }

// IsOverflow reports whether err is a text value exceeding its unit budget.
func IsOverflow(err error) bool { return ClassOf(err) == ClassOverflow }

// IsIO reports whether err came from the byte-stream boundary.
func IsIO(err error) bool { return ClassOf(err) == ClassIO }

// IsDecode reports whether err is malformed wire content.
func IsDecode(err error) bool { return ClassOf(err) == ClassDecode }

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WireType sets the wire type name
func (b *Builder) WireType(t string) *Builder {
	b.err.WireType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		WireType: wireType,
	}
}

// Schema creates a compile-phase error of the given kind
func Schema(kind Kind, path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   kind,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// InvalidWidth creates an unsupported scalar width error
func InvalidWidth(path []string, width int) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidWidth,
		Path:   path,
		Detail: fmt.Sprintf("scalar width %d not in {1, 2, 4, 8, 16}", width),
		Value:  width,
	}
}

// MissingDiscriminant creates the error raised when a payload-carrying enum
// has a variant without an explicit discriminant
func MissingDiscriminant(path []string, variant string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMissingDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("variant %q needs an explicit discriminant: enums with payload require one on every variant", variant),
	}
}

// TextOverflow creates an error for text that does not fit its unit budget
func TextOverflow(path []string, units, found int) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("text needs %d code units, budget is %d", found, units),
		Value:  found,
	}
}

// InvalidText creates an error for malformed code units
func InvalidText(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidText,
		Path:   path,
		Detail: detail,
	}
}

// InvalidTag creates an error for an unrecognized enum discriminant
func InvalidTag(path []string, tag uint64) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidTag,
		Path:   path,
		Detail: fmt.Sprintf("unrecognized discriminant %d", tag),
		Value:  tag,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// ShortRead wraps a boundary read failure. The cause is kept verbatim.
func ShortRead(path []string, want int, offset int64, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindShortRead,
		Path:   path,
		Detail: fmt.Sprintf("read %d bytes at offset %d", want, offset),
		Cause:  cause,
	}
}

// ShortWrite wraps a boundary write failure. The cause is kept verbatim.
func ShortWrite(path []string, want int, offset int64, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindShortWrite,
		Path:   path,
		Detail: fmt.Sprintf("write %d bytes at offset %d", want, offset),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns err with path prepended when err is an *Error; other
// errors are returned unchanged.
func WithPath(err error, path ...string) error {
	var e *Error
	if len(path) == 0 || !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append(append([]string{}, path...), e.Path...)
	return &cp
}

// ParseFailed creates a schema document parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
