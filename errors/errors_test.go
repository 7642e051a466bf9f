package errors

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseCompile,
				Kind:     KindTypeMismatch,
				Path:     []string{"frame", "header", "len"},
				GoType:   "string",
				WireType: "u16",
				Detail:   "cannot bind",
			},
			contains: []string{"[compile]", "type_mismatch", "frame.header.len", "string", "u16", "cannot bind"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidTag,
			},
			contains: []string{"[decode]", "invalid_tag"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseIO,
				Kind:   KindShortRead,
				Detail: "read 4 bytes at offset 2",
				Cause:  io.ErrUnexpectedEOF,
			},
			contains: []string{"[io]", "short_read", "offset 2", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := ShortRead([]string{"len"}, 4, 2, io.ErrUnexpectedEOF)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is did not reach the boundary error")
	}
	if !errors.Is(errors.Unwrap(err), io.ErrUnexpectedEOF) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindOverflow,
		Path:  []string{"name"},
	}

	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindOverflow}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOverflow}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindInvalidText}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseEncode, Kind: KindOverflow}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindOverflow).
		Path("msg", "name").
		GoType("string").
		WireType("utf16[4]").
		Value(5).
		Cause(cause).
		Detail("needs %d units, budget %d", 5, 4).
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if len(err.Path) != 2 || err.Path[0] != "msg" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [msg name]", err.Path)
	}
	if err.GoType != "string" || err.WireType != "utf16[4]" {
		t.Errorf("GoType=%v WireType=%v", err.GoType, err.WireType)
	}
	if err.Value != 5 {
		t.Errorf("Value = %v, want 5", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "needs 5 units, budget 4" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"missing discriminant", MissingDiscriminant([]string{"Command"}, "Data"), ClassSchema},
		{"invalid width", InvalidWidth(nil, 3), ClassSchema},
		{"parse", ParseFailed("schema.yaml", io.EOF), ClassSchema},
		{"overflow", TextOverflow([]string{"name"}, 4, 5), ClassOverflow},
		{"short read", ShortRead(nil, 4, 0, io.ErrUnexpectedEOF), ClassIO},
		{"short write", ShortWrite(nil, 4, 0, io.ErrShortWrite), ClassIO},
		{"invalid tag", InvalidTag(nil, 3), ClassDecode},
		{"invalid text", InvalidText(PhaseDecode, nil, "unpaired surrogate"), ClassDecode},
		{"plain error", io.EOF, ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.want {
				t.Errorf("ClassOf() = %v, want %v", got, tt.want)
			}
		})
	}

	if !IsSchema(MissingDiscriminant(nil, "x")) || IsSchema(InvalidTag(nil, 1)) {
		t.Error("IsSchema misclassified")
	}
	if !IsOverflow(TextOverflow(nil, 1, 2)) {
		t.Error("IsOverflow misclassified")
	}
	if !IsIO(ShortRead(nil, 1, 0, io.EOF)) {
		t.Error("IsIO misclassified")
	}
	if !IsDecode(InvalidTag(nil, 9)) {
		t.Error("IsDecode misclassified")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseCompile, []string{"field"}, "int", "u32")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.GoType != "int" || err.WireType != "u32" {
			t.Errorf("GoType=%v WireType=%v", err.GoType, err.WireType)
		}
	})

	t.Run("InvalidTag", func(t *testing.T) {
		err := InvalidTag([]string{"cmd"}, 3)
		if err.Value != uint64(3) {
			t.Errorf("Value = %v, want 3", err.Value)
		}
		if !strings.Contains(err.Error(), "3") {
			t.Errorf("message %q should name the tag", err.Error())
		}
	})

	t.Run("InvalidWidth", func(t *testing.T) {
		err := InvalidWidth([]string{"x"}, 3)
		if err.Kind != KindInvalidWidth || err.Phase != PhaseCompile {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseCompile, []string{"record"}, "name")
		if err.Kind != KindFieldMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseEncode, []string{"ptr"}, "*Header")
		if err.GoType != "*Header" {
			t.Errorf("GoType = %v, want '*Header'", err.GoType)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, "union codec")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})
}

func TestWithPath(t *testing.T) {
	base := InvalidTag([]string{"cmd"}, 7)
	got := WithPath(base, "frame")

	var e *Error
	if !errors.As(got, &e) {
		t.Fatal("WithPath lost the *Error")
	}
	if strings.Join(e.Path, ".") != "frame.cmd" {
		t.Errorf("Path = %v, want frame.cmd", e.Path)
	}
	if strings.Join(base.Path, ".") != "cmd" {
		t.Errorf("original path mutated: %v", base.Path)
	}

	plain := io.EOF
	if WithPath(plain, "x") != plain {
		t.Error("non-structured errors must pass through")
	}
}
