package transcoder

import (
	"io"
	"reflect"

	wirelayout "github.com/wippyai/wirelayout"
	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

type Encoder struct {
	compiler *Compiler
}

func NewEncoder() *Encoder {
	return &Encoder{
		compiler: defaultCompiler,
	}
}

func NewEncoderWithCompiler(c *Compiler) *Encoder {
	return &Encoder{compiler: c}
}

// Write emits the stream form of v: members in declaration order without
// layout padding, enums as their tag followed by the active payload only.
// The stream is assembled first and handed to the sink in one write.
func (e *Encoder) Write(w io.Writer, v *Value) error {
	buf := getStreamBuf()
	defer putStreamBuf(buf)

	out, err := e.Append(*buf, v)
	if err != nil {
		return err
	}
	*buf = out
	if err := wirelayout.NewSink(w).WriteFull(out); err != nil {
		return errors.WithPath(err, v.ct.Name)
	}
	return nil
}

// Append appends the stream form of v to dst.
func (e *Encoder) Append(dst []byte, v *Value) ([]byte, error) {
	if err := codecFor(v.ct); err != nil {
		return dst, err
	}
	if v.ct.Contiguous() {
		return append(dst, v.img...), nil
	}
	return appendStream(dst, v.ct, v.img, []string{v.ct.Name})
}

// Encode converts a tagged Go value and writes it.
func (e *Encoder) Encode(w io.Writer, x any) error {
	ct, err := e.compiler.CompileType(reflect.TypeOf(x))
	if err != nil {
		return err
	}
	val, err := ToWire(ct, x)
	if err != nil {
		return err
	}
	return e.Write(w, val)
}

// WriteValue encodes x with the default compiler.
func WriteValue(w io.Writer, x any) error {
	return NewEncoder().Encode(w, x)
}

// codecFor rejects layouts with a reachable union.
func codecFor(ct *CompiledType) error {
	if ct.HasCodec {
		return nil
	}
	return errors.New(errors.PhaseCompile, errors.KindUnsupported).
		WireType(ct.String()).
		Detail("%s contains a union and has no codec; model the data as an enum", ct).
		Build()
}

// flat reports whether the image of ct equals its stream form without
// inspecting members further.
func flat(ct *CompiledType) bool {
	switch ct.Kind {
	case KindStruct, KindTuple, KindEnum, KindUnion:
		return false
	case KindArray:
		return flat(ct.Elem)
	}
	return true
}

func appendStream(dst []byte, ct *CompiledType, img []byte, path []string) ([]byte, error) {
	if flat(ct) {
		return append(dst, img[:ct.Size]...), nil
	}

	var err error
	switch ct.Kind {
	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			dst, err = appendStream(dst, f.Type, img[f.Offset:f.Offset+f.Type.Size], path)
			if err != nil {
				return dst, err
			}
		}
	case KindArray:
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			dst, err = appendStream(dst, ct.Elem, img[off:off+es], path)
			if err != nil {
				return dst, err
			}
		}
	case KindEnum:
		tag := endian.Uint(ct.Order, img, int(ct.TagWidth))
		c, ok := ct.CaseByDiscriminant(tag)
		if !ok {
			return dst, errors.New(errors.PhaseEncode, errors.KindInvalidTag).
				Path(path...).
				Value(tag).
				Detail("unrecognized discriminant %d", tag).
				Build()
		}
		dst = append(dst, img[:ct.TagWidth]...)
		if c.Type != nil {
			return appendStream(dst, c.Type, payloadImage(ct, c, img), appendPath(path, c.Name))
		}
	default:
		return dst, codecFor(ct)
	}
	return dst, nil
}
