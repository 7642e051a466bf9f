package transcoder

import (
	"io"
	"reflect"

	wirelayout "github.com/wippyai/wirelayout"
	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

type Decoder struct {
	compiler *Compiler
}

func NewDecoder() *Decoder {
	return &Decoder{
		compiler: defaultCompiler,
	}
}

func NewDecoderWithCompiler(c *Compiler) *Decoder {
	return &Decoder{compiler: c}
}

// Read reads one wire value of ct. Each member is read with an exact-length
// read; an enum tag is read before its payload so only the active variant is
// consumed. A short read or an unrecognized tag returns no value.
func (d *Decoder) Read(r io.Reader, ct *CompiledType) (*Value, error) {
	if err := codecFor(ct); err != nil {
		return nil, err
	}

	src := wirelayout.NewSource(r)
	img := make([]byte, ct.Size)
	if ct.Contiguous() {
		if err := src.ReadFull(img); err != nil {
			return nil, errors.WithPath(err, ct.Name)
		}
		return &Value{ct: ct, img: img}, nil
	}
	if err := readStream(src, ct, img, []string{ct.Name}); err != nil {
		return nil, err
	}
	return &Value{ct: ct, img: img}, nil
}

// Decode reads a wire value and converts it into the Go value out points
// to.
func (d *Decoder) Decode(r io.Reader, out any) error {
	ct, err := d.compiler.CompileType(reflect.TypeOf(out))
	if err != nil {
		return err
	}
	val, err := d.Read(r, ct)
	if err != nil {
		return err
	}
	return FromWire(val, out)
}

// ReadValue decodes into out with the default compiler.
func ReadValue(r io.Reader, out any) error {
	return NewDecoder().Decode(r, out)
}

func readStream(src wirelayout.Source, ct *CompiledType, img []byte, path []string) error {
	if flat(ct) {
		if err := src.ReadFull(img[:ct.Size]); err != nil {
			return errors.WithPath(err, path...)
		}
		return nil
	}

	switch ct.Kind {
	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := readStream(src, f.Type, img[f.Offset:f.Offset+f.Type.Size], appendPath(path, f.Name)); err != nil {
				return err
			}
		}
	case KindArray:
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			if err := readStream(src, ct.Elem, img[off:off+es], appendPath(path, indexLabel(i))); err != nil {
				return err
			}
		}
	case KindEnum:
		if err := src.ReadFull(img[:ct.TagWidth]); err != nil {
			return errors.WithPath(err, path...)
		}
		tag := endian.Uint(ct.Order, img, int(ct.TagWidth))
		c, ok := ct.CaseByDiscriminant(tag)
		if !ok {
			return errors.InvalidTag(path, tag)
		}
		if c.Type != nil {
			return readStream(src, c.Type, payloadImage(ct, c, img), appendPath(path, c.Name))
		}
	default:
		return codecFor(ct)
	}
	return nil
}
