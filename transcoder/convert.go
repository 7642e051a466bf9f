package transcoder

import (
	"bytes"
	"math"
	"reflect"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/transcoder/internal/abi"
)

// ToWire converts a logical Go value (T or *T for ct's bound type) into its
// wire value. Only text fields can make it fail: a string over its unit
// budget is an overflow error and invalid UTF-8 is an invalid text error.
// Enum values must have exactly one variant pointer set, and integers bound
// to a narrower wire scalar must fit it.
func ToWire(ct *CompiledType, v any) (*Value, error) {
	if err := checkBound(ct, errors.PhaseEncode); err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.NilPointer(errors.PhaseEncode, nil, rv.Type().String())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != ct.GoType {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, abi.TypeName(v), ct.GoType.String())
	}
	if !rv.CanAddr() {
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		rv = cp
	}

	img := make([]byte, ct.Size)
	if err := lower(ct, rv, img, []string{ct.Name}); err != nil {
		return nil, err
	}
	return &Value{ct: ct, img: img}, nil
}

// FromWire converts val into the Go value out points to. When ct.Fallible is
// false this only fails on misuse; otherwise malformed text is a decode
// error. On failure *out is left untouched.
func FromWire(val *Value, out any) error {
	ct := val.ct
	if err := checkBound(ct, errors.PhaseDecode); err != nil {
		return err
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, abi.TypeName(out))
	}
	if rv.Elem().Type() != ct.GoType {
		return errors.TypeMismatch(errors.PhaseDecode, nil, rv.Elem().Type().String(), ct.GoType.String())
	}

	tmp := reflect.New(ct.GoType).Elem()
	if err := lift(ct, val.img, tmp, []string{ct.Name}); err != nil {
		return err
	}
	rv.Elem().Set(tmp)
	return nil
}

func checkBound(ct *CompiledType, phase errors.Phase) error {
	if ct == nil {
		return errors.NilPointer(phase, nil, "*CompiledType")
	}
	if !ct.HasCodec {
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			WireType(ct.String()).
			Detail("%s contains a union and has no codec", ct).
			Build()
	}
	if ct.GoType == nil {
		return errors.New(phase, errors.KindUnsupported).
			WireType(ct.String()).
			Detail("layout compiled without a Go type; use Value accessors").
			Build()
	}
	return nil
}

func lower(ct *CompiledType, rv reflect.Value, img []byte, path []string) error {
	switch ct.Kind {
	case KindBool:
		img[0] = 0
		if rv.Bool() {
			img[0] = 1
		}
		return nil

	case KindU8, KindU16, KindU32, KindU64, KindS8, KindS16, KindS32, KindS64, KindChar:
		bits, err := integerBits(ct, rv, path)
		if err != nil {
			return err
		}
		endian.PutUint(ct.Order, img, int(ct.Size), bits)
		return nil

	case KindU128, KindS128:
		endian.PutUint128(ct.Order, img, rv.Interface().(endian.Uint128))
		return nil

	case KindF32:
		f := rv.Float()
		narrow := float32(f)
		if float64(narrow) != f && !math.IsNaN(f) {
			return narrowing(ct, f, path)
		}
		endian.PutUint(ct.Order, img, 4, uint64(math.Float32bits(narrow)))
		return nil

	case KindF64:
		endian.PutUint(ct.Order, img, 8, math.Float64bits(rv.Float()))
		return nil

	case KindBytes:
		copy(img, rv.Bytes())
		return nil

	case KindText:
		b, err := ct.Text.Encode(rv.String())
		if err != nil {
			return errors.WithPath(err, path...)
		}
		b.Put(img)
		return nil

	case KindArray:
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			if err := lower(ct.Elem, rv.Index(i), img[off:off+es], appendPath(path, indexLabel(i))); err != nil {
				return err
			}
		}
		return nil

	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := lower(f.Type, rv.Field(f.GoIndex), img[f.Offset:f.Offset+f.Type.Size], appendPath(path, f.Name)); err != nil {
				return err
			}
		}
		return nil

	case KindEnum:
		return lowerEnum(ct, rv, img, path)

	default:
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path...).
			WireType(ct.String()).
			Detail("no conversion for %s", ct.Kind).
			Build()
	}
}

// lowerEnum writes the tag of the single non-nil variant pointer followed by
// its payload.
func lowerEnum(ct *CompiledType, rv reflect.Value, img []byte, path []string) error {
	var active *CompiledCase
	for i := range ct.Cases {
		c := &ct.Cases[i]
		if rv.Field(c.GoIndex).IsNil() {
			continue
		}
		if active != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).
				GoType(rv.Type().String()).
				Detail("variants %q and %q are both set", active.Name, c.Name).
				Build()
		}
		active = c
	}
	if active == nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(path...).
			GoType(rv.Type().String()).
			Detail("no variant set").
			Build()
	}

	endian.PutUint(ct.Order, img, int(ct.TagWidth), active.Discriminant)
	if active.Type == nil {
		return nil
	}
	payload := rv.Field(active.GoIndex).Elem()
	return lower(active.Type, payload, payloadImage(ct, active, img), appendPath(path, active.Name))
}

// integerBits returns the two's complement bits of an integer bound to ct.
// A Go type as wide as the wire scalar is reinterpreted; a wider one must
// hold a value in the scalar's range.
func integerBits(ct *CompiledType, rv reflect.Value, path []string) (uint64, error) {
	width := ct.Size
	goWidth := uint32(rv.Type().Size())
	signedWire := ct.Kind.IsSigned()

	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if goWidth > width {
			fits := abi.FitsSigned(i, width)
			if !signedWire {
				fits = i >= 0 && abi.FitsUnsigned(uint64(i), width)
			}
			if !fits {
				return 0, narrowing(ct, i, path)
			}
		}
		return uint64(i), nil
	default:
		// Unsigned Go types wider than the scalar only bind unsigned scalars.
		u := rv.Uint()
		if goWidth > width && !abi.FitsUnsigned(u, width) {
			return 0, narrowing(ct, u, path)
		}
		return u, nil
	}
}

func narrowing(ct *CompiledType, x any, path []string) error {
	return errors.New(errors.PhaseEncode, errors.KindOverflow).
		Path(path...).
		WireType(ct.String()).
		Value(x).
		Detail("%v does not fit %s", x, ct).
		Build()
}

func lift(ct *CompiledType, img []byte, rv reflect.Value, path []string) error {
	switch ct.Kind {
	case KindBool:
		rv.SetBool(img[0] != 0)
		return nil

	case KindU8, KindU16, KindU32, KindU64, KindS8, KindS16, KindS32, KindS64, KindChar:
		var bits uint64
		if ct.Kind.IsSigned() {
			bits = uint64(endian.Int(ct.Order, img, int(ct.Size)))
		} else {
			bits = endian.Uint(ct.Order, img, int(ct.Size))
		}
		switch rv.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			rv.SetInt(int64(bits))
		default:
			rv.SetUint(bits)
		}
		return nil

	case KindU128, KindS128:
		rv.Set(reflect.ValueOf(endian.Uint128At(ct.Order, img)))
		return nil

	case KindF32:
		rv.SetFloat(float64(math.Float32frombits(uint32(endian.Uint(ct.Order, img, 4)))))
		return nil

	case KindF64:
		rv.SetFloat(math.Float64frombits(endian.Uint(ct.Order, img, 8)))
		return nil

	case KindBytes:
		reflect.Copy(rv, reflect.ValueOf(img[:ct.Len]))
		return nil

	case KindText:
		b, err := ct.Text.Parse(img)
		if err != nil {
			return errors.WithPath(err, path...)
		}
		s, err := b.Decode()
		if err != nil {
			return errors.WithPath(err, path...)
		}
		rv.SetString(s)
		return nil

	case KindArray:
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			if err := lift(ct.Elem, img[off:off+es], rv.Index(i), appendPath(path, indexLabel(i))); err != nil {
				return err
			}
		}
		return nil

	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := lift(f.Type, img[f.Offset:f.Offset+f.Type.Size], rv.Field(f.GoIndex), appendPath(path, f.Name)); err != nil {
				return err
			}
		}
		return nil

	case KindEnum:
		tag := endian.Uint(ct.Order, img, int(ct.TagWidth))
		c, ok := ct.CaseByDiscriminant(tag)
		if !ok {
			return errors.InvalidTag(path, tag)
		}
		for i := range ct.Cases {
			fv := rv.Field(ct.Cases[i].GoIndex)
			fv.Set(reflect.Zero(fv.Type()))
		}
		fv := rv.Field(c.GoIndex)
		p := reflect.New(fv.Type().Elem())
		if c.Type != nil {
			if err := lift(c.Type, payloadImage(ct, c, img), p.Elem(), appendPath(path, c.Name)); err != nil {
				return err
			}
		}
		fv.Set(p)
		return nil

	default:
		return errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Path(path...).
			WireType(ct.String()).
			Detail("no conversion for %s", ct.Kind).
			Build()
	}
}

var defaultCompiler = NewCompiler()

// DefaultCompiler returns the compiler shared by the package-level helpers.
func DefaultCompiler() *Compiler {
	return defaultCompiler
}

// Marshal compiles T from its struct tags and returns the stream encoding
// of v.
func Marshal[T any](v T) ([]byte, error) {
	ct, err := defaultCompiler.CompileType(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	val, err := ToWire(ct, v)
	if err != nil {
		return nil, err
	}
	return NewEncoder().Append(nil, val)
}

// Unmarshal decodes exactly one T from data. Trailing bytes are an error.
func Unmarshal[T any](data []byte) (T, error) {
	var out T
	ct, err := defaultCompiler.CompileType(reflect.TypeOf(out))
	if err != nil {
		return out, err
	}
	r := bytes.NewReader(data)
	val, err := NewDecoder().Read(r, ct)
	if err != nil {
		return out, err
	}
	if r.Len() > 0 {
		return out, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			WireType(ct.String()).
			Value(r.Len()).
			Detail("%d trailing bytes after %s", r.Len(), ct).
			Build()
	}
	var decoded T
	if err := FromWire(val, &decoded); err != nil {
		return out, err
	}
	return decoded, nil
}
