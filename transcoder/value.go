package transcoder

import (
	"bytes"
	"math"
	"strconv"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
	"github.com/wippyai/wirelayout/transcoder/internal/abi"
)

// Value is a wire value: the in-memory image of a compiled type, padded per
// its natural or packed layout, with every scalar stored in its declared
// byte order. Accessors copy out and setters copy in; nothing hands out a
// reference into the image, so packed members are never aliased.
type Value struct {
	ct  *CompiledType
	img []byte
}

// NewValue returns the default value of ct: zero scalars, text fields holding
// only padding units, and enums set to their first variant.
func NewValue(ct *CompiledType) *Value {
	img := make([]byte, ct.Size)
	initImage(ct, img)
	return &Value{ct: ct, img: img}
}

func initImage(ct *CompiledType, img []byte) {
	switch ct.Kind {
	case KindText:
		if ct.Text.Pad.Unit() != 0 {
			text.New(*ct.Text).Put(img)
		}
	case KindArray:
		if ct.Elem.IsScalar() {
			return
		}
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			initImage(ct.Elem, img[off:off+es])
		}
	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			initImage(f.Type, img[f.Offset:f.Offset+f.Type.Size])
		}
	case KindEnum:
		c := &ct.Cases[0]
		endian.PutUint(ct.Order, img, int(ct.TagWidth), c.Discriminant)
		if c.Type != nil {
			initImage(c.Type, payloadImage(ct, c, img))
		}
	}
}

// ValueFromImage adopts a copy of image as a value of ct. Enum tags are
// checked throughout; text content is checked only when converted.
func ValueFromImage(ct *CompiledType, image []byte) (*Value, error) {
	if uint32(len(image)) != ct.Size {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			WireType(ct.String()).
			Detail("image is %d bytes, layout needs %d", len(image), ct.Size).
			Build()
	}
	if err := validateImage(ct, image, nil); err != nil {
		return nil, err
	}
	return &Value{ct: ct, img: bytes.Clone(image)}, nil
}

func validateImage(ct *CompiledType, img []byte, path []string) error {
	switch ct.Kind {
	case KindEnum:
		tag := endian.Uint(ct.Order, img, int(ct.TagWidth))
		c, ok := ct.CaseByDiscriminant(tag)
		if !ok {
			return errors.InvalidTag(path, tag)
		}
		if c.Type != nil {
			return validateImage(c.Type, payloadImage(ct, c, img), appendPath(path, c.Name))
		}
	case KindStruct, KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := validateImage(f.Type, img[f.Offset:f.Offset+f.Type.Size], appendPath(path, f.Name)); err != nil {
				return err
			}
		}
	case KindArray:
		if ct.Elem.IsScalar() || ct.Elem.Kind == KindText || ct.Elem.Kind == KindBytes {
			return nil
		}
		es := ct.Elem.Size
		for i := 0; i < ct.Len; i++ {
			off := uint32(i) * es
			if err := validateImage(ct.Elem, img[off:off+es], appendPath(path, indexLabel(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func payloadImage(ct *CompiledType, c *CompiledCase, img []byte) []byte {
	return img[ct.PayloadOffset : ct.PayloadOffset+c.Type.Size]
}

// Type returns the compiled type of v.
func (v *Value) Type() *CompiledType { return v.ct }

// Image returns a copy of the in-memory image.
func (v *Value) Image() []byte { return bytes.Clone(v.img) }

// Clone returns an independent copy of v.
func (v *Value) Clone() *Value {
	return &Value{ct: v.ct, img: bytes.Clone(v.img)}
}

// Equal reports whether both values have the same layout and image.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	return sameType(v.ct, o.ct) && bytes.Equal(v.img, o.img)
}

func sameType(a, b *CompiledType) bool {
	return a == b || a.Fingerprint() == b.Fingerprint()
}

func (v *Value) mismatch(want string) error {
	return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
		WireType(v.ct.String()).
		Detail("value is not %s", want).
		Build()
}

// Field returns a copy of the named member of a struct, tuple or union.
// Tuple members are named by position: "0", "1", ...
func (v *Value) Field(name string) (*Value, error) {
	f, err := v.field(name)
	if err != nil {
		return nil, err
	}
	return &Value{ct: f.Type, img: bytes.Clone(v.img[f.Offset : f.Offset+f.Type.Size])}, nil
}

// SetField copies fv into the named member. Writing a union member clears
// the rest of the overlay.
func (v *Value) SetField(name string, fv *Value) error {
	f, err := v.field(name)
	if err != nil {
		return err
	}
	if !sameType(f.Type, fv.ct) {
		return errors.TypeMismatch(errors.PhaseEncode, []string{name}, fv.ct.String(), f.Type.String())
	}
	if v.ct.Kind == KindUnion {
		clear(v.img)
	}
	copy(v.img[f.Offset:f.Offset+f.Type.Size], fv.img)
	return nil
}

func (v *Value) field(name string) (*CompiledField, error) {
	switch v.ct.Kind {
	case KindStruct, KindTuple, KindUnion:
	default:
		return nil, v.mismatch("a struct, tuple or union")
	}
	i := v.ct.FieldIndex(name)
	if i < 0 {
		return nil, errors.FieldMissing(errors.PhaseEncode, nil, name)
	}
	return &v.ct.Fields[i], nil
}

// Index returns a copy of element i of an array.
func (v *Value) Index(i int) (*Value, error) {
	off, err := v.element(i)
	if err != nil {
		return nil, err
	}
	es := v.ct.Elem.Size
	return &Value{ct: v.ct.Elem, img: bytes.Clone(v.img[off : off+es])}, nil
}

// SetIndex copies ev into element i of an array.
func (v *Value) SetIndex(i int, ev *Value) error {
	off, err := v.element(i)
	if err != nil {
		return err
	}
	if !sameType(v.ct.Elem, ev.ct) {
		return errors.TypeMismatch(errors.PhaseEncode, []string{indexLabel(i)}, ev.ct.String(), v.ct.Elem.String())
	}
	copy(v.img[off:off+v.ct.Elem.Size], ev.img)
	return nil
}

// Len returns the element count of an array or byte array, 0 otherwise.
func (v *Value) Len() int {
	if v.ct.Kind == KindArray || v.ct.Kind == KindBytes {
		return v.ct.Len
	}
	return 0
}

func (v *Value) element(i int) (uint32, error) {
	if v.ct.Kind != KindArray {
		return 0, v.mismatch("an array")
	}
	if i < 0 || i >= v.ct.Len {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			WireType(v.ct.String()).
			Value(i).
			Detail("index %d out of range [0, %d)", i, v.ct.Len).
			Build()
	}
	return uint32(i) * v.ct.Elem.Size, nil
}

// Uint returns an unsigned integer scalar.
func (v *Value) Uint() (uint64, error) {
	switch v.ct.Kind {
	case KindU8, KindU16, KindU32, KindU64:
		return endian.Uint(v.ct.Order, v.img, int(v.ct.Size)), nil
	}
	return 0, v.mismatch("an unsigned integer")
}

// SetUint stores u, failing with an overflow error when it does not fit.
func (v *Value) SetUint(u uint64) error {
	switch v.ct.Kind {
	case KindU8, KindU16, KindU32, KindU64:
	default:
		return v.mismatch("an unsigned integer")
	}
	if !abi.FitsUnsigned(u, v.ct.Size) {
		return v.overflow(u)
	}
	endian.PutUint(v.ct.Order, v.img, int(v.ct.Size), u)
	return nil
}

// Int returns a signed integer scalar, sign-extended.
func (v *Value) Int() (int64, error) {
	switch v.ct.Kind {
	case KindS8, KindS16, KindS32, KindS64:
		return endian.Int(v.ct.Order, v.img, int(v.ct.Size)), nil
	}
	return 0, v.mismatch("a signed integer")
}

// SetInt stores i, failing with an overflow error when it does not fit.
func (v *Value) SetInt(i int64) error {
	switch v.ct.Kind {
	case KindS8, KindS16, KindS32, KindS64:
	default:
		return v.mismatch("a signed integer")
	}
	if !abi.FitsSigned(i, v.ct.Size) {
		return v.overflow(i)
	}
	endian.PutUint(v.ct.Order, v.img, int(v.ct.Size), uint64(i))
	return nil
}

func (v *Value) overflow(x any) error {
	return errors.New(errors.PhaseEncode, errors.KindOverflow).
		WireType(v.ct.String()).
		Value(x).
		Detail("%v does not fit %s", x, v.ct).
		Build()
}

// Float returns an f32 or f64 scalar.
func (v *Value) Float() (float64, error) {
	switch v.ct.Kind {
	case KindF32:
		return float64(math.Float32frombits(uint32(endian.Uint(v.ct.Order, v.img, 4)))), nil
	case KindF64:
		return math.Float64frombits(endian.Uint(v.ct.Order, v.img, 8)), nil
	}
	return 0, v.mismatch("a float")
}

// SetFloat stores f through its IEEE-754 bit pattern. f32 fields round.
func (v *Value) SetFloat(f float64) error {
	switch v.ct.Kind {
	case KindF32:
		endian.PutUint(v.ct.Order, v.img, 4, uint64(math.Float32bits(float32(f))))
	case KindF64:
		endian.PutUint(v.ct.Order, v.img, 8, math.Float64bits(f))
	default:
		return v.mismatch("a float")
	}
	return nil
}

// Bool returns a bool scalar. Any non-zero byte reads as true.
func (v *Value) Bool() (bool, error) {
	if v.ct.Kind != KindBool {
		return false, v.mismatch("a bool")
	}
	return v.img[0] != 0, nil
}

func (v *Value) SetBool(b bool) error {
	if v.ct.Kind != KindBool {
		return v.mismatch("a bool")
	}
	v.img[0] = 0
	if b {
		v.img[0] = 1
	}
	return nil
}

// Char returns the stored 32-bit code point as is.
func (v *Value) Char() (rune, error) {
	if v.ct.Kind != KindChar {
		return 0, v.mismatch("a char")
	}
	return rune(endian.Uint(v.ct.Order, v.img, 4)), nil
}

// SetChar stores r, rejecting surrogates and values above U+10FFFF.
func (v *Value) SetChar(r rune) error {
	if v.ct.Kind != KindChar {
		return v.mismatch("a char")
	}
	if !abi.ValidateChar(r) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			WireType(v.ct.String()).
			Value(r).
			Detail("0x%X is not a Unicode scalar value", r).
			Build()
	}
	endian.PutUint(v.ct.Order, v.img, 4, uint64(uint32(r)))
	return nil
}

// Uint128 returns a 128-bit scalar. s128 values are two's complement bits.
func (v *Value) Uint128() (endian.Uint128, error) {
	if v.ct.Kind != KindU128 && v.ct.Kind != KindS128 {
		return endian.Uint128{}, v.mismatch("a 128-bit integer")
	}
	return endian.Uint128At(v.ct.Order, v.img), nil
}

func (v *Value) SetUint128(u endian.Uint128) error {
	if v.ct.Kind != KindU128 && v.ct.Kind != KindS128 {
		return v.mismatch("a 128-bit integer")
	}
	endian.PutUint128(v.ct.Order, v.img, u)
	return nil
}

// Bytes returns a copy of a byte[N] passthrough field.
func (v *Value) Bytes() ([]byte, error) {
	if v.ct.Kind != KindBytes {
		return nil, v.mismatch("a byte array")
	}
	return bytes.Clone(v.img), nil
}

// SetBytes copies b, which must be exactly N bytes.
func (v *Value) SetBytes(b []byte) error {
	if v.ct.Kind != KindBytes {
		return v.mismatch("a byte array")
	}
	if len(b) != v.ct.Len {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			WireType(v.ct.String()).
			Value(len(b)).
			Detail("need exactly %d bytes, got %d", v.ct.Len, len(b)).
			Build()
	}
	copy(v.img, b)
	return nil
}

// Text returns the raw code-unit buffer of a text field.
func (v *Value) Text() (*text.Buffer, error) {
	if v.ct.Kind != KindText {
		return nil, v.mismatch("text")
	}
	return v.ct.Text.Parse(v.img)
}

// SetText copies a buffer of exactly the field's format.
func (v *Value) SetText(b *text.Buffer) error {
	if v.ct.Kind != KindText {
		return v.mismatch("text")
	}
	if b.Format() != *v.ct.Text {
		return errors.TypeMismatch(errors.PhaseEncode, nil, b.Format().String(), v.ct.Text.String())
	}
	b.Put(v.img)
	return nil
}

// TextString decodes a text field, stripping trailing padding.
func (v *Value) TextString() (string, error) {
	b, err := v.Text()
	if err != nil {
		return "", err
	}
	return b.Decode()
}

// SetString encodes s into a text field. It fails with an overflow error
// when s exceeds the unit budget and leaves the field unchanged.
func (v *Value) SetString(s string) error {
	if v.ct.Kind != KindText {
		return v.mismatch("text")
	}
	b, err := v.ct.Text.Encode(s)
	if err != nil {
		return err
	}
	b.Put(v.img)
	return nil
}

// Tag returns the discriminant of an enum.
func (v *Value) Tag() (uint64, error) {
	if v.ct.Kind != KindEnum {
		return 0, v.mismatch("an enum")
	}
	return endian.Uint(v.ct.Order, v.img, int(v.ct.TagWidth)), nil
}

// Variant returns the active variant's name and a copy of its payload, nil
// for unit variants.
func (v *Value) Variant() (string, *Value, error) {
	tag, err := v.Tag()
	if err != nil {
		return "", nil, err
	}
	c, ok := v.ct.CaseByDiscriminant(tag)
	if !ok {
		return "", nil, errors.InvalidTag(nil, tag)
	}
	if c.Type == nil {
		return c.Name, nil, nil
	}
	return c.Name, &Value{ct: c.Type, img: bytes.Clone(payloadImage(v.ct, c, v.img))}, nil
}

// SetVariant selects the named variant. A nil payload selects the variant's
// default payload.
func (v *Value) SetVariant(name string, payload *Value) error {
	if v.ct.Kind != KindEnum {
		return v.mismatch("an enum")
	}
	c, ok := v.ct.CaseByName(name)
	if !ok {
		return errors.FieldMissing(errors.PhaseEncode, nil, name)
	}
	if payload != nil {
		if c.Type == nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(name).
				Detail("unit variant takes no payload").
				Build()
		}
		if !sameType(c.Type, payload.ct) {
			return errors.TypeMismatch(errors.PhaseEncode, []string{name}, payload.ct.String(), c.Type.String())
		}
	}
	v.selectCase(c)
	if payload != nil {
		copy(payloadImage(v.ct, c, v.img), payload.img)
	}
	return nil
}

// SetTag selects the variant with discriminant tag and resets its payload.
func (v *Value) SetTag(tag uint64) error {
	if v.ct.Kind != KindEnum {
		return v.mismatch("an enum")
	}
	c, ok := v.ct.CaseByDiscriminant(tag)
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindInvalidTag).
			WireType(v.ct.String()).
			Value(tag).
			Detail("no variant with discriminant %d", tag).
			Build()
	}
	v.selectCase(c)
	return nil
}

func (v *Value) selectCase(c *CompiledCase) {
	clear(v.img)
	endian.PutUint(v.ct.Order, v.img, int(v.ct.TagWidth), c.Discriminant)
	if c.Type != nil {
		initImage(c.Type, payloadImage(v.ct, c, v.img))
	}
}

// Set stores a dynamic Go value: numbers of any Go type that fit the
// scalar, bool, rune, string or *text.Buffer for text, []byte for byte
// arrays, endian.Uint128, or a *Value of the same layout.
func (v *Value) Set(x any) error {
	switch x := x.(type) {
	case *Value:
		if !sameType(v.ct, x.ct) {
			return errors.TypeMismatch(errors.PhaseEncode, nil, x.ct.String(), v.ct.String())
		}
		copy(v.img, x.img)
		return nil
	case *text.Buffer:
		return v.SetText(x)
	case string:
		return v.SetString(x)
	case []byte:
		return v.SetBytes(x)
	case endian.Uint128:
		return v.SetUint128(x)
	case bool:
		return v.SetBool(x)
	}

	switch v.ct.Kind {
	case KindU8, KindU16, KindU32, KindU64:
		if u, ok := abi.CoerceToUint64(x); ok {
			return v.SetUint(u)
		}
	case KindS8, KindS16, KindS32, KindS64:
		if i, ok := abi.CoerceToInt64(x); ok {
			return v.SetInt(i)
		}
	case KindF32, KindF64:
		if f, ok := abi.CoerceToFloat64(x); ok {
			return v.SetFloat(f)
		}
	case KindChar:
		if i, ok := abi.CoerceToInt64(x); ok && i >= 0 && i <= math.MaxInt32 {
			return v.SetChar(rune(i))
		}
	}
	return errors.TypeMismatch(errors.PhaseEncode, nil, abi.TypeName(x), v.ct.String())
}

func appendPath(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}

func indexLabel(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
