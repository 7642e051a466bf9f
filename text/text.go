// Package text is the fixed-width code-unit text codec.
//
// A Buffer holds exactly K code units of UTF-8, UTF-16 or UTF-32 text in a
// declared byte order and padding style. Encoding a string right-pads the
// unused units; decoding strips the trailing run of padding units and then
// validates the rest strictly. Malformed code units are reported as errors
// and are never replaced with U+FFFD.
//
// Byte order applies to the code units themselves: a little-endian UTF-16
// buffer is little-endian on the wire on every host.
package text

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

// Encoding selects the code unit width and transformation format.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF16
	UTF32
)

var encodingNames = [...]string{
	UTF8:  "utf8",
	UTF16: "utf16",
	UTF32: "utf32",
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "unknown"
}

// UnitSize returns the code unit width in bytes.
func (e Encoding) UnitSize() int {
	switch e {
	case UTF16:
		return 2
	case UTF32:
		return 4
	default:
		return 1
	}
}

func (e Encoding) maxUnit() uint32 {
	switch e {
	case UTF8:
		return 0xFF
	case UTF16:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// ParseEncoding accepts utf8, utf16 and utf32 (with or without a dash).
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "utf8":
		return UTF8, nil
	case "utf16":
		return UTF16, nil
	case "utf32":
		return UTF32, nil
	}
	return UTF8, fmt.Errorf("invalid text encoding %q; expected utf8, utf16 or utf32", s)
}

func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Encoding) UnmarshalText(b []byte) error {
	v, err := ParseEncoding(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Pad is the padding policy for unused trailing code units.
type Pad uint8

const (
	PadNull Pad = iota
	PadSpace
	// PadPacked is exact fit: no padding, the text must fill every unit.
	PadPacked
)

var padNames = [...]string{
	PadNull:   "null",
	PadSpace:  "space",
	PadPacked: "packed",
}

func (p Pad) String() string {
	if int(p) < len(padNames) {
		return padNames[p]
	}
	return "unknown"
}

// Unit returns the padding code unit. PadPacked has none and returns 0.
func (p Pad) Unit() uint32 {
	if p == PadSpace {
		return 0x20
	}
	return 0
}

// ParsePad accepts null, space, packed and none.
func ParsePad(s string) (Pad, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "nul", "":
		return PadNull, nil
	case "space":
		return PadSpace, nil
	case "packed", "none":
		return PadPacked, nil
	}
	return PadNull, fmt.Errorf("invalid pad %q; expected null, space or packed", s)
}

func (p Pad) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pad) UnmarshalText(b []byte) error {
	v, err := ParsePad(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Format describes a fixed text field: K units of an encoding in a byte
// order with a padding policy.
type Format struct {
	Encoding Encoding
	Units    int
	Pad      Pad
	Order    endian.Order
}

func (f Format) String() string {
	return fmt.Sprintf("%s%s[%d,%s]", f.Encoding, f.Order, f.Units, f.Pad)
}

// Size returns the wire size in bytes.
func (f Format) Size() int {
	return f.Units * f.Encoding.UnitSize()
}

// Validate checks the directive combination.
func (f Format) Validate() error {
	if f.Encoding > UTF32 {
		return errors.Schema(errors.KindInvalidDirective, nil, "unknown text encoding %d", f.Encoding)
	}
	if f.Pad > PadPacked {
		return errors.Schema(errors.KindInvalidDirective, nil, "unknown pad style %d", f.Pad)
	}
	if f.Units <= 0 {
		return errors.Schema(errors.KindInvalidDirective, nil, "text units must be positive, got %d", f.Units)
	}
	return nil
}

// Buffer is a FixedTextBuffer: exactly Units code units in a declared
// encoding, byte order and padding style. Units are held as host values.
type Buffer struct {
	format Format
	units  []uint32
}

// New returns a buffer of f.Units padding units, the encoding of the empty
// string. For PadPacked the units are zero.
func New(f Format) *Buffer {
	units := make([]uint32, f.Units)
	if pu := f.Pad.Unit(); pu != 0 {
		for i := range units {
			units[i] = pu
		}
	}
	return &Buffer{format: f, units: units}
}

// Encode is shorthand for Format.Encode.
func Encode(s string, units int, pad Pad, enc Encoding, order endian.Order) (*Buffer, error) {
	return Format{Encoding: enc, Units: units, Pad: pad, Order: order}.Encode(s)
}

// Encode converts s into a padded buffer. It fails when s needs more than
// f.Units code units, or for PadPacked when s does not need exactly f.Units.
// Strings that are not valid UTF-8 are rejected.
func (f Format) Encode(s string) (*Buffer, error) {
	if !utf8.ValidString(s) {
		return nil, errors.InvalidText(errors.PhaseEncode, nil, "input is not valid UTF-8")
	}

	units := encodeUnits(s, f.Encoding)
	if len(units) > f.Units {
		return nil, errors.TextOverflow(nil, f.Units, len(units))
	}
	if f.Pad == PadPacked && len(units) != f.Units {
		return nil, errors.New(errors.PhaseEncode, errors.KindOverflow).
			WireType(f.String()).
			Value(len(units)).
			Detail("packed text needs exactly %d code units, got %d", f.Units, len(units)).
			Build()
	}

	if cap(units) < f.Units {
		grown := make([]uint32, len(units), f.Units)
		copy(grown, units)
		units = grown
	}
	pu := f.Pad.Unit()
	for len(units) < f.Units {
		units = append(units, pu)
	}
	return &Buffer{format: f, units: units}, nil
}

func encodeUnits(s string, enc Encoding) []uint32 {
	switch enc {
	case UTF8:
		units := make([]uint32, len(s))
		for i := 0; i < len(s); i++ {
			units[i] = uint32(s[i])
		}
		return units
	case UTF16:
		units := make([]uint32, 0, len(s))
		for _, r := range s {
			if r >= 0x10000 {
				hi, lo := utf16.EncodeRune(r)
				units = append(units, uint32(hi), uint32(lo))
				continue
			}
			units = append(units, uint32(r))
		}
		return units
	default:
		units := make([]uint32, 0, utf8.RuneCountInString(s))
		for _, r := range s {
			units = append(units, uint32(r))
		}
		return units
	}
}

// FromUnits builds a buffer from raw host-order code units. The unit count
// becomes the buffer's K; content is not validated beyond the unit width.
func FromUnits(units []uint32, enc Encoding, order endian.Order, pad Pad) (*Buffer, error) {
	limit := enc.maxUnit()
	for i, u := range units {
		if u > limit {
			return nil, errors.InvalidText(errors.PhaseEncode, nil,
				fmt.Sprintf("code unit %d (0x%X) exceeds %s unit width", i, u, enc))
		}
	}
	cp := make([]uint32, len(units))
	copy(cp, units)
	return &Buffer{
		format: Format{Encoding: enc, Units: len(units), Pad: pad, Order: order},
		units:  cp,
	}, nil
}

// Parse reads f.Size() wire bytes into a buffer. Content is validated only
// by Decode.
func (f Format) Parse(b []byte) (*Buffer, error) {
	size := f.Size()
	if len(b) != size {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("text %s needs %d bytes, got %d", f, size, len(b)))
	}
	us := f.Encoding.UnitSize()
	units := make([]uint32, f.Units)
	for i := range units {
		units[i] = uint32(endian.Uint(f.Order, b[i*us:], us))
	}
	return &Buffer{format: f, units: units}, nil
}

// Format returns the buffer's layout description.
func (b *Buffer) Format() Format { return b.format }

// Len returns the number of code units, K.
func (b *Buffer) Len() int { return len(b.units) }

func (b *Buffer) Encoding() Encoding { return b.format.Encoding }

func (b *Buffer) Order() endian.Order { return b.format.Order }

func (b *Buffer) Pad() Pad { return b.format.Pad }

// Units returns a copy of all K code units.
func (b *Buffer) Units() []uint32 {
	cp := make([]uint32, len(b.units))
	copy(cp, b.units)
	return cp
}

// Trimmed returns a copy of the units left after stripping the maximal run
// of trailing padding units. A padding unit followed by content is kept.
func (b *Buffer) Trimmed() []uint32 {
	n := b.trimmedLen()
	cp := make([]uint32, n)
	copy(cp, b.units[:n])
	return cp
}

func (b *Buffer) trimmedLen() int {
	n := len(b.units)
	if b.format.Pad == PadPacked {
		return n
	}
	pu := b.format.Pad.Unit()
	for n > 0 && b.units[n-1] == pu {
		n--
	}
	return n
}

// Decode strips trailing padding and reconstructs the string. Invalid code
// unit sequences fail.
func (b *Buffer) Decode() (string, error) {
	units := b.units[:b.trimmedLen()]
	switch b.format.Encoding {
	case UTF8:
		return decodeUTF8(units)
	case UTF16:
		return decodeUTF16(units)
	default:
		return decodeUTF32(units)
	}
}

func decodeUTF8(units []uint32) (string, error) {
	raw := make([]byte, len(units))
	for i, u := range units {
		raw[i] = byte(u)
	}
	if !utf8.Valid(raw) {
		preview := raw
		if len(preview) > 32 {
			preview = preview[:32]
		}
		return "", errors.InvalidText(errors.PhaseDecode, nil, fmt.Sprintf("invalid UTF-8 sequence: %x", preview))
	}
	return string(raw), nil
}

func decodeUTF16(units []uint32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(units))
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return "", errors.InvalidText(errors.PhaseDecode, nil,
					fmt.Sprintf("unpaired high surrogate 0x%04X at unit %d", u, i))
			}
			sb.WriteRune(utf16.DecodeRune(u, rune(units[i+1])))
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return "", errors.InvalidText(errors.PhaseDecode, nil,
				fmt.Sprintf("unpaired low surrogate 0x%04X at unit %d", u, i))
		default:
			sb.WriteRune(u)
		}
	}
	return sb.String(), nil
}

func decodeUTF32(units []uint32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(units))
	for i, u := range units {
		if u > utf8.MaxRune || !utf8.ValidRune(rune(u)) {
			return "", errors.InvalidText(errors.PhaseDecode, nil,
				fmt.Sprintf("unit 0x%X at %d is not a Unicode scalar value", u, i))
		}
		sb.WriteRune(rune(u))
	}
	return sb.String(), nil
}

// Put writes the buffer's Size() wire bytes into dst.
func (b *Buffer) Put(dst []byte) {
	us := b.format.Encoding.UnitSize()
	for i, u := range b.units {
		endian.PutUint(b.format.Order, dst[i*us:], us, uint64(u))
	}
}

// AppendBytes appends the wire bytes to dst.
func (b *Buffer) AppendBytes(dst []byte) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, b.Size())...)
	b.Put(dst[n:])
	return dst
}

// Size returns the wire size in bytes.
func (b *Buffer) Size() int {
	return len(b.units) * b.format.Encoding.UnitSize()
}

// Equal reports whether both buffers hold the same units in the same format.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.format != o.format || len(b.units) != len(o.units) {
		return false
	}
	for i := range b.units {
		if b.units[i] != o.units[i] {
			return false
		}
	}
	return true
}

func (b *Buffer) String() string {
	s, err := b.Decode()
	if err != nil {
		return "<invalid " + b.format.Encoding.String() + ">"
	}
	return s
}
