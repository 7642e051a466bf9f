// Package endian is the primitive byte-order codec: it loads and stores
// fixed-width scalars between byte slices and host values.
//
// Values are moved through the host's native order; a byte reversal is
// applied only when the requested wire order differs from the host order.
// Supported widths are 1, 2, 4, 8 and 16 bytes. Width validation belongs to
// schema compilation, so the load/store functions panic on any other width.
package endian

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/wippyai/wirelayout/errors"
)

// Order is an explicit wire byte order.
type Order uint8

const (
	Little Order = iota
	Big
)

var native = func() Order {
	if cpu.IsBigEndian {
		return Big
	}
	return Little
}()

// Native returns the host byte order.
func Native() Order {
	return native
}

// NeedsSwap reports whether values stored in order o must be byte-reversed
// on this host.
func NeedsSwap(o Order) bool {
	return o != native
}

func (o Order) String() string {
	if o == Big {
		return "be"
	}
	return "le"
}

// ByteOrder returns the encoding/binary order for o.
func (o Order) ByteOrder() binary.ByteOrder {
	if o == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseOrder accepts be, big, big_endian, le, little and little_endian.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "be", "big", "big_endian", "big-endian":
		return Big, nil
	case "le", "little", "little_endian", "little-endian":
		return Little, nil
	}
	return Little, fmt.Errorf("invalid byte order %q; expected be or le", s)
}

func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Order) UnmarshalText(b []byte) error {
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ValidWidth reports whether width is a supported scalar width.
func ValidWidth(width int) bool {
	switch width {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// Uint128 is a 16-byte scalar as two host words.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%#x", u.Lo)
	}
	return fmt.Sprintf("%#x%016x", u.Hi, u.Lo)
}

func swapWidth(v uint64, width int) uint64 {
	switch width {
	case 2:
		return uint64(bits.ReverseBytes16(uint16(v)))
	case 4:
		return uint64(bits.ReverseBytes32(uint32(v)))
	case 8:
		return bits.ReverseBytes64(v)
	}
	return v
}

// PutUint stores the low width bytes of v into dst in order o.
func PutUint(o Order, dst []byte, width int, v uint64) {
	if o != native {
		v = swapWidth(v, width)
	}
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.NativeEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.NativeEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.NativeEndian.PutUint64(dst, v)
	default:
		panic(fmt.Sprintf("endian: unsupported width %d", width))
	}
}

// Uint loads a width-byte unsigned value stored in order o.
func Uint(o Order, src []byte, width int) uint64 {
	var v uint64
	switch width {
	case 1:
		return uint64(src[0])
	case 2:
		v = uint64(binary.NativeEndian.Uint16(src))
	case 4:
		v = uint64(binary.NativeEndian.Uint32(src))
	case 8:
		v = binary.NativeEndian.Uint64(src)
	default:
		panic(fmt.Sprintf("endian: unsupported width %d", width))
	}
	if o != native {
		v = swapWidth(v, width)
	}
	return v
}

// Int loads a width-byte two's complement value, sign-extended.
func Int(o Order, src []byte, width int) int64 {
	v := Uint(o, src, width)
	shift := 64 - uint(width)*8
	return int64(v<<shift) >> shift
}

// PutUint128 stores a 16-byte value in order o.
func PutUint128(o Order, dst []byte, v Uint128) {
	if o == Big {
		binary.BigEndian.PutUint64(dst[0:8], v.Hi)
		binary.BigEndian.PutUint64(dst[8:16], v.Lo)
		return
	}
	binary.LittleEndian.PutUint64(dst[0:8], v.Lo)
	binary.LittleEndian.PutUint64(dst[8:16], v.Hi)
}

// Uint128At loads a 16-byte value stored in order o.
func Uint128At(o Order, src []byte) Uint128 {
	if o == Big {
		return Uint128{
			Hi: binary.BigEndian.Uint64(src[0:8]),
			Lo: binary.BigEndian.Uint64(src[8:16]),
		}
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(src[0:8]),
		Hi: binary.LittleEndian.Uint64(src[8:16]),
	}
}

// Swap reverses every width-byte element of b in place.
func Swap(b []byte, width int) {
	if width <= 1 {
		return
	}
	for off := 0; off+width <= len(b); off += width {
		e := b[off : off+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
	}
}

// CopyElems copies native-order elements from src into wire-order dst.
// When the wire order matches the host this is a single bulk copy.
func CopyElems(o Order, dst, src []byte, width int) {
	copy(dst, src)
	if o != native {
		Swap(dst[:len(src)], width)
	}
}

// ReadUint reads exactly width bytes from r and decodes them in order o.
// A short read returns an io error and a zero value.
func ReadUint(r io.Reader, o Order, width int) (uint64, error) {
	if err := checkStreamWidth(width); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:width]); err != nil {
		return 0, errors.ShortRead(nil, width, 0, err)
	}
	return Uint(o, buf[:width], width), nil
}

// WriteUint writes the low width bytes of v to w in order o.
func WriteUint(w io.Writer, o Order, width int, v uint64) error {
	if err := checkStreamWidth(width); err != nil {
		return err
	}
	var buf [8]byte
	PutUint(o, buf[:width], width, v)
	n, err := w.Write(buf[:width])
	if err == nil && n != width {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errors.ShortWrite(nil, width, 0, err)
	}
	return nil
}

func checkStreamWidth(width int) error {
	if !ValidWidth(width) {
		return errors.InvalidWidth(nil, width)
	}
	if width == 16 {
		return errors.Unsupported(errors.PhaseIO, "16-byte scalar needs ReadUint128/WriteUint128")
	}
	return nil
}

// ReadUint128 reads exactly 16 bytes from r and decodes them in order o.
func ReadUint128(r io.Reader, o Order) (Uint128, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Uint128{}, errors.ShortRead(nil, 16, 0, err)
	}
	return Uint128At(o, buf[:]), nil
}

// WriteUint128 writes v to w as 16 bytes in order o.
func WriteUint128(w io.Writer, o Order, v Uint128) error {
	var buf [16]byte
	PutUint128(o, buf[:], v)
	n, err := w.Write(buf[:])
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errors.ShortWrite(nil, len(buf), 0, err)
	}
	return nil
}
