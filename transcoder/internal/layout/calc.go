package layout

import (
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
	"github.com/wippyai/wirelayout/transcoder/internal/abi"
)

// Info is the image layout of one type.
type Info struct {
	// Offsets holds member offsets for structs, tuples and unions.
	Offsets []uint32
	Size    uint32
	Align   uint32
	// PayloadOffset is the enum payload position after the tag.
	PayloadOffset uint32
}

// Calculator places members of one aggregate. Packed places every member at
// the next byte and forces alignment 1.
type Calculator struct {
	Packed bool
}

func NewCalculator(packed bool) *Calculator {
	return &Calculator{Packed: packed}
}

// Scalar returns the layout of a width-byte primitive. Alignment equals the
// width, including 16 for 128-bit integers.
func Scalar(width uint32) Info {
	return Info{Size: width, Align: width}
}

// Text returns the layout of a fixed text field, aligned to its code unit.
func Text(f text.Format) Info {
	us := uint32(f.Encoding.UnitSize())
	return Info{Size: uint32(f.Size()), Align: us}
}

// Array returns the layout of n repetitions of elem.
func Array(elem Info, n int) (Info, error) {
	size, ok := abi.SafeMulU32(elem.Size, uint32(n))
	if !ok || n < 0 {
		return Info{}, errors.Schema(errors.KindOverflow, nil, "array of %d x %d bytes overflows", n, elem.Size)
	}
	return Info{Size: size, Align: elem.Align}, nil
}

func (c *Calculator) align(a uint32) uint32 {
	if c.Packed || a == 0 {
		return 1
	}
	return a
}

// Struct lays out members in declaration order. Natural layout pads each
// member to its alignment and the total to the widest one.
func (c *Calculator) Struct(members []Info) (Info, error) {
	offsets := make([]uint32, len(members))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, m := range members {
		a := c.align(m.Align)
		offset = abi.AlignTo(offset, a)
		offsets[i] = offset
		if a > maxAlign {
			maxAlign = a
		}

		next, ok := abi.SafeAddU32(offset, m.Size)
		if !ok {
			return Info{}, errors.Schema(errors.KindOverflow, nil, "aggregate size overflows")
		}
		offset = next
	}

	return Info{
		Offsets: offsets,
		Size:    abi.AlignTo(offset, maxAlign),
		Align:   maxAlign,
	}, nil
}

// Enum places a tagWidth discriminant followed by room for the largest
// payload. Unit variants pass a zero Info.
func (c *Calculator) Enum(tagWidth uint32, payloads []Info) (Info, error) {
	maxAlign := c.align(tagWidth)
	maxSize := uint32(0)

	for _, p := range payloads {
		if a := c.align(p.Align); a > maxAlign {
			maxAlign = a
		}
		if p.Size > maxSize {
			maxSize = p.Size
		}
	}

	payloadOffset := abi.AlignTo(tagWidth, maxAlign)
	if c.Packed {
		payloadOffset = tagWidth
	}
	end, ok := abi.SafeAddU32(payloadOffset, maxSize)
	if !ok {
		return Info{}, errors.Schema(errors.KindOverflow, nil, "enum size overflows")
	}

	return Info{
		Size:          abi.AlignTo(end, maxAlign),
		Align:         maxAlign,
		PayloadOffset: payloadOffset,
	}, nil
}

// Union overlays every member at offset 0.
func (c *Calculator) Union(members []Info) Info {
	maxAlign := uint32(1)
	maxSize := uint32(0)

	for _, m := range members {
		if a := c.align(m.Align); a > maxAlign {
			maxAlign = a
		}
		if m.Size > maxSize {
			maxSize = m.Size
		}
	}

	return Info{
		Offsets: make([]uint32, len(members)),
		Size:    abi.AlignTo(maxSize, maxAlign),
		Align:   maxAlign,
	}
}
