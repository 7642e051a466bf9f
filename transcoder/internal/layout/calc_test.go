package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
)

func TestScalar(t *testing.T) {
	for _, w := range []uint32{1, 2, 4, 8, 16} {
		info := Scalar(w)
		if info.Size != w || info.Align != w {
			t.Errorf("Scalar(%d) = %+v", w, info)
		}
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		format text.Format
		size   uint32
		align  uint32
	}{
		{text.Format{Encoding: text.UTF8, Units: 5}, 5, 1},
		{text.Format{Encoding: text.UTF16, Units: 4, Order: endian.Big}, 8, 2},
		{text.Format{Encoding: text.UTF32, Units: 3}, 12, 4},
	}
	for _, tc := range tests {
		t.Run(tc.format.String(), func(t *testing.T) {
			info := Text(tc.format)
			if info.Size != tc.size || info.Align != tc.align {
				t.Errorf("got %+v, want size %d align %d", info, tc.size, tc.align)
			}
		})
	}
}

func TestArray(t *testing.T) {
	info, err := Array(Scalar(2), 3)
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	if info.Size != 6 || info.Align != 2 {
		t.Errorf("u16[3] = %+v", info)
	}

	_, err = Array(Info{Size: 1 << 20, Align: 1}, 1<<20)
	if !errors.IsSchema(err) {
		t.Errorf("huge array = %v, want schema error", err)
	}
}

func TestStruct(t *testing.T) {
	members := []Info{Scalar(1), Scalar(4), Scalar(1)}

	t.Run("natural", func(t *testing.T) {
		info, err := NewCalculator(false).Struct(members)
		if err != nil {
			t.Fatal(err)
		}
		want := Info{Offsets: []uint32{0, 4, 8}, Size: 12, Align: 4}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("packed", func(t *testing.T) {
		info, err := NewCalculator(true).Struct(members)
		if err != nil {
			t.Fatal(err)
		}
		want := Info{Offsets: []uint32{0, 1, 5}, Size: 6, Align: 1}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		info, err := NewCalculator(false).Struct(nil)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != 0 || info.Align != 1 {
			t.Errorf("empty struct = %+v", info)
		}
	})

	t.Run("u128_alignment", func(t *testing.T) {
		info, err := NewCalculator(false).Struct([]Info{Scalar(1), Scalar(16)})
		if err != nil {
			t.Fatal(err)
		}
		if info.Offsets[1] != 16 || info.Size != 32 || info.Align != 16 {
			t.Errorf("u8 + u128 = %+v", info)
		}
	})

	t.Run("text_member", func(t *testing.T) {
		f := text.Format{Encoding: text.UTF16, Units: 3}
		info, err := NewCalculator(false).Struct([]Info{Scalar(1), Text(f)})
		if err != nil {
			t.Fatal(err)
		}
		if info.Offsets[1] != 2 || info.Size != 8 {
			t.Errorf("u8 + utf16[3] = %+v", info)
		}
	})
}

func TestEnum(t *testing.T) {
	payloads := []Info{{}, Scalar(2)}

	t.Run("natural", func(t *testing.T) {
		info, err := NewCalculator(false).Enum(1, payloads)
		if err != nil {
			t.Fatal(err)
		}
		if info.PayloadOffset != 2 || info.Size != 4 || info.Align != 2 {
			t.Errorf("enum = %+v", info)
		}
	})

	t.Run("packed", func(t *testing.T) {
		info, err := NewCalculator(true).Enum(1, payloads)
		if err != nil {
			t.Fatal(err)
		}
		if info.PayloadOffset != 1 || info.Size != 3 || info.Align != 1 {
			t.Errorf("enum = %+v", info)
		}
	})

	t.Run("unit_only", func(t *testing.T) {
		info, err := NewCalculator(false).Enum(4, []Info{{}, {}})
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != 4 || info.Align != 4 || info.PayloadOffset != 4 {
			t.Errorf("unit enum = %+v", info)
		}
	})
}

func TestUnion(t *testing.T) {
	info := NewCalculator(false).Union([]Info{Scalar(4), {Size: 5, Align: 1}})
	want := Info{Offsets: []uint32{0, 0}, Size: 8, Align: 4}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	packed := NewCalculator(true).Union([]Info{Scalar(4), {Size: 5, Align: 1}})
	if packed.Size != 5 || packed.Align != 1 {
		t.Errorf("packed union = %+v", packed)
	}
}

func TestStruct_SizeOverflow(t *testing.T) {
	big := Info{Size: 1 << 31, Align: 1}
	for _, packed := range []bool{false, true} {
		c := &Calculator{Packed: packed}
		if _, err := c.Struct([]Info{big, big}); !errors.IsSchema(err) {
			t.Errorf("packed=%v: err = %v, want schema error", packed, err)
		}
	}
}
