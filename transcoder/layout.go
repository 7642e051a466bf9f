package transcoder

import (
	"github.com/wippyai/wirelayout/text"
	"github.com/wippyai/wirelayout/transcoder/internal/layout"
)

type LayoutInfo = layout.Info

// LayoutCalculator places the members of one aggregate in natural or packed
// layout.
type LayoutCalculator struct {
	calc *layout.Calculator
}

func NewLayoutCalculator(packed bool) *LayoutCalculator {
	return &LayoutCalculator{
		calc: layout.NewCalculator(packed),
	}
}

func (lc *LayoutCalculator) Packed() bool {
	return lc.calc.Packed
}

func (lc *LayoutCalculator) Struct(members []LayoutInfo) (LayoutInfo, error) {
	return lc.calc.Struct(members)
}

func (lc *LayoutCalculator) Enum(tagWidth uint32, payloads []LayoutInfo) (LayoutInfo, error) {
	return lc.calc.Enum(tagWidth, payloads)
}

func (lc *LayoutCalculator) Union(members []LayoutInfo) LayoutInfo {
	return lc.calc.Union(members)
}

func ScalarLayout(width uint32) LayoutInfo {
	return layout.Scalar(width)
}

func TextLayout(f text.Format) LayoutInfo {
	return layout.Text(f)
}

func ArrayLayout(elem LayoutInfo, n int) (LayoutInfo, error) {
	return layout.Array(elem, n)
}
