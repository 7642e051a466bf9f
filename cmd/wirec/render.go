package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wirelayout/transcoder"
)

type renderer func(w io.Writer, layouts []*transcoder.CompiledType, opts options) error

var renderers = map[string]renderer{
	"table": renderTable,
	"json":  renderJSON,
	"yaml":  renderYAML,
	"cbor":  renderCBOR,
}

// entry is the machine-readable form of one compiled aggregate.
type entry struct {
	Fingerprint string                `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty" cbor:"fingerprint,omitempty"`
	Layout      transcoder.Descriptor `json:"layout" yaml:"layout" cbor:"layout"`
}

func entries(layouts []*transcoder.CompiledType, opts options) []entry {
	out := make([]entry, 0, len(layouts))
	for _, ct := range layouts {
		e := entry{Layout: ct.Descriptor()}
		if opts.fingerprint {
			e.Fingerprint = ct.Fingerprint().String()
		}
		out = append(out, e)
	}
	return out
}

func renderJSON(w io.Writer, layouts []*transcoder.CompiledType, opts options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries(layouts, opts))
}

func renderYAML(w io.Writer, layouts []*transcoder.CompiledType, opts options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries(layouts, opts)); err != nil {
		return err
	}
	return enc.Close()
}

func renderCBOR(w io.Writer, layouts []*transcoder.CompiledType, opts options) error {
	return cbor.NewEncoder(w).Encode(entries(layouts, opts))
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	number lipgloss.Style
	border lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(color bool) styles {
	s := styles{
		title:  lipgloss.NewStyle(),
		header: lipgloss.NewStyle().Padding(0, 1),
		cell:   lipgloss.NewStyle().Padding(0, 1),
		number: lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		border: lipgloss.NewStyle(),
		muted:  lipgloss.NewStyle(),
	}
	if !color {
		return s
	}
	s.title = s.title.Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)
	s.header = s.header.Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	s.number = s.number.Foreground(lipgloss.Color("#98FB98"))
	s.border = s.border.Foreground(lipgloss.Color("#666666"))
	s.muted = s.muted.Foreground(lipgloss.Color("#666666"))
	return s
}

func renderTable(w io.Writer, layouts []*transcoder.CompiledType, opts options) error {
	st := newStyles(isTerminal(w))

	for i, ct := range layouts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.title.Render(summary(ct)))
		if opts.fingerprint {
			fmt.Fprintln(w, st.muted.Render("fingerprint "+ct.Fingerprint().String()))
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(st.border).
			Headers("MEMBER", "OFFSET", "SIZE", "ALIGN", "TYPE", "ORDER").
			Rows(layoutRows(ct, "", 0, nil)...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return st.header
				case col >= 1 && col <= 3:
					return st.number
				default:
					return st.cell
				}
			})
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}
	return nil
}

func summary(ct *transcoder.CompiledType) string {
	s := fmt.Sprintf("%s %s size=%d align=%d", ct.Name, ct.Kind, ct.Size, ct.Align)
	if ct.Packed {
		s += " packed"
	}
	if !ct.HasCodec {
		s += " no-codec"
	}
	return s
}

// layoutRows flattens ct into one row per leaf member, with offsets
// relative to the outermost aggregate.
func layoutRows(ct *transcoder.CompiledType, prefix string, base uint32, rows [][]string) [][]string {
	switch ct.Kind {
	case transcoder.KindStruct, transcoder.KindTuple, transcoder.KindUnion:
		for _, f := range ct.Fields {
			rows = memberRows(f.Type, join(prefix, f.Name), base+f.Offset, rows)
		}
	case transcoder.KindEnum:
		tag := "u" + strconv.Itoa(int(ct.TagWidth)*8)
		rows = append(rows, cells(join(prefix, "<tag>"), base, ct.TagWidth, ct.TagWidth, tag, ct.Order.String()))
		for _, c := range ct.Cases {
			label := join(prefix, c.Name+"="+strconv.FormatUint(c.Discriminant, 10))
			if c.Type == nil {
				rows = append(rows, cells(label, base+ct.PayloadOffset, 0, 1, "unit", "-"))
				continue
			}
			rows = layoutRows(c.Type, label, base+ct.PayloadOffset, rows)
		}
	}
	return rows
}

func memberRows(t *transcoder.CompiledType, name string, off uint32, rows [][]string) [][]string {
	if t.Kind.IsComposite() {
		rows = append(rows, cells(name, off, t.Size, t.Align, t.String(), "-"))
		return layoutRows(t, name, off, rows)
	}
	order := "-"
	if t.Kind != transcoder.KindBytes && t.Kind != transcoder.KindBool && t.Kind != transcoder.KindU8 && t.Kind != transcoder.KindS8 {
		order = t.Order.String()
	}
	return append(rows, cells(name, off, t.Size, t.Align, t.String(), order))
}

func cells(name string, off, size, align uint32, typ, order string) []string {
	return []string{
		name,
		strconv.FormatUint(uint64(off), 10),
		strconv.FormatUint(uint64(size), 10),
		strconv.FormatUint(uint64(align), 10),
		typ,
		order,
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
