package schema

import (
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

// WITOptions supplies the wire decisions a WIT definition does not carry.
type WITOptions struct {
	// Text is applied to every string member. Strings are rejected when nil.
	Text   *TextDirective
	Order  endian.Order
	Layout Layout
}

// FromWIT imports a WIT record, variant, enum or tuple definition. Nested
// type definitions become referenced aggregates. Variant cases receive
// their position as an explicit discriminant and the smallest tag width
// that holds the case count.
func FromWIT(td *wit.TypeDef, opts WITOptions) (*Aggregate, error) {
	im := &witImporter{opts: opts, seen: make(map[*wit.TypeDef]*Aggregate)}
	a, err := im.typeDef(td, nil)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

type witImporter struct {
	seen map[*wit.TypeDef]*Aggregate
	opts WITOptions
	anon int
}

func (im *witImporter) name(td *wit.TypeDef) string {
	if td.Name != nil && *td.Name != "" {
		return *td.Name
	}
	im.anon++
	return "anon" + strconv.Itoa(im.anon)
}

func (im *witImporter) typeDef(td *wit.TypeDef, path []string) (*Aggregate, error) {
	if td == nil {
		return nil, errors.NilPointer(errors.PhaseCompile, path, "*wit.TypeDef")
	}
	if a, ok := im.seen[td]; ok {
		return a, nil
	}

	a := &Aggregate{Name: im.name(td), Order: im.opts.Order, Layout: im.opts.Layout}
	im.seen[td] = a
	path = append(append([]string{}, path...), a.Name)

	switch kind := td.Kind.(type) {
	case *wit.Record:
		a.Kind = Struct
		for _, f := range kind.Fields {
			field, err := im.field(f.Name, f.Type, append(path, f.Name))
			if err != nil {
				return nil, err
			}
			a.Fields = append(a.Fields, field)
		}
	case *wit.Tuple:
		a.Kind = Struct
		for i, t := range kind.Types {
			name := "f" + strconv.Itoa(i)
			field, err := im.field(name, t, append(path, name))
			if err != nil {
				return nil, err
			}
			a.Fields = append(a.Fields, field)
		}
	case *wit.Variant:
		a.Kind = Enum
		a.TagWidth = tagWidthFor(len(kind.Cases))
		for i, c := range kind.Cases {
			v := Variant{Name: c.Name, Discriminant: uint64(i), Explicit: true}
			if c.Type != nil {
				field, err := im.field("", c.Type, append(path, c.Name))
				if err != nil {
					return nil, err
				}
				v.Tuple = true
				v.Fields = []Field{field}
			}
			a.Variants = append(a.Variants, v)
		}
	case *wit.Enum:
		a.Kind = Enum
		a.TagWidth = tagWidthFor(len(kind.Cases))
		for i, c := range kind.Cases {
			a.Variants = append(a.Variants, Variant{Name: c.Name, Discriminant: uint64(i)})
		}
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("WIT %T has no fixed-size wire layout", td.Kind).
			Build()
	}
	return a, nil
}

func (im *witImporter) field(name string, t wit.Type, path []string) (Field, error) {
	f := Field{Name: name}
	ft, err := im.witType(t, path)
	if err != nil {
		return f, err
	}
	f.Type = ft
	if ft.Kind == TypeString {
		if im.opts.Text == nil {
			return f, errors.Schema(errors.KindInvalidDirective, path,
				"WIT strings need a text directive; set WITOptions.Text")
		}
		dir := *im.opts.Text
		f.Text = &dir
	}
	return f, nil
}

func (im *witImporter) witType(t wit.Type, path []string) (*Type, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return ScalarOf(Bool), nil
	case wit.U8:
		return ScalarOf(U8), nil
	case wit.U16:
		return ScalarOf(U16), nil
	case wit.U32:
		return ScalarOf(U32), nil
	case wit.U64:
		return ScalarOf(U64), nil
	case wit.S8:
		return ScalarOf(S8), nil
	case wit.S16:
		return ScalarOf(S16), nil
	case wit.S32:
		return ScalarOf(S32), nil
	case wit.S64:
		return ScalarOf(S64), nil
	case wit.F32:
		return ScalarOf(F32), nil
	case wit.F64:
		return ScalarOf(F64), nil
	case wit.Char:
		return ScalarOf(Char), nil
	case wit.String:
		return StringType(), nil
	case *wit.TypeDef:
		// Aliases resolve to their target.
		if inner, ok := typ.Kind.(wit.Type); ok {
			return im.witType(inner, path)
		}
		ref, err := im.typeDef(typ, path)
		if err != nil {
			return nil, err
		}
		return RefOf(ref), nil
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("WIT type %T has no fixed-size wire layout", t).
			Build()
	}
}

func tagWidthFor(cases int) int {
	switch {
	case cases <= 1<<8:
		return 1
	case cases <= 1<<16:
		return 2
	default:
		return 4
	}
}
