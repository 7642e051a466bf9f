package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

// Struct tags recognised by FromGoType:
//
//	type Header struct {
//		_     struct{} `wire:"struct,order=be,packed"`
//		Magic [4]byte
//		Len   uint16 `wire:"len,order=le"`
//		Name  string `wire:"name" text:"utf16,units=12,pad=space"`
//	}
//
//	type Command struct {
//		_    struct{}  `wire:"enum,order=be,tag=1"`
//		Ping *struct{} `wire:"ping,disc=1"`
//		Data *Data     `wire:"data,disc=2"`
//	}
//
// The blank marker field carries aggregate options: struct|enum|union,
// order=be|le (required), packed, tag=N, name=X and derive=A|B. Member tags
// carry the wire name ("-" skips the field), order=, type= (for example
// type=char on a rune field) and, on enum variants, disc=N and tuple.
const (
	WireTag = "wire"
	TextTag = "text"
)

var uint128Type = reflect.TypeOf(endian.Uint128{})

var derived sync.Map // reflect.Type -> *Aggregate

// FromGoType derives an aggregate from a Go struct type and its tags.
// Results are cached per type.
func FromGoType(t reflect.Type) (*Aggregate, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			GoType(typeName(t)).
			Detail("schema derivation needs a struct type").
			Build()
	}
	if cached, ok := derived.Load(t); ok {
		return cached.(*Aggregate), nil
	}

	d := &deriver{seen: make(map[reflect.Type]*Aggregate)}
	a, err := d.aggregate(t, nil)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	actual, _ := derived.LoadOrStore(t, a)
	return actual.(*Aggregate), nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

type tagOptions struct {
	opts map[string]string
	name string
}

func parseTag(tag string) tagOptions {
	name, rest, _ := strings.Cut(tag, ",")
	to := tagOptions{name: strings.TrimSpace(name), opts: map[string]string{}}
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		to.opts[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return to
}

func (to tagOptions) has(key string) bool {
	_, ok := to.opts[key]
	return ok
}

type deriver struct {
	seen map[reflect.Type]*Aggregate
}

func (d *deriver) aggregate(t reflect.Type, path []string) (*Aggregate, error) {
	if a, ok := d.seen[t]; ok {
		return a, nil
	}

	a := &Aggregate{Name: t.Name(), Kind: Struct}
	if a.Name == "" {
		a.Name = t.String()
	}
	path = append(append([]string{}, path...), a.Name)

	haveOrder := false
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name != "_" {
			continue
		}
		to := parseTag(sf.Tag.Get(WireTag))
		// The first segment of the marker tag is the aggregate kind.
		if to.name != "" {
			k, err := ParseAggregateKind(to.name)
			if err != nil {
				return nil, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
			}
			a.Kind = k
		}
		if v, ok := to.opts["order"]; ok {
			o, err := endian.ParseOrder(v)
			if err != nil {
				return nil, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
			}
			a.Order = o
			haveOrder = true
		}
		if to.has("packed") {
			a.Layout = Packed
		}
		if v, ok := to.opts["name"]; ok && v != "" {
			a.Name = v
		}
		if v, ok := to.opts["tag"]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.Schema(errors.KindInvalidWidth, path, "invalid tag width %q", v)
			}
			a.TagWidth = n
		}
		if v, ok := to.opts["derive"]; ok && v != "" {
			a.Derive = strings.Split(v, "|")
		}
	}
	if !haveOrder {
		return nil, errors.Schema(errors.KindInvalidDirective, path,
			"%s needs a byte order: add a marker field _ struct{} `wire:\",order=be\"`", t)
	}
	if a.Kind == Enum && a.TagWidth == 0 {
		return nil, errors.Schema(errors.KindInvalidWidth, path, "enum %s needs tag=1|2|4|8 on its marker field", t)
	}

	d.seen[t] = a

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" || !sf.IsExported() {
			continue
		}
		to := parseTag(sf.Tag.Get(WireTag))
		if to.name == "-" {
			continue
		}
		name := to.name
		if name == "" {
			name = sf.Name
		}
		fp := append(append([]string{}, path...), name)

		if a.Kind == Enum {
			v, err := d.variant(sf, to, name, fp)
			if err != nil {
				return nil, err
			}
			a.Variants = append(a.Variants, v)
			continue
		}

		f, err := d.field(sf, to, name, fp)
		if err != nil {
			return nil, err
		}
		a.Fields = append(a.Fields, f)
	}
	return a, nil
}

func (d *deriver) field(sf reflect.StructField, to tagOptions, name string, path []string) (Field, error) {
	f := Field{Name: name}
	if v, ok := to.opts["order"]; ok {
		o, err := endian.ParseOrder(v)
		if err != nil {
			return f, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
		}
		f.Order = &o
	}
	if raw := sf.Tag.Get(TextTag); raw != "" {
		dir, err := ParseTextDirective(raw)
		if err != nil {
			return f, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
		}
		f.Text = &dir
	}

	t, err := d.goType(sf.Type, to.opts["type"], path)
	if err != nil {
		return f, err
	}
	f.Type = t
	return f, nil
}

func (d *deriver) variant(sf reflect.StructField, to tagOptions, name string, path []string) (Variant, error) {
	v := Variant{Name: name, Tuple: to.has("tuple")}
	if s, ok := to.opts["disc"]; ok {
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return v, errors.Schema(errors.KindInvalidDirective, path, "invalid discriminant %q", s)
		}
		v.Discriminant = n
		v.Explicit = true
	}

	if sf.Type.Kind() != reflect.Ptr || sf.Type.Elem().Kind() != reflect.Struct {
		return v, errors.TypeMismatch(errors.PhaseCompile, path, sf.Type.String(), "pointer to payload struct")
	}
	payload := sf.Type.Elem()
	for i := 0; i < payload.NumField(); i++ {
		pf := payload.Field(i)
		if !pf.IsExported() {
			continue
		}
		pto := parseTag(pf.Tag.Get(WireTag))
		if pto.name == "-" {
			continue
		}
		fname := pto.name
		if fname == "" {
			fname = pf.Name
		}
		if v.Tuple {
			fname = ""
		}
		label := fname
		if label == "" {
			label = strconv.Itoa(len(v.Fields))
		}
		f, err := d.field(pf, pto, fname, append(append([]string{}, path...), label))
		if err != nil {
			return v, err
		}
		v.Fields = append(v.Fields, f)
	}
	return v, nil
}

func (d *deriver) goType(t reflect.Type, override string, path []string) (*Type, error) {
	if override != "" {
		sc, ok := ParseScalar(override)
		if !ok {
			return nil, errors.Schema(errors.KindInvalidDirective, path, "unknown scalar type %q", override)
		}
		if !ScalarFits(sc, t) {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, t.String(), sc.String())
		}
		return ScalarOf(sc), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return ScalarOf(Bool), nil
	case reflect.Uint8:
		return ScalarOf(U8), nil
	case reflect.Uint16:
		return ScalarOf(U16), nil
	case reflect.Uint32:
		return ScalarOf(U32), nil
	case reflect.Uint64:
		return ScalarOf(U64), nil
	case reflect.Int8:
		return ScalarOf(S8), nil
	case reflect.Int16:
		return ScalarOf(S16), nil
	case reflect.Int32:
		return ScalarOf(S32), nil
	case reflect.Int64:
		return ScalarOf(S64), nil
	case reflect.Float32:
		return ScalarOf(F32), nil
	case reflect.Float64:
		return ScalarOf(F64), nil
	case reflect.String:
		return StringType(), nil
	case reflect.Array:
		elem, err := d.goType(t.Elem(), "", path)
		if err != nil {
			return nil, err
		}
		return ArrayOf(t.Len(), elem), nil
	case reflect.Struct:
		if t == uint128Type {
			return ScalarOf(U128), nil
		}
		ref, err := d.aggregate(t, path)
		if err != nil {
			return nil, err
		}
		return RefOf(ref), nil
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidWidth).
			Path(path...).
			GoType(t.String()).
			Detail("platform-sized integers have no fixed wire width; use a sized type").
			Build()
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(t.String()).
			Detail("no fixed-size wire representation").
			Build()
	}
}

// ScalarFits reports whether a Go value of type t can hold scalar s. Integer
// scalars fit a Go integer at least as wide, except that a signed scalar
// only fits an unsigned Go type of the same width. f32 fits either float
// type, f64 only float64.
func ScalarFits(s Scalar, t reflect.Type) bool {
	switch s {
	case Char:
		return t.Kind() == reflect.Int32 || t.Kind() == reflect.Uint32
	case U128, S128:
		return t == uint128Type
	case Bool:
		return t.Kind() == reflect.Bool
	case F32:
		return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
	case F64:
		return t.Kind() == reflect.Float64
	}
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(t.Size()) >= s.Width()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s.Signed() {
			return int(t.Size()) == s.Width()
		}
		return int(t.Size()) >= s.Width()
	}
	return false
}
