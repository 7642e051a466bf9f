package transcoder

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/schema"
)

type Compiler struct {
	cache sync.Map // cacheKey -> *CompiledType
}

type cacheKey struct {
	agg    *schema.Aggregate
	goType reflect.Type
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile turns an aggregate into its wire layout bound to goType. A nil
// goType compiles the layout alone; such types can be read, written and
// accessed through Value but not converted to Go values.
func (c *Compiler) Compile(agg *schema.Aggregate, goType reflect.Type) (*CompiledType, error) {
	if agg == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("aggregate cannot be nil").
			Build()
	}
	for goType != nil && goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	key := cacheKey{agg: agg, goType: goType}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*CompiledType), nil
	}

	ct, err := c.compileAggregate(agg, goType, []string{agg.Name}, map[*schema.Aggregate]bool{})
	if err != nil {
		return nil, err
	}

	actual, loaded := c.cache.LoadOrStore(key, ct)
	if !loaded {
		if ce := Logger().Check(zap.DebugLevel, "compiled wire layout"); ce != nil {
			ce.Write(
				zap.String("type", ct.Name),
				zap.Stringer("kind", ct.Kind),
				zap.Uint32("size", ct.Size),
				zap.Uint32("align", ct.Align),
				zap.Bool("codec", ct.HasCodec),
				zap.Stringer("fingerprint", ct.Fingerprint()),
			)
		}
	}
	return actual.(*CompiledType), nil
}

// CompileSchema compiles agg without a Go binding.
func (c *Compiler) CompileSchema(agg *schema.Aggregate) (*CompiledType, error) {
	return c.Compile(agg, nil)
}

// CompileType derives the aggregate from goType's struct tags and compiles
// it bound to goType.
func (c *Compiler) CompileType(goType reflect.Type) (*CompiledType, error) {
	agg, err := schema.FromGoType(goType)
	if err != nil {
		return nil, err
	}
	return c.Compile(agg, goType)
}

func (c *Compiler) compileAggregate(agg *schema.Aggregate, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	if visiting[agg] {
		return nil, errors.Schema(errors.KindUnsupported, path, "aggregate %s contains itself; wire types have a fixed size", agg.Name)
	}
	visiting[agg] = true
	defer delete(visiting, agg)

	if err := agg.Validate(); err != nil {
		return nil, err
	}
	if goType != nil && goType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct")
	}

	calc := NewLayoutCalculator(agg.Layout == schema.Packed)

	var ct *CompiledType
	var err error
	switch agg.Kind {
	case schema.Struct:
		ct, err = c.compileStruct(agg, calc, goType, path, visiting)
	case schema.Enum:
		ct, err = c.compileEnum(agg, calc, goType, path, visiting)
	case schema.Union:
		ct, err = c.compileUnion(agg, calc, goType, path, visiting)
	default:
		return nil, errors.Schema(errors.KindUnsupported, path, "unknown aggregate kind %s", agg.Kind)
	}
	if err != nil {
		return nil, err
	}

	ct.Name = agg.Name
	ct.Derive = agg.Derive
	ct.Packed = agg.Layout == schema.Packed
	ct.GoType = goType
	return finish(ct), nil
}

func (c *Compiler) compileStruct(agg *schema.Aggregate, calc *LayoutCalculator, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	fields, infos, err := c.compileFields(agg, agg.Fields, false, goType, path, visiting)
	if err != nil {
		return nil, err
	}
	info, err := calc.Struct(infos)
	if err != nil {
		return nil, errors.WithPath(err, path...)
	}
	for i := range fields {
		fields[i].Offset = info.Offsets[i]
	}
	return &CompiledType{
		Fields: fields,
		Size:   info.Size,
		Align:  info.Align,
		Order:  agg.Order,
		Kind:   KindStruct,
	}, nil
}

// compileUnion wraps every member per the field rules but yields no codec:
// the active member cannot be known without an external tag.
func (c *Compiler) compileUnion(agg *schema.Aggregate, calc *LayoutCalculator, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	if goType != nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("union %s has no codec and cannot bind a Go type; model the data as an enum", agg.Name).
			Build()
	}
	fields, infos, err := c.compileFields(agg, agg.Fields, false, nil, path, visiting)
	if err != nil {
		return nil, err
	}
	info := calc.Union(infos)
	return &CompiledType{
		Fields: fields,
		Size:   info.Size,
		Align:  info.Align,
		Order:  agg.Order,
		Kind:   KindUnion,
	}, nil
}

func (c *Compiler) compileEnum(agg *schema.Aggregate, calc *LayoutCalculator, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	discs, err := discriminants(agg, path)
	if err != nil {
		return nil, err
	}

	tagWidth := uint32(agg.TagWidth)
	cases := make([]CompiledCase, len(agg.Variants))
	payloads := make([]LayoutInfo, len(agg.Variants))
	bound := make(map[int]string, len(agg.Variants))

	for i := range agg.Variants {
		v := &agg.Variants[i]
		casePath := append(append([]string{}, path...), v.Name)
		cc := CompiledCase{Name: v.Name, Discriminant: discs[i], GoIndex: -1}

		var payloadGo reflect.Type
		if goType != nil {
			sf, err := bindGoField(goType, v.Name, bound, path)
			if err != nil {
				return nil, err
			}
			if sf.Type.Kind() != reflect.Ptr || sf.Type.Elem().Kind() != reflect.Struct {
				return nil, errors.TypeMismatch(errors.PhaseCompile, casePath, sf.Type.String(), "pointer to payload struct")
			}
			cc.GoIndex = sf.Index[0]
			payloadGo = sf.Type.Elem()
		}

		if v.HasData() {
			fields, infos, err := c.compileFields(agg, v.Fields, v.Tuple, payloadGo, casePath, visiting)
			if err != nil {
				return nil, err
			}
			info, err := calc.Struct(infos)
			if err != nil {
				return nil, errors.WithPath(err, casePath...)
			}
			for j := range fields {
				fields[j].Offset = info.Offsets[j]
			}
			kind := KindStruct
			if v.Tuple {
				kind = KindTuple
			}
			cc.Type = finish(&CompiledType{
				GoType: payloadGo,
				Name:   v.Name,
				Fields: fields,
				Size:   info.Size,
				Align:  info.Align,
				Order:  agg.Order,
				Kind:   kind,
				Packed: calc.Packed(),
			})
			payloads[i] = LayoutInfo{Size: info.Size, Align: info.Align}
		}
		cases[i] = cc
	}

	info, err := calc.Enum(tagWidth, payloads)
	if err != nil {
		return nil, errors.WithPath(err, path...)
	}
	return &CompiledType{
		Cases:         cases,
		Size:          info.Size,
		Align:         info.Align,
		TagWidth:      tagWidth,
		PayloadOffset: info.PayloadOffset,
		Order:         agg.Order,
		Kind:          KindEnum,
	}, nil
}

// discriminants resolves the tag value of every variant. Once any variant
// carries data, every variant must declare its discriminant; otherwise an
// undeclared one takes the previous value plus one, starting at zero.
func discriminants(agg *schema.Aggregate, path []string) ([]uint64, error) {
	hasData := agg.HasData()
	discs := make([]uint64, len(agg.Variants))
	seen := make(map[uint64]string, len(agg.Variants))
	next := uint64(0)

	for i := range agg.Variants {
		v := &agg.Variants[i]
		d := next
		switch {
		case v.Explicit:
			d = v.Discriminant
		case hasData:
			return nil, errors.MissingDiscriminant(path, v.Name)
		}

		if agg.TagWidth < 8 && d>>(uint(agg.TagWidth)*8) != 0 {
			return nil, errors.New(errors.PhaseCompile, errors.KindInvalidWidth).
				Path(append(append([]string{}, path...), v.Name)...).
				Value(d).
				Detail("discriminant %d does not fit a %d-byte tag", d, agg.TagWidth).
				Build()
		}
		if prev, dup := seen[d]; dup {
			return nil, errors.New(errors.PhaseCompile, errors.KindDuplicateDiscriminant).
				Path(path...).
				Value(d).
				Detail("variants %q and %q share discriminant %d", prev, v.Name, d).
				Build()
		}
		seen[d] = v.Name
		discs[i] = d
		next = d + 1
	}
	return discs, nil
}

func (c *Compiler) compileFields(agg *schema.Aggregate, fields []schema.Field, tuple bool, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) ([]CompiledField, []LayoutInfo, error) {
	out := make([]CompiledField, 0, len(fields))
	infos := make([]LayoutInfo, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	bound := make(map[int]string, len(fields))

	var positional []int
	if goType != nil && tuple {
		positional = exportedFields(goType)
		if len(positional) != len(fields) {
			return nil, nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(goType.String()).
				Detail("tuple has %d members but struct has %d fields", len(fields), len(positional)).
				Build()
		}
	}

	for i := range fields {
		f := &fields[i]
		name := f.Name
		if tuple {
			name = strconv.Itoa(i)
		}
		if seen[name] {
			return nil, nil, errors.New(errors.PhaseCompile, errors.KindDuplicateField).
				Path(path...).
				Detail("field %q declared twice", name).
				Build()
		}
		seen[name] = true
		fieldPath := append(append([]string{}, path...), name)

		goIndex := -1
		var fieldGo reflect.Type
		if goType != nil {
			if tuple {
				goIndex = positional[i]
			} else {
				sf, err := bindGoField(goType, name, bound, path)
				if err != nil {
					return nil, nil, err
				}
				goIndex = sf.Index[0]
			}
			fieldGo = goType.Field(goIndex).Type
		}

		if f.Type.Kind == schema.TypeRef && f.Order != nil {
			return nil, nil, errors.Schema(errors.KindInvalidDirective, fieldPath,
				"byte order override on aggregate field; %s carries its own order", f.Type.Ref.Name)
		}

		ft, err := c.compileType(f.Type, agg.FieldOrder(f), f.Text, fieldGo, fieldPath, visiting)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, CompiledField{Type: ft, Name: name, GoIndex: goIndex})
		infos = append(infos, LayoutInfo{Size: ft.Size, Align: ft.Align})
	}
	return out, infos, nil
}

func (c *Compiler) compileType(t *schema.Type, order endian.Order, dir *schema.TextDirective, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	switch t.Kind {
	case schema.TypeArray:
		if t.IsBytes() {
			return compileBytes(t.Len, goType, path)
		}
		return c.compileArray(t, order, dir, goType, path, visiting)
	case schema.TypeString:
		return compileText(dir, order, goType, path)
	case schema.TypeScalar:
		return compileScalar(t.Scalar, order, goType, path)
	case schema.TypeRef:
		return c.compileAggregate(t.Ref, goType, path, visiting)
	default:
		return nil, errors.Schema(errors.KindUnsupported, path, "unsupported type %s", t)
	}
}

// compileBytes is the byte[N] passthrough: no order, no validation.
func compileBytes(n int, goType reflect.Type, path []string) (*CompiledType, error) {
	if goType != nil && (goType.Kind() != reflect.Array || goType.Len() != n || goType.Elem().Kind() != reflect.Uint8) {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "["+strconv.Itoa(n)+"]byte")
	}
	return finish(&CompiledType{
		GoType: goType,
		Len:    n,
		Size:   uint32(n),
		Align:  1,
		Kind:   KindBytes,
	}), nil
}

// compileArray applies the element's order to every element separately.
func (c *Compiler) compileArray(t *schema.Type, order endian.Order, dir *schema.TextDirective, goType reflect.Type, path []string, visiting map[*schema.Aggregate]bool) (*CompiledType, error) {
	var elemGo reflect.Type
	if goType != nil {
		if goType.Kind() != reflect.Array || goType.Len() != t.Len {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), t.String())
		}
		elemGo = goType.Elem()
	}

	elemPath := append(append([]string{}, path...), "[elem]")
	elem, err := c.compileType(t.Elem, order, dir, elemGo, elemPath, visiting)
	if err != nil {
		return nil, err
	}

	info, err := ArrayLayout(LayoutInfo{Size: elem.Size, Align: elem.Align}, t.Len)
	if err != nil {
		return nil, errors.WithPath(err, path...)
	}
	return finish(&CompiledType{
		GoType: goType,
		Elem:   elem,
		Len:    t.Len,
		Size:   info.Size,
		Align:  info.Align,
		Order:  order,
		Kind:   KindArray,
	}), nil
}

func compileText(dir *schema.TextDirective, order endian.Order, goType reflect.Type, path []string) (*CompiledType, error) {
	if dir == nil {
		return nil, errors.Schema(errors.KindInvalidDirective, path, "string field needs a text directive {encoding, units, pad}")
	}
	format := dir.Format(order)
	if err := format.Validate(); err != nil {
		return nil, errors.WithPath(err, path...)
	}
	if goType != nil && goType.Kind() != reflect.String {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "string")
	}

	info := TextLayout(format)
	return finish(&CompiledType{
		GoType: goType,
		Text:   &format,
		Size:   info.Size,
		Align:  info.Align,
		Order:  order,
		Kind:   KindText,
	}), nil
}

func compileScalar(s schema.Scalar, order endian.Order, goType reflect.Type, path []string) (*CompiledType, error) {
	kind, ok := scalarKinds[s]
	if !ok || !endian.ValidWidth(s.Width()) {
		return nil, errors.InvalidWidth(path, s.Width())
	}
	if goType != nil && !schema.ScalarFits(s, goType) {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), s.String())
	}

	info := ScalarLayout(uint32(s.Width()))
	return finish(&CompiledType{
		GoType: goType,
		Size:   info.Size,
		Align:  info.Align,
		Order:  order,
		Kind:   kind,
	}), nil
}

var scalarKinds = map[schema.Scalar]TypeKind{
	schema.Bool: KindBool,
	schema.U8:   KindU8,
	schema.U16:  KindU16,
	schema.U32:  KindU32,
	schema.U64:  KindU64,
	schema.U128: KindU128,
	schema.S8:   KindS8,
	schema.S16:  KindS16,
	schema.S32:  KindS32,
	schema.S64:  KindS64,
	schema.S128: KindS128,
	schema.F32:  KindF32,
	schema.F64:  KindF64,
	schema.Char: KindChar,
}

// finish derives the codec and fallibility flags from the finished node.
func finish(ct *CompiledType) *CompiledType {
	ct.HasCodec = !ct.HasUnion()
	ct.Fallible = !ct.IsPure()
	return ct
}

// findGoField matches an explicit wire:"name" tag first. Only fields without
// a tag name are then matched case-insensitively or by the kebab or snake
// case of their Go name.
func findGoField(goType reflect.Type, wireName string) (reflect.StructField, bool) {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() || field.Name == "_" {
			continue
		}
		if tagName(field) == wireName {
			return field, true
		}
	}

	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() || field.Name == "_" || tagName(field) != "" {
			continue
		}

		if strings.EqualFold(field.Name, wireName) {
			return field, true
		}

		kebab := toKebabCase(field.Name)
		if kebab == wireName || strings.ReplaceAll(kebab, "-", "_") == wireName {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func tagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get(schema.WireTag), ",")
	return name
}

// bindGoField resolves wireName to a Go field index that no other member of
// the same aggregate has claimed.
func bindGoField(goType reflect.Type, wireName string, bound map[int]string, path []string) (reflect.StructField, error) {
	sf, found := findGoField(goType, wireName)
	if !found {
		return sf, errors.FieldMissing(errors.PhaseCompile, path, wireName)
	}
	if prev, taken := bound[sf.Index[0]]; taken {
		return sf, errors.New(errors.PhaseCompile, errors.KindDuplicateField).
			Path(path...).
			GoType(goType.String()).
			Detail("%q and %q both bind to Go field %s", prev, wireName, sf.Name).
			Build()
	}
	bound[sf.Index[0]] = wireName
	return sf, nil
}

// exportedFields lists the struct fields that bind positionally.
func exportedFields(goType reflect.Type) []int {
	var idx []int
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() || field.Name == "_" {
			continue
		}
		if tagName(field) == "-" {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func toKebabCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteByte('-')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
