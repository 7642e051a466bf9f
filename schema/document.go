package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
)

// Document is the on-disk schema format, authored as YAML or as JSONC (JSON
// with comments and trailing commas):
//
//	aggregates:
//	  - name: Command
//	    kind: enum
//	    order: be
//	    tag: 1
//	    variants:
//	      - {name: Ping, disc: 1}
//	      - name: Data
//	        disc: 2
//	        fields:
//	          - {name: len, type: u16}
//	      - name: Named
//	        disc: 3
//	        tuple: [string, u16]
//	        text: {"0": "utf8,units=8,pad=null"}
//
// Resolve turns a Document into validated aggregates; the document itself
// is never consulted again.
type Document struct {
	Aggregates []AggregateSpec `yaml:"aggregates" json:"aggregates"`
}

type AggregateSpec struct {
	Name     string        `yaml:"name" json:"name"`
	Kind     string        `yaml:"kind" json:"kind"`
	Order    string        `yaml:"order" json:"order"`
	Layout   string        `yaml:"layout,omitempty" json:"layout,omitempty"`
	Tag      int           `yaml:"tag,omitempty" json:"tag,omitempty"`
	Derive   []string      `yaml:"derive,omitempty" json:"derive,omitempty"`
	Fields   []FieldSpec   `yaml:"fields,omitempty" json:"fields,omitempty"`
	Variants []VariantSpec `yaml:"variants,omitempty" json:"variants,omitempty"`
}

type FieldSpec struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Order string `yaml:"order,omitempty" json:"order,omitempty"`
	Text  string `yaml:"text,omitempty" json:"text,omitempty"`
}

type VariantSpec struct {
	Disc   *uint64     `yaml:"disc,omitempty" json:"disc,omitempty"`
	Name   string      `yaml:"name" json:"name"`
	Fields []FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`
	// Tuple lists positional member types; Text attaches directives to
	// them by zero-based position.
	Tuple []string          `yaml:"tuple,omitempty" json:"tuple,omitempty"`
	Text  map[string]string `yaml:"text,omitempty" json:"text,omitempty"`
}

// ParseYAML decodes a YAML schema document.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("yaml schema", err)
	}
	return &doc, nil
}

// ParseJSONC strips comments and trailing commas, then decodes the JSON.
func ParseJSONC(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, errors.ParseFailed("jsonc schema", err)
	}
	return &doc, nil
}

// ReadFile loads a schema document, choosing the parser by extension:
// .yaml and .yml are YAML, .json and .jsonc are JSONC.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = ParseYAML(data)
	case ".json", ".jsonc":
		doc, err = ParseJSONC(data)
	default:
		return nil, errors.ParseFailed(path, fmt.Errorf("unknown schema extension %q", filepath.Ext(path)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load is ReadFile followed by Resolve.
func Load(path string) ([]*Aggregate, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Resolve()
}

// Resolve builds and validates every aggregate, linking type references by
// name. Aggregates may reference ones declared later in the document.
func (d *Document) Resolve() ([]*Aggregate, error) {
	byName := make(map[string]*Aggregate, len(d.Aggregates))
	out := make([]*Aggregate, 0, len(d.Aggregates))

	for i := range d.Aggregates {
		spec := &d.Aggregates[i]
		path := []string{spec.Name}
		if spec.Name == "" {
			return nil, errors.Schema(errors.KindInvalidData, nil, "aggregate %d has no name", i)
		}
		if _, dup := byName[spec.Name]; dup {
			return nil, errors.Schema(errors.KindDuplicateField, path, "aggregate declared twice")
		}

		kind, err := ParseAggregateKind(orDefault(spec.Kind, "struct"))
		if err != nil {
			return nil, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
		}
		if spec.Order == "" {
			return nil, errors.Schema(errors.KindInvalidDirective, path, "order is required (be or le)")
		}
		order, err := endian.ParseOrder(spec.Order)
		if err != nil {
			return nil, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
		}
		layout, err := ParseLayout(spec.Layout)
		if err != nil {
			return nil, errors.Schema(errors.KindInvalidDirective, path, "%v", err)
		}

		a := &Aggregate{
			Name:     spec.Name,
			Kind:     kind,
			Order:    order,
			Layout:   layout,
			TagWidth: spec.Tag,
			Derive:   spec.Derive,
		}
		byName[a.Name] = a
		out = append(out, a)
	}

	for i, a := range out {
		spec := &d.Aggregates[i]
		path := []string{a.Name}

		fields, err := resolveFields(path, spec.Fields, byName)
		if err != nil {
			return nil, err
		}
		a.Fields = fields

		for j, vs := range spec.Variants {
			v, err := resolveVariant(append(path, vs.Name), j, vs, byName)
			if err != nil {
				return nil, err
			}
			a.Variants = append(a.Variants, v)
		}
	}

	for _, a := range out {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func resolveVariant(path []string, index int, vs VariantSpec, byName map[string]*Aggregate) (Variant, error) {
	v := Variant{Name: vs.Name, Discriminant: uint64(index)}
	if vs.Disc != nil {
		v.Discriminant = *vs.Disc
		v.Explicit = true
	}

	if len(vs.Tuple) > 0 {
		if len(vs.Fields) > 0 {
			return v, errors.Schema(errors.KindInvalidData, path, "variant declares both fields and tuple members")
		}
		v.Tuple = true
		specs := make([]FieldSpec, len(vs.Tuple))
		for i, ts := range vs.Tuple {
			specs[i] = FieldSpec{Type: ts, Text: vs.Text[strconv.Itoa(i)]}
		}
		for key := range vs.Text {
			pos, err := strconv.Atoi(key)
			if err != nil || pos < 0 || pos >= len(vs.Tuple) {
				return v, errors.Schema(errors.KindInvalidDirective, path,
					"text directive for position %q, variant has %d members", key, len(vs.Tuple))
			}
		}
		fields, err := resolveFields(path, specs, byName)
		if err != nil {
			return v, err
		}
		v.Fields = fields
		return v, nil
	}

	if len(vs.Text) > 0 {
		return v, errors.Schema(errors.KindInvalidDirective, path, "positional text directives need tuple members")
	}
	fields, err := resolveFields(path, vs.Fields, byName)
	if err != nil {
		return v, err
	}
	v.Fields = fields
	return v, nil
}

func resolveFields(path []string, specs []FieldSpec, byName map[string]*Aggregate) ([]Field, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	fields := make([]Field, 0, len(specs))
	for i, fs := range specs {
		label := fs.Name
		if label == "" {
			label = strconv.Itoa(i)
		}
		fp := append(append([]string{}, path...), label)

		t, err := ParseType(fs.Type)
		if err != nil {
			return nil, errors.Schema(errors.KindInvalidData, fp, "%v", err)
		}
		if err := link(t, byName, fp); err != nil {
			return nil, err
		}

		f := Field{Name: fs.Name, Type: t}
		if fs.Order != "" {
			o, err := endian.ParseOrder(fs.Order)
			if err != nil {
				return nil, errors.Schema(errors.KindInvalidDirective, fp, "%v", err)
			}
			f.Order = &o
		}
		if fs.Text != "" {
			dir, err := ParseTextDirective(fs.Text)
			if err != nil {
				return nil, errors.Schema(errors.KindInvalidDirective, fp, "%v", err)
			}
			f.Text = &dir
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func link(t *Type, byName map[string]*Aggregate, path []string) error {
	switch t.Kind {
	case TypeArray:
		return link(t.Elem, byName, path)
	case TypeRef:
		ref, ok := byName[t.Name]
		if !ok {
			return errors.Schema(errors.KindFieldMissing, path, "unknown type %q", t.Name)
		}
		t.Ref = ref
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Lookup returns the aggregate with the given name.
func Lookup(aggs []*Aggregate, name string) (*Aggregate, bool) {
	for _, a := range aggs {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
