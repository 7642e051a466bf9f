package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/wirelayout/endian"
	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/text"
)

const yamlDoc = `
aggregates:
  - name: Frame
    order: be
    layout: packed
    fields:
      - {name: magic, type: "byte[4]"}
      - {name: header, type: Header}
      - {name: cmd, type: Command}
  - name: Header
    order: le
    fields:
      - {name: len, type: u32, order: be}
      - {name: samples, type: "u16[3]"}
      - {name: title, type: string, text: "utf16,units=4,pad=space"}
  - name: Command
    kind: enum
    order: be
    tag: 1
    derive: [Debug]
    variants:
      - {name: Ping, disc: 1}
      - name: Data
        disc: 2
        fields:
          - {name: len, type: u16}
      - name: Named
        disc: 3
        tuple: [string, u16]
        text: {"0": "utf8,units=8,pad=null"}
`

const jsoncDoc = `{
  // wire header
  "aggregates": [
    {
      "name": "Point",
      "order": "little_endian",
      "fields": [
        {"name": "x", "type": "s32"},
        {"name": "y", "type": "s32"}, /* trailing comma next */
      ],
    },
  ],
}`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	aggs, err := doc.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(aggs) != 3 {
		t.Fatalf("got %d aggregates", len(aggs))
	}

	frame, _ := Lookup(aggs, "Frame")
	header, _ := Lookup(aggs, "Header")
	cmd, _ := Lookup(aggs, "Command")

	if frame.Layout != Packed || frame.Order != endian.Big {
		t.Errorf("Frame = %v/%v", frame.Layout, frame.Order)
	}
	if frame.Fields[1].Type.Ref != header {
		t.Error("forward reference to Header not linked")
	}
	if frame.Fields[2].Type.Ref != cmd {
		t.Error("forward reference to Command not linked")
	}

	if header.FieldOrder(&header.Fields[0]) != endian.Big {
		t.Error("len override to be lost")
	}
	if header.FieldOrder(&header.Fields[1]) != endian.Little {
		t.Error("samples should inherit le")
	}
	if d := header.Fields[2].Text; d == nil || d.Encoding != text.UTF16 || d.Pad != text.PadSpace {
		t.Errorf("title directive = %+v", d)
	}

	if cmd.Kind != Enum || cmd.TagWidth != 1 || len(cmd.Variants) != 3 {
		t.Fatalf("Command = %v tag %d, %d variants", cmd.Kind, cmd.TagWidth, len(cmd.Variants))
	}
	named := cmd.Variants[2]
	if !named.Tuple || named.Fields[0].Text == nil || named.Fields[1].Text != nil {
		t.Errorf("Named = %+v", named)
	}
	for _, v := range cmd.Variants {
		if !v.Explicit {
			t.Errorf("%s lost its discriminant", v.Name)
		}
	}
}

func TestParseJSONC(t *testing.T) {
	doc, err := ParseJSONC([]byte(jsoncDoc))
	if err != nil {
		t.Fatalf("ParseJSONC: %v", err)
	}
	aggs, err := doc.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Order != endian.Little || len(aggs[0].Fields) != 2 {
		t.Errorf("aggregates = %+v", aggs)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "frame.yaml")
	jsonPath := filepath.Join(dir, "point.jsonc")
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(jsoncDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	if aggs, err := Load(yamlPath); err != nil || len(aggs) != 3 {
		t.Errorf("Load(yaml) = %d, %v", len(aggs), err)
	}
	if aggs, err := Load(jsonPath); err != nil || len(aggs) != 1 {
		t.Errorf("Load(jsonc) = %d, %v", len(aggs), err)
	}

	txt := filepath.Join(dir, "schema.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(txt); err == nil {
		t.Error("unknown extension should fail")
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing order", `
aggregates:
  - name: A
    fields: [{name: x, type: u8}]
`},
		{"unknown type", `
aggregates:
  - name: A
    order: be
    fields: [{name: x, type: Missing}]
`},
		{"duplicate aggregate", `
aggregates:
  - {name: A, order: be, fields: [{name: x, type: u8}]}
  - {name: A, order: be, fields: [{name: x, type: u8}]}
`},
		{"bad text position", `
aggregates:
  - name: E
    kind: enum
    order: be
    tag: 1
    variants:
      - {name: V, disc: 1, tuple: [string], text: {"2": "utf8,units=4"}}
`},
		{"fields and tuple", `
aggregates:
  - name: E
    kind: enum
    order: be
    tag: 1
    variants:
      - {name: V, disc: 1, tuple: [u8], fields: [{name: x, type: u8}]}
`},
		{"bad order", `
aggregates:
  - {name: A, order: middle, fields: [{name: x, type: u8}]}
`},
		{"bad kind", `
aggregates:
  - {name: A, kind: record, order: be}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseYAML: %v", err)
			}
			if _, err := doc.Resolve(); !errors.IsSchema(err) {
				t.Errorf("Resolve() = %v, want schema error", err)
			}
		})
	}

	if _, err := ParseYAML([]byte("aggregates: [")); !errors.IsSchema(err) {
		t.Errorf("malformed yaml = %v, want parse error", err)
	}
	if _, err := ParseJSONC([]byte(`{"aggregates": 5}`)); !errors.IsSchema(err) {
		t.Errorf("malformed json = %v, want parse error", err)
	}
}
