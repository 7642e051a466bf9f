package types

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Descriptor is the Go-independent summary of a compiled layout. Its
// canonical CBOR encoding is the input of Fingerprint.
type Descriptor struct {
	Elem          *Descriptor       `cbor:"elem,omitempty" json:"elem,omitempty" yaml:"elem,omitempty"`
	Kind          string            `cbor:"kind" json:"kind" yaml:"kind"`
	Name          string            `cbor:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty"`
	Order         string            `cbor:"order,omitempty" json:"order,omitempty" yaml:"order,omitempty"`
	Text          string            `cbor:"text,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
	Fields        []FieldDescriptor `cbor:"fields,omitempty" json:"fields,omitempty" yaml:"fields,omitempty"`
	Cases         []CaseDescriptor  `cbor:"cases,omitempty" json:"cases,omitempty" yaml:"cases,omitempty"`
	Len           int               `cbor:"len,omitempty" json:"len,omitempty" yaml:"len,omitempty"`
	Size          uint32            `cbor:"size" json:"size" yaml:"size"`
	Align         uint32            `cbor:"align" json:"align" yaml:"align"`
	TagWidth      uint32            `cbor:"tag,omitempty" json:"tag,omitempty" yaml:"tag,omitempty"`
	PayloadOffset uint32            `cbor:"payload,omitempty" json:"payload,omitempty" yaml:"payload,omitempty"`
	Packed        bool              `cbor:"packed,omitempty" json:"packed,omitempty" yaml:"packed,omitempty"`
	NoCodec       bool              `cbor:"nocodec,omitempty" json:"nocodec,omitempty" yaml:"nocodec,omitempty"`
}

type FieldDescriptor struct {
	Type   Descriptor `cbor:"type" json:"type" yaml:"type"`
	Name   string     `cbor:"name" json:"name" yaml:"name"`
	Offset uint32     `cbor:"offset" json:"offset" yaml:"offset"`
}

type CaseDescriptor struct {
	Type         *Descriptor `cbor:"type,omitempty" json:"type,omitempty" yaml:"type,omitempty"`
	Name         string      `cbor:"name" json:"name" yaml:"name"`
	Discriminant uint64      `cbor:"disc" json:"disc" yaml:"disc"`
}

// Descriptor summarises ct without its Go binding.
func (ct *CompiledType) Descriptor() Descriptor {
	d := Descriptor{
		Kind:          ct.Kind.String(),
		Name:          ct.Name,
		Len:           ct.Len,
		Size:          ct.Size,
		Align:         ct.Align,
		TagWidth:      ct.TagWidth,
		PayloadOffset: ct.PayloadOffset,
		Packed:        ct.Packed,
		NoCodec:       !ct.HasCodec,
	}
	if ct.Kind.IsScalar() || ct.Kind == KindEnum || ct.Kind == KindText {
		d.Order = ct.Order.String()
	}
	if ct.Text != nil {
		d.Text = ct.Text.String()
	}
	if ct.Elem != nil {
		elem := ct.Elem.Descriptor()
		d.Elem = &elem
	}
	for _, f := range ct.Fields {
		d.Fields = append(d.Fields, FieldDescriptor{Name: f.Name, Offset: f.Offset, Type: f.Type.Descriptor()})
	}
	for _, c := range ct.Cases {
		cd := CaseDescriptor{Name: c.Name, Discriminant: c.Discriminant}
		if c.Type != nil {
			pd := c.Type.Descriptor()
			cd.Type = &pd
		}
		d.Cases = append(d.Cases, cd)
	}
	return d
}

var canonicalCBOR = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalCanonical returns the canonical CBOR encoding of the descriptor.
func (d Descriptor) MarshalCanonical() ([]byte, error) {
	return canonicalCBOR.Marshal(d)
}

// Sum is a layout fingerprint.
type Sum [32]byte

func (s Sum) String() string {
	return hex.EncodeToString(s[:])
}

// Fingerprint is BLAKE3 over the canonical CBOR encoding of the layout
// descriptor. Equal layouts always produce equal fingerprints.
func (ct *CompiledType) Fingerprint() Sum {
	data, err := ct.Descriptor().MarshalCanonical()
	if err != nil {
		// Descriptor holds only strings, integers, bools and slices.
		panic("types: encode descriptor: " + err.Error())
	}
	return Sum(blake3.Sum256(data))
}
