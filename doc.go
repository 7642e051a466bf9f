// Package wirelayout describes binary wire formats once and derives their
// byte-order-explicit layout, conversions and stream codec.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wirelayout/          Root package with the Source and Sink stream boundary
//	├── schema/          Logical type descriptions: builder, struct tags,
//	│                    YAML/JSONC documents and WIT import
//	├── transcoder/      Schema compiler, wire values, conversions and codec
//	├── endian/          Fixed-width scalar load/store in an explicit order
//	├── text/            Fixed code-unit text buffers with padding
//	├── errors/          Structured error types
//	└── cmd/wirec/       Layout inspection CLI
//
// # Quick Start
//
// Describe a type with struct tags and move it across a stream:
//
//	type Header struct {
//		_     struct{} `wire:"struct,order=be"`
//		Magic [4]byte
//		Len   uint16
//		Name  string `text:"utf16,units=8,pad=space"`
//	}
//
//	var buf bytes.Buffer
//	err := transcoder.WriteValue(&buf, &Header{Magic: [4]byte{'W', 'L', 'T', '1'}, Len: 3, Name: "hdr"})
//
//	var h Header
//	err = transcoder.ReadValue(&buf, &h)
//
// # Byte-Stream Boundary
//
// The codec reads and writes through Source and Sink. NewSource and NewSink
// adapt any io.Reader or io.Writer; short reads surface as IO errors that
// wrap the reader's error, so errors.Is(err, io.ErrUnexpectedEOF) holds.
package wirelayout
