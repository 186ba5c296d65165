package compiler

import (
	"fmt"

	"github.com/thebagchi/binschema/lib/stream"
	"github.com/thebagchi/binschema/schema"
)

// listCodecSchema is ListCodec's own inner schema: a length byte
// followed by n*size raw bytes. It is compiled with this same
// package's Parse/Compile, demonstrating that a custom sub-parser is
// every bit as much a schema-compiler client as the top-level record
// it is embedded in.
const listCodecSchema = `
param u8 size;
u8: n;
u8: data[n*size];
`

// ListCodec is a worked example CustomCodec (the "*list(size)"
// reference of SPEC_FULL.md section 8's concrete scenarios): it reads
// a one-byte count n followed by n*size one-byte elements, where size
// is forwarded from whatever field the embedding schema names as the
// custom call's argument. Changing that outer field changes the
// argument ListCodec receives on the very next Get/Put, on both the
// read and write side, which is the "argument forwarding" behavior the
// scenario requires.
type ListCodec struct {
	inner *Program
}

// NewListCodec compiles listCodecSchema once and returns a ready
// CustomCodec. Compile errors here indicate a bug in listCodecSchema
// itself, not in any caller's schema.
func NewListCodec() (*ListCodec, error) {
	s, err := schema.Parse(listCodecSchema)
	if err != nil {
		return nil, fmt.Errorf("binschema: list codec: %w", err)
	}
	prog, err := Compile(s, NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("binschema: list codec: %w", err)
	}
	return &ListCodec{inner: prog}, nil
}

// Get implements CustomCodec.
func (c *ListCodec) Get(s stream.Stream, args ...int64) (interface{}, error) {
	return c.inner.Get(s, argOrZero(args))
}

// Put implements CustomCodec.
func (c *ListCodec) Put(s stream.Stream, value interface{}, args ...int64) error {
	rec, ok := value.(*Record)
	if !ok {
		return fmt.Errorf("binschema: list codec expects a *Record value, got %T", value)
	}
	return c.inner.Put(s, rec, argOrZero(args))
}

func argOrZero(args []int64) int64 {
	if len(args) == 0 {
		return 0
	}
	return args[0]
}
