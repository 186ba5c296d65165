package compiler

import "github.com/thebagchi/binschema/lib/stream"

// CustomCodec is the interface a user-supplied external sub-parser
// implements: the "black box get/put pair" referenced by a *name(args)
// type-token, per SPEC_FULL.md section 1/6. Its own schema, if any, is
// compiled independently of the schema that embeds it.
type CustomCodec interface {
	Get(s stream.Stream, args ...int64) (interface{}, error)
	Put(s stream.Stream, value interface{}, args ...int64) error
}

// Registry resolves a custom codec reference by name at compile time.
type Registry struct {
	codecs map[string]CustomCodec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{codecs: map[string]CustomCodec{}}
}

// Register binds name to codec, overwriting any prior binding.
func (r *Registry) Register(name string, codec CustomCodec) {
	r.codecs[name] = codec
}

// Lookup returns the codec bound to name, if any.
func (r *Registry) Lookup(name string) (CustomCodec, bool) {
	c, ok := r.codecs[name]
	return c, ok
}
