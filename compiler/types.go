// Package compiler implements the schema compiler: the component that
// walks a parsed schema.Schema and produces a Program — the compiled
// intermediate representation that Program.Get and Program.Put
// interpret against a stream to read and write records. See
// SPEC_FULL.md section 4 for the component breakdown this package
// realizes (type decoder, bit-layout planner, field-codec emitter,
// schema compiler, sequence synthesizer).
package compiler

import (
	"fmt"

	"github.com/thebagchi/binschema/schema"
)

// Container names the machine-word family a resolved field's value is
// held in, per SPEC_FULL.md's GLOSSARY entry for "Container". Signed
// sub-byte fields are not sign-extended (see DESIGN.md's Open Question
// resolution); Container here is descriptive metadata, not a promise
// about numeric interpretation.
type Container int

const (
	ContainerNone Container = iota
	ContainerInt
	ContainerFloat32
	ContainerFloat64
	ContainerString
	ContainerCustom
)

// ResolvedType is the output of the type decoder (SPEC_FULL.md section
// 4.1; decodeType below): a type-token resolved to its bit
// width and container, with custom-codec references carried through
// for the schema compiler to bind against a Registry.
type ResolvedType struct {
	Kind       schema.TypeKind
	Bits       int // bit width for integers; 8*ByteLen for fixed strings; 0 for NUL strings/custom
	ByteLen    int // byte count for fixed strings
	Signed     bool
	Container  Container
	CustomName string
	CustomArgs []schema.Expr
}

// decodeType implements SPEC_FULL.md section 4.1's type decoder rules.
func decodeType(t schema.Type) (ResolvedType, error) {
	switch t.Kind {
	case schema.TypeSigned:
		if t.Bits <= 0 || t.Bits > 64 {
			return ResolvedType{}, fmt.Errorf("compiler: signed integer width %d at position %d out of range 1..64", t.Bits, t.Pos)
		}
		return ResolvedType{Kind: t.Kind, Bits: t.Bits, Signed: true, Container: ContainerInt}, nil
	case schema.TypeUnsigned:
		if t.Bits <= 0 || t.Bits > 64 {
			return ResolvedType{}, fmt.Errorf("compiler: unsigned integer width %d at position %d out of range 1..64", t.Bits, t.Pos)
		}
		return ResolvedType{Kind: t.Kind, Bits: t.Bits, Signed: false, Container: ContainerInt}, nil
	case schema.TypeFloat32:
		return ResolvedType{Kind: t.Kind, Bits: 32, Container: ContainerFloat32}, nil
	case schema.TypeFloat64:
		return ResolvedType{Kind: t.Kind, Bits: 64, Container: ContainerFloat64}, nil
	case schema.TypeNulString:
		return ResolvedType{Kind: t.Kind, Bits: 0, Container: ContainerString}, nil
	case schema.TypeFixedString:
		if t.ByteLen <= 0 {
			return ResolvedType{}, fmt.Errorf("compiler: fixed string length %d at position %d must be positive", t.ByteLen, t.Pos)
		}
		return ResolvedType{Kind: t.Kind, Bits: t.ByteLen * 8, ByteLen: t.ByteLen, Container: ContainerString}, nil
	case schema.TypeCustom:
		return ResolvedType{Kind: t.Kind, Container: ContainerCustom, CustomName: t.CustomName, CustomArgs: t.CustomArgs}, nil
	default:
		return ResolvedType{}, fmt.Errorf("compiler: unknown type kind %v at position %d", t.Kind, t.Pos)
	}
}
