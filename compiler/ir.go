package compiler

import "github.com/thebagchi/binschema/schema"

// CompiledField is the compiled form of one schema.Field, carrying
// everything Program.Get/Put need at interpretation time. Bit offsets
// are not baked in here — per SPEC_FULL.md section 9's note that
// dynamic per-iteration offset tracking is an equivalent, permitted
// alternative to static unrolling, this implementation's interpreter
// (compiler/interpret.go) tracks the running read/write offset live;
// on the read side it calls Compute fresh for every integer or float
// field and every such sequence element.
// That is what lets a dynamic-count sequence of sub-byte elements
// compose safely with whatever follows it, without the schema compiler
// needing to predict a runtime-dependent offset ahead of time.
type CompiledField struct {
	Name         string
	FieldIndex   int // position in Program.FieldNames; -1 if anonymous
	Type         ResolvedType
	Multiplicity schema.FieldMultiplicity
	CountExpr    schema.Expr
	Magic        *schema.Magic
}

// Program is the compiled intermediate representation a Get/Put pair
// interprets: the extra parameter list and the ordered compiled field
// sequence, per SPEC_FULL.md section 6's "named aggregate" surface.
type Program struct {
	Params     []schema.Param
	Fields     []CompiledField
	FieldNames []string
	Registry   *Registry
}
