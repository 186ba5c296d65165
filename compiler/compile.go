package compiler

import (
	"github.com/sirupsen/logrus"

	"github.com/thebagchi/binschema/internal/tracelog"
	"github.com/thebagchi/binschema/schema"
)

// Compile walks a parsed schema.Schema exactly once, per SPEC_FULL.md
// section 4.4, threading read/write bit offsets (to the extent they
// are statically knowable — see CompiledField's doc comment), tracking
// previously-declared names for expression resolution, and producing a
// Program. All failures here are SCHEMA_INVALID, the compile-time
// error kind of SPEC_FULL.md section 7.
func Compile(s *schema.Schema, registry *Registry) (*Program, error) {
	tracelog.Enter("Compile", logrus.Fields{"params": len(s.Params), "fields": len(s.Fields)})
	known := map[string]bool{}
	for _, p := range s.Params {
		known[p.Name] = true
	}

	var (
		fields     []CompiledField
		fieldNames []string
		offset     uint8
		offsetKnown = true
	)

	for idx, f := range s.Fields {
		rt, err := decodeType(f.Type)
		if err != nil {
			return nil, schema.Errorf(f.Pos, "%v", err)
		}
		tracelog.Event("Compile", "field walked", logrus.Fields{"name": f.Name, "mult": f.Mult, "kind": rt.Kind})

		if rt.Container == ContainerString && offsetKnown && offset != 0 {
			return nil, schema.Errorf(f.Pos, "string field %q is not admissible at bit offset %d (strings require byte alignment)", f.Name, offset)
		}

		if rt.Kind == schema.TypeCustom {
			for _, id := range schema.Identifiers(joinArgs(rt.CustomArgs)) {
				if !known[id] {
					return nil, schema.Errorf(f.Pos, "undefined identifier %q in arguments to %q", id, rt.CustomName)
				}
			}
		}

		switch f.Mult {
		case schema.Single, schema.Anonymous:
			cf := CompiledField{Type: rt, Magic: f.Magic, Multiplicity: f.Mult, FieldIndex: -1}
			if f.Mult == schema.Single {
				if known[f.Name] {
					return nil, schema.Errorf(f.Pos, "duplicate field name %q", f.Name)
				}
				known[f.Name] = true
				cf.Name = f.Name
				cf.FieldIndex = len(fieldNames)
				fieldNames = append(fieldNames, f.Name)
			}
			fields = append(fields, cf)
			advanceSingle(&offset, &offsetKnown, rt)

		case schema.SequenceExplicit:
			if known[f.Name] {
				return nil, schema.Errorf(f.Pos, "duplicate field name %q", f.Name)
			}
			for _, id := range schema.Identifiers(f.CountExpr) {
				if !known[id] {
					return nil, schema.Errorf(f.Pos, "undefined identifier %q in count expression for %q", id, f.Name)
				}
			}
			known[f.Name] = true
			cf := CompiledField{
				Name: f.Name, FieldIndex: len(fieldNames), Type: rt,
				Multiplicity: f.Mult, CountExpr: f.CountExpr,
			}
			fieldNames = append(fieldNames, f.Name)
			fields = append(fields, cf)
			advanceSequence(&offset, &offsetKnown, rt)

		case schema.SequenceOpen:
			if idx+1 >= len(s.Fields) || s.Fields[idx+1].Magic == nil {
				return nil, schema.Errorf(f.Pos, "open sequence %q must be immediately followed by a magic-checked field", f.Name)
			}
			if known[f.Name] {
				return nil, schema.Errorf(f.Pos, "duplicate field name %q", f.Name)
			}
			known[f.Name] = true
			cf := CompiledField{
				Name: f.Name, FieldIndex: len(fieldNames), Type: rt,
				Multiplicity: f.Mult,
			}
			fieldNames = append(fieldNames, f.Name)
			fields = append(fields, cf)
			advanceSequence(&offset, &offsetKnown, rt)
		}
	}

	tracelog.Exit("Compile", logrus.Fields{"fields": len(fields)})
	return &Program{Params: s.Params, Fields: fields, FieldNames: fieldNames, Registry: registry}, nil
}

// advanceSingle updates the statically-tracked bit offset after one
// occurrence of a non-sequence field, when that is still possible to
// know at compile time.
func advanceSingle(offset *uint8, known *bool, rt ResolvedType) {
	if !*known {
		return
	}
	switch rt.Kind {
	case schema.TypeSigned, schema.TypeUnsigned, schema.TypeFloat32, schema.TypeFloat64:
		*offset = uint8((int(*offset) + rt.Bits) % 8)
	default:
		// Strings (NUL or fixed) and custom sub-parsers are always
		// byte-aligned on entry and exit in this implementation.
		*offset = 0
	}
}

// advanceSequence updates the statically-tracked bit offset after a
// sequence field whose element count is only known at run time. If the
// element width is not a multiple of 8 bits, the exit offset genuinely
// depends on the run-time count, so further static offset tracking is
// abandoned (offsetKnown becomes false) rather than guessed; the
// interpreter still tracks the real offset dynamically at run time
// (CompiledField's doc comment), this only concerns the compiler's own
// best-effort "strings need byte alignment" static check.
func advanceSequence(offset *uint8, known *bool, rt ResolvedType) {
	if !*known {
		return
	}
	switch rt.Kind {
	case schema.TypeSigned, schema.TypeUnsigned, schema.TypeFloat32, schema.TypeFloat64:
		if rt.Bits%8 == 0 {
			return
		}
		*known = false
	default:
		*offset = 0
	}
}

// joinArgs adapts a slice of argument expressions into one synthetic
// expression so schema.Identifiers (which walks a single Expr tree)
// can be reused to collect identifiers across every argument.
func joinArgs(args []schema.Expr) schema.Expr {
	if len(args) == 0 {
		return schema.IntLit{}
	}
	e := args[0]
	for _, a := range args[1:] {
		e = schema.BinOp{Op: '+', Left: e, Right: a}
	}
	return e
}
