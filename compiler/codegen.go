package compiler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/thebagchi/binschema/schema"
)

// GenerateGo renders a compiled Program as diagnostic Go source: a
// struct mirroring the record's named fields, annotated with each
// field's wire shape. It is not wired into Get/Put — this
// implementation interprets a *Program directly (SPEC_FULL.md section
// 9's strategy choice) — and exists purely so a schema author can
// inspect what a field-by-field struct rendering of their record would
// look like, the way serialexp-binschema's go/codegen package and
// pargus's Arduino C++ generator render a schema as source for human
// inspection rather than as the thing actually executed.
//
// GenerateGo is never called by Get, Put, or Compile; callers opt in
// explicitly (see cmd/binschemac's --emit-go flag).
func GenerateGo(p *Program, typeName string) (string, error) {
	if typeName == "" {
		typeName = "Record"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by binschemac --emit-go. DO NOT EDIT.\n")
	fmt.Fprintf(&buf, "// %s is a diagnostic rendering; Get/Put of the originating\n", typeName)
	fmt.Fprintf(&buf, "// Program interpret the compiled field list directly and do not\n")
	fmt.Fprintf(&buf, "// use this type.\n")
	fmt.Fprintf(&buf, "type %s struct {\n", typeName)

	named := map[string]CompiledField{}
	for _, f := range p.Fields {
		if f.FieldIndex >= 0 {
			named[f.Name] = f
		}
	}
	for _, name := range p.FieldNames {
		f, ok := named[name]
		if !ok {
			continue
		}
		goType := goTypeFor(f)
		fmt.Fprintf(&buf, "\t%s %s // %s\n", exportName(name), goType, describeField(f))
	}
	fmt.Fprintf(&buf, "}\n")
	return buf.String(), nil
}

func goTypeFor(f CompiledField) string {
	base := goScalarType(f.Type)
	switch f.Multiplicity {
	case schema.SequenceExplicit, schema.SequenceOpen:
		return "[]" + base
	default:
		return base
	}
}

func goScalarType(rt ResolvedType) string {
	switch rt.Kind {
	case schema.TypeSigned:
		return "int64"
	case schema.TypeUnsigned:
		return "uint64"
	case schema.TypeFloat32:
		return "float32"
	case schema.TypeFloat64:
		return "float64"
	case schema.TypeNulString, schema.TypeFixedString:
		return "string"
	case schema.TypeCustom:
		return "interface{}"
	default:
		return "interface{}"
	}
}

func describeField(f CompiledField) string {
	switch f.Type.Kind {
	case schema.TypeSigned:
		return fmt.Sprintf("signed %d-bit", f.Type.Bits)
	case schema.TypeUnsigned:
		return fmt.Sprintf("unsigned %d-bit", f.Type.Bits)
	case schema.TypeFloat32:
		return "ieee754 32-bit"
	case schema.TypeFloat64:
		return "ieee754 64-bit"
	case schema.TypeNulString:
		return "NUL-terminated string"
	case schema.TypeFixedString:
		return fmt.Sprintf("fixed %d-byte string", f.Type.ByteLen)
	case schema.TypeCustom:
		return fmt.Sprintf("custom codec %q", f.Type.CustomName)
	default:
		return "unknown"
	}
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
