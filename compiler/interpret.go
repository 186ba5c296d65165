package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thebagchi/binschema/internal/tracelog"
	"github.com/thebagchi/binschema/lib/bitbuffer"
	"github.com/thebagchi/binschema/lib/stream"
	"github.com/thebagchi/binschema/schema"
)

// Get reads a record from s according to the compiled Program, per
// SPEC_FULL.md section 4.3's field-codec emitter rules realized as an
// interpreter walk over Fields (SPEC_FULL.md section 9's strategy
// choice (b)). extra supplies the schema's extra parameter values, in
// declaration order.
func (p *Program) Get(s stream.Stream, extra ...int64) (*Record, error) {
	tracelog.Enter("Program.Get", logrus.Fields{"fields": len(p.Fields)})
	rec := NewRecord()
	en := env{rec: rec, params: paramMap(p.Params, extra)}
	var offset uint8

	for idx := 0; idx < len(p.Fields); idx++ {
		f := p.Fields[idx]
		switch f.Multiplicity {
		case schema.Single, schema.Anonymous:
			v, err := p.readValue(s, &offset, f.Type, f.Magic, en)
			if err != nil {
				return nil, err
			}
			if f.Magic != nil {
				if err := verifyMagic(f.Name, f.Type, f.Magic, v); err != nil {
					return nil, err
				}
				v = canonicalMagicValue(f.Magic)
			}
			if f.FieldIndex >= 0 {
				rec.Set(f.Name, v)
			}

		case schema.SequenceExplicit:
			count, err := f.CountExpr.Eval(en)
			if err != nil {
				return nil, err
			}
			seq := make([]interface{}, 0, count)
			for k := int64(0); k < count; k++ {
				v, err := p.readValue(s, &offset, f.Type, nil, en)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			rec.Set(f.Name, seq)

		case schema.SequenceOpen:
			term := p.Fields[idx+1]
			var seq []interface{}
			for {
				match, err := peekMagicAt(s, offset, term)
				if err != nil {
					return nil, err
				}
				if match {
					tracelog.Event("Program.Get", "open sequence terminated", logrus.Fields{"field": f.Name, "count": len(seq)})
					break
				}
				v, err := p.readValue(s, &offset, f.Type, nil, en)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			rec.Set(f.Name, seq)
		}
	}
	if offset != 0 {
		// The record ends mid-byte: step past that final partial byte,
		// which Put pads with zero bits.
		s.SetPosition(s.GetPosition() + 1)
	}
	tracelog.Exit("Program.Get", logrus.Fields{"names": len(rec.Names())})
	return rec, nil
}

// Put writes rec to s according to the compiled Program, mirroring Get
// field for field and using a fresh bitbuffer.Accumulator as the
// per-call "shared temporary" for sub-byte fields, per SPEC_FULL.md
// section 4.3/4.4's write-side state machine.
func (p *Program) Put(s stream.Stream, rec *Record, extra ...int64) error {
	tracelog.Enter("Program.Put", logrus.Fields{"fields": len(p.Fields)})
	acc := bitbuffer.New()
	en := env{rec: rec, params: paramMap(p.Params, extra)}
	var offset uint8

	for _, f := range p.Fields {
		switch f.Multiplicity {
		case schema.Single, schema.Anonymous:
			value, err := p.valueForWrite(rec, f)
			if err != nil {
				return err
			}
			if err := p.writeValue(acc, s, &offset, f.Type, f.Magic, f.Name, value, en); err != nil {
				return err
			}

		case schema.SequenceExplicit:
			seq, err := sequenceValue(rec, f.Name)
			if err != nil {
				return err
			}
			for _, elem := range seq {
				if err := p.writeValue(acc, s, &offset, f.Type, nil, f.Name, elem, en); err != nil {
					return err
				}
			}

		case schema.SequenceOpen:
			seq, err := sequenceValue(rec, f.Name)
			if err != nil {
				return err
			}
			for _, elem := range seq {
				if err := p.writeValue(acc, s, &offset, f.Type, nil, f.Name, elem, en); err != nil {
					return err
				}
			}
		}
	}
	if acc.Pending() {
		// Flush the trailing partial byte; its unused low-order bits are zero.
		if err := s.WriteBytes(acc.Buff); err != nil {
			return err
		}
	}
	tracelog.Exit("Program.Put", logrus.Fields{})
	return nil
}

func (p *Program) valueForWrite(rec *Record, f CompiledField) (interface{}, error) {
	if f.Magic != nil {
		return canonicalMagicValue(f.Magic), nil
	}
	if f.FieldIndex >= 0 {
		v, ok := rec.Get(f.Name)
		if !ok {
			return nil, fmt.Errorf("binschema: missing value for field %q", f.Name)
		}
		return v, nil
	}
	return zeroValueFor(f.Type), nil
}

func sequenceValue(rec *Record, name string) ([]interface{}, error) {
	v, ok := rec.Get(name)
	if !ok {
		return nil, fmt.Errorf("binschema: missing value for sequence %q", name)
	}
	seq, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("binschema: field %q is not a sequence", name)
	}
	return seq, nil
}

// readValue is the field-codec emitter's read branch dispatch
// (SPEC_FULL.md section 4.3). When magic is a string literal, the
// field is read as exactly len(literal) bytes regardless of its
// nominal type, per SPEC_FULL.md section 3's "a magic string's size is
// inferred from the literal's length" rule.
func (p *Program) readValue(s stream.Stream, offset *uint8, rt ResolvedType, magic *schema.Magic, e env) (interface{}, error) {
	if magic != nil && magic.IsString {
		if *offset != 0 {
			return nil, fmt.Errorf("binschema: magic string field requires byte alignment, at offset %d", *offset)
		}
		n := len(magic.StrVal)
		data, err := s.ReadBytes(n)
		if err != nil {
			return nil, ioErr(s, n, err)
		}
		return string(data), nil
	}

	switch rt.Kind {
	case schema.TypeSigned, schema.TypeUnsigned:
		return readInt(s, offset, rt.Bits, rt.Signed)
	case schema.TypeFloat32:
		return readFloat32(s, offset)
	case schema.TypeFloat64:
		return readFloat64(s, offset)
	case schema.TypeNulString:
		return readNulString(s, offset)
	case schema.TypeFixedString:
		if *offset != 0 {
			return nil, fmt.Errorf("binschema: fixed string field requires byte alignment, at offset %d", *offset)
		}
		return readFixedString(s, rt.ByteLen)
	case schema.TypeCustom:
		if *offset != 0 {
			return nil, fmt.Errorf("binschema: custom sub-parser field requires byte alignment, at offset %d", *offset)
		}
		codec, ok := p.Registry.Lookup(rt.CustomName)
		if !ok {
			return nil, fmt.Errorf("binschema: no custom codec registered for %q", rt.CustomName)
		}
		args, err := evalArgs(rt.CustomArgs, e)
		if err != nil {
			return nil, err
		}
		return codec.Get(s, args...)
	default:
		return nil, fmt.Errorf("binschema: unsupported type kind %v", rt.Kind)
	}
}

// writeValue is the field-codec emitter's write branch dispatch.
func (p *Program) writeValue(acc *bitbuffer.Accumulator, s stream.Stream, offset *uint8, rt ResolvedType, magic *schema.Magic, fieldName string, value interface{}, e env) error {
	if magic != nil && magic.IsString {
		if acc.Pending() {
			return fmt.Errorf("binschema: magic string field %q requires byte alignment", fieldName)
		}
		return s.WriteBytes([]byte(magic.StrVal))
	}

	switch rt.Kind {
	case schema.TypeSigned, schema.TypeUnsigned:
		iv, err := toInt64Value(value)
		if err != nil {
			return err
		}
		if magic != nil {
			iv = int64(magic.IntVal)
		}
		if err := writeInt(acc, s, rt.Bits, iv); err != nil {
			return err
		}
		*offset = uint8((int(*offset) + rt.Bits) % 8)
		return nil
	case schema.TypeFloat32:
		f32, _ := value.(float32)
		return writeFloat32(acc, s, f32)
	case schema.TypeFloat64:
		f64, _ := value.(float64)
		return writeFloat64(acc, s, f64)
	case schema.TypeNulString:
		str, _ := value.(string)
		if *offset != 0 {
			return fmt.Errorf("binschema: string field %q requires byte alignment", fieldName)
		}
		return writeNulString(acc, s, str)
	case schema.TypeFixedString:
		if acc.Pending() {
			return fmt.Errorf("binschema: string field %q requires byte alignment", fieldName)
		}
		str, _ := value.(string)
		return writeFixedString(s, fieldName, rt.ByteLen, str)
	case schema.TypeCustom:
		if acc.Pending() {
			return fmt.Errorf("binschema: custom sub-parser field %q requires byte alignment", fieldName)
		}
		codec, ok := p.Registry.Lookup(rt.CustomName)
		if !ok {
			return fmt.Errorf("binschema: no custom codec registered for %q", rt.CustomName)
		}
		args, err := evalArgs(rt.CustomArgs, e)
		if err != nil {
			return err
		}
		return codec.Put(s, value, args...)
	default:
		return fmt.Errorf("binschema: unsupported type kind %v", rt.Kind)
	}
}

// readInt implements SPEC_FULL.md section 4.3's whole-byte and
// sub-byte/cross-byte integer read rules uniformly via the layout
// planner: at offset 0 with a byte-multiple width, Compute naturally
// degenerates to the simple aligned case.
func readInt(s stream.Stream, offset *uint8, bits int, signed bool) (int64, error) {
	layout := Compute(uint8(bits), *offset)
	var data []byte
	var err error
	if layout.ReadBytes == layout.SkipBytes {
		data, err = s.ReadBytes(int(layout.ReadBytes))
	} else {
		data, err = s.PeekBytes(int(layout.ReadBytes))
		if err == nil {
			s.SetPosition(s.GetPosition() + int(layout.SkipBytes))
		}
	}
	if err != nil {
		return 0, ioErr(s, int(layout.ReadBytes), err)
	}
	value := extractField(data, layout)
	*offset = uint8((int(*offset) + bits) % 8)
	if bits%8 == 0 && signed {
		return signExtend(value, bits), nil
	}
	return int64(value), nil
}

func writeInt(acc *bitbuffer.Accumulator, w stream.Stream, bits int, value int64) error {
	if err := acc.Write(uint8(bits), uint64(value)&mask(uint8(bits))); err != nil {
		return err
	}
	if complete := acc.DrainComplete(); complete != nil {
		return w.WriteBytes(complete)
	}
	return nil
}

func readFloat32(s stream.Stream, offset *uint8) (float32, error) {
	v, err := readInt(s, offset, 32, false)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func writeFloat32(acc *bitbuffer.Accumulator, w stream.Stream, v float32) error {
	return writeInt(acc, w, 32, int64(math.Float32bits(v)))
}

func readFloat64(s stream.Stream, offset *uint8) (float64, error) {
	v, err := readInt(s, offset, 64, false)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func writeFloat64(acc *bitbuffer.Accumulator, w stream.Stream, v float64) error {
	return writeInt(acc, w, 64, int64(math.Float64bits(v)))
}

func readNulString(s stream.Stream, offset *uint8) (string, error) {
	if *offset != 0 {
		return "", fmt.Errorf("binschema: string field requires byte alignment, at offset %d", *offset)
	}
	var buf []byte
	for {
		c, err := s.ReadChar()
		if err != nil {
			return "", ioErr(s, 1, err)
		}
		if c == 0 {
			break
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}

func writeNulString(acc *bitbuffer.Accumulator, w stream.Stream, value string) error {
	for _, c := range []byte(value) {
		if err := writeInt(acc, w, 8, int64(c)); err != nil {
			return err
		}
	}
	return writeInt(acc, w, 8, 0)
}

func readFixedString(s stream.Stream, n int) (string, error) {
	data, err := s.ReadBytes(n)
	if err != nil {
		return "", ioErr(s, n, err)
	}
	return string(data), nil
}

func writeFixedString(w stream.Stream, fieldName string, declared int, value string) error {
	if len(value) != declared {
		return &LengthMismatchError{Field: fieldName, Expected: declared, Actual: len(value)}
	}
	return w.WriteBytes([]byte(value))
}

// peekMagicAt checks, without advancing the stream, whether the bytes
// at the current cursor match term's magic literal at the given bit
// offset — the open-sequence termination predicate of SPEC_FULL.md
// section 4.4/4.5.
func peekMagicAt(s stream.Stream, offset uint8, term CompiledField) (bool, error) {
	if term.Magic.IsString {
		n := len(term.Magic.StrVal)
		data, err := s.PeekBytes(n)
		if err != nil {
			return false, ioErr(s, n, err)
		}
		return string(data) == term.Magic.StrVal, nil
	}
	layout := Compute(uint8(term.Type.Bits), offset)
	data, err := s.PeekBytes(int(layout.ReadBytes))
	if err != nil {
		return false, ioErr(s, int(layout.ReadBytes), err)
	}
	value := extractField(data, layout)
	return value == (term.Magic.IntVal & mask(uint8(term.Type.Bits))), nil
}

func verifyMagic(name string, rt ResolvedType, magic *schema.Magic, observed interface{}) error {
	if magic.IsString {
		obs, _ := observed.(string)
		if obs != magic.StrVal {
			return &MagicMismatchError{Field: name, IsString: true, ExpectedStr: magic.StrVal, ObservedStr: obs}
		}
		return nil
	}
	obsInt, err := toInt64Value(observed)
	if err != nil {
		return err
	}
	return checkMagicInt(name, rt.Bits, magic.IntVal, obsInt)
}

func checkMagicInt(name string, bits int, literal uint64, observed int64) error {
	lit := literal & mask(uint8(bits))
	obs := uint64(observed) & mask(uint8(bits))
	if lit != obs {
		return &MagicMismatchError{Field: name, BitWidth: bits, ExpectedInt: lit, ObservedInt: obs}
	}
	return nil
}

func canonicalMagicValue(magic *schema.Magic) interface{} {
	if magic.IsString {
		return magic.StrVal
	}
	return int64(magic.IntVal)
}

func zeroValueFor(rt ResolvedType) interface{} {
	switch rt.Kind {
	case schema.TypeFloat32:
		return float32(0)
	case schema.TypeFloat64:
		return float64(0)
	case schema.TypeNulString:
		return ""
	case schema.TypeFixedString:
		return strings.Repeat("\x00", rt.ByteLen)
	default:
		return int64(0)
	}
}

func toInt64Value(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("binschema: expected integer value, got %T", v)
	}
}

func evalArgs(exprs []schema.Expr, e env) ([]int64, error) {
	out := make([]int64, len(exprs))
	for i, x := range exprs {
		v, err := x.Eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// extractField applies l's shift and mask to the bytes read for one
// field. A field that spans nine bytes (size+offset > 64) does not fit
// one uint64, so its leading byte is folded in separately.
func extractField(data []byte, l Layout) uint64 {
	if len(data) <= 8 {
		return (bytesToUint64(data) >> l.Shift) & l.Mask
	}
	lo := bytesToUint64(data[1:])
	return ((lo >> l.Shift) | (uint64(data[0]) << (64 - l.Shift))) & l.Mask
}

func signExtend(v uint64, bits int) int64 {
	shift := uint(64 - bits)
	return int64(v<<shift) >> shift
}

func ioErr(s stream.Stream, requested int, err error) error {
	return &IOError{Requested: requested, Position: s.GetPosition(), Err: err}
}

func paramMap(params []schema.Param, extra []int64) map[string]int64 {
	m := make(map[string]int64, len(params))
	for i, p := range params {
		if i < len(extra) {
			m[p.Name] = extra[i]
		} else {
			m[p.Name] = 0
		}
	}
	return m
}
