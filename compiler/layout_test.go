package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebagchi/binschema/lib/stream"
	"github.com/thebagchi/binschema/schema"
)

func TestComputeCCSDSHeaderFields(t *testing.T) {
	// version(3), packet_type(1), secondary_header(1), apid(11) packing
	// to bytes 08 06, worked field by field.
	l := Compute(3, 0)
	assert.Equal(t, uint8(1), l.ReadBytes)
	assert.Equal(t, uint8(5), l.Shift)
	assert.Equal(t, uint64(0x7), l.Mask)

	l = Compute(1, 3)
	assert.Equal(t, uint8(1), l.ReadBytes)
	assert.Equal(t, uint8(4), l.Shift)

	l = Compute(1, 4)
	assert.Equal(t, uint8(1), l.ReadBytes)
	assert.Equal(t, uint8(3), l.Shift)

	l = Compute(11, 5)
	assert.Equal(t, uint8(2), l.ReadBytes)
	assert.Equal(t, uint8(2), l.SkipBytes)
	assert.Equal(t, uint8(0), l.Shift)
	assert.Equal(t, uint64(0x7FF), l.Mask)
}

func TestComputeByteAlignedIsTrivial(t *testing.T) {
	for _, bits := range []uint8{8, 16, 24, 32, 64} {
		l := Compute(bits, 0)
		assert.Equal(t, l.ReadBytes, l.SkipBytes)
		assert.Equal(t, uint8(0), l.Shift)
	}
}

func TestComputeReadBytesNeverLessThanSkipBytes(t *testing.T) {
	for size := uint8(1); size <= 63; size++ {
		for offset := uint8(0); offset < 8; offset++ {
			l := Compute(size, offset)
			if l.ReadBytes < l.SkipBytes {
				t.Fatalf("size=%d offset=%d: read_bytes=%d < skip_bytes=%d", size, offset, l.ReadBytes, l.SkipBytes)
			}
			if int(l.SkipBytes)*8 > int(size)+int(offset) {
				t.Fatalf("size=%d offset=%d: skip_bytes=%d consumes more than entered", size, offset, l.SkipBytes)
			}
		}
	}
}

// TestRoundTripSequenceByteAccountingAcrossWidths drives an actual
// Put-then-Get round trip of a SequenceExplicit field at every element
// width 1..63, the property-sweep companion to
// TestComputeReadBytesNeverLessThanSkipBytes: that test only checks
// Compute's own arithmetic, this one checks that the interpreter
// actually lands on the wire size universal law 2 predicts
// (ceil(count*size/8) bytes) and reads back exactly what was written.
func TestRoundTripSequenceByteAccountingAcrossWidths(t *testing.T) {
	const count = 5
	for width := uint8(1); width <= 63; width++ {
		width := width
		t.Run(fmt.Sprintf("width=%d", width), func(t *testing.T) {
			s, err := schema.Parse(fmt.Sprintf("u%d: test[%d];", width, count))
			require.NoError(t, err)
			prog, err := Compile(s, NewRegistry())
			require.NoError(t, err)

			m := mask(width)
			want := make([]interface{}, count)
			for i := 0; i < count; i++ {
				want[i] = int64((uint64(i+1) * 2654435761) & m)
			}

			rec := NewRecord()
			rec.Set("test", want)

			out := stream.New()
			require.NoError(t, prog.Put(out, rec))

			wantBytes := (int(width)*count + 7) / 8
			assert.Len(t, stream.Bytes(out), wantBytes)

			in := stream.NewReader(stream.Bytes(out))
			got, err := prog.Get(in)
			require.NoError(t, err)
			seq, ok := got.Get("test")
			require.True(t, ok)
			assert.Equal(t, want, seq)
		})
	}
}

func TestCycleWholeByteWidthIsOne(t *testing.T) {
	assert.Equal(t, 1, Cycle(8))
	assert.Equal(t, 1, Cycle(16))
	assert.Equal(t, 1, Cycle(32))
}

func TestCycleSubByteWidths(t *testing.T) {
	assert.Equal(t, 8, Cycle(1))
	assert.Equal(t, 8, Cycle(3))
	assert.Equal(t, 2, Cycle(4))
	assert.Equal(t, 8, Cycle(11))
}
