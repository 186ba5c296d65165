package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thebagchi/binschema/lib/stream"
	"github.com/thebagchi/binschema/schema"
)

func TestCCSDSHeaderRoundTrip(t *testing.T) {
	src := `u3: version; u1: packet_type; u1: secondary_header; u11: apid;`
	s, err := schema.Parse(src)
	require.NoError(t, err)
	prog, err := Compile(s, NewRegistry())
	require.NoError(t, err)

	out := stream.New()
	rec := NewRecord()
	rec.Set("version", int64(0))
	rec.Set("packet_type", int64(0))
	rec.Set("secondary_header", int64(1))
	rec.Set("apid", int64(6))
	require.NoError(t, prog.Put(out, rec))
	require.Equal(t, []byte{0x08, 0x06}, stream.Bytes(out))

	in := stream.NewReader([]byte{0x08, 0x06})
	got, err := prog.Get(in)
	require.NoError(t, err)
	assertIntField(t, got, "version", 0)
	assertIntField(t, got, "packet_type", 0)
	assertIntField(t, got, "secondary_header", 1)
	assertIntField(t, got, "apid", 6)
}

func assertIntField(t *testing.T, rec *Record, name string, want int64) {
	t.Helper()
	v, ok := rec.Get(name)
	require.Truef(t, ok, "field %q missing from record", name)
	got, ok := v.(int64)
	require.Truef(t, ok, "field %q is %T, not int64", name, v)
	require.Equalf(t, want, got, "field %q", name)
}
