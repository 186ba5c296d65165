package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.WriteBytes([]byte{1, 2, 3, 4}))
	assert.Equal(t, 4, s.Len())

	s.SetPosition(0)
	got, err := s.ReadBytes(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
	assert.Equal(t, 4, s.GetPosition())
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := NewReader([]byte{0xAA, 0xBB, 0xCC})
	peeked, err := s.PeekBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, peeked)
	assert.Equal(t, 0, s.GetPosition())

	got, err := s.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, peeked, got)
	assert.Equal(t, 2, s.GetPosition())
}

func TestReadCharAndStrings(t *testing.T) {
	s := NewReader([]byte("Hi\x00rest"))
	c, err := s.ReadChar()
	require.NoError(t, err)
	assert.Equal(t, byte('H'), c)

	peeked, err := s.PeekString(1)
	require.NoError(t, err)
	assert.Equal(t, "i", peeked)

	got, err := s.ReadString(2)
	require.NoError(t, err)
	assert.Equal(t, "i\x00", got)
}

func TestShortReadIsAnError(t *testing.T) {
	s := NewReader([]byte{1, 2, 3})
	_, err := s.ReadBytes(4)
	assert.Error(t, err)
}

func TestWriteGrowsBeyondInitialCapacity(t *testing.T) {
	s := New()
	big := make([]byte, 1000)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, s.WriteBytes(big))
	assert.Equal(t, 1000, s.Len())

	s.SetPosition(500)
	got, err := s.ReadBytes(10)
	require.NoError(t, err)
	assert.Equal(t, big[500:510], got)
}

func TestSetPositionSeeksForOverwrite(t *testing.T) {
	s := New()
	require.NoError(t, s.WriteBytes([]byte{1, 2, 3}))
	s.SetPosition(1)
	require.NoError(t, s.WriteBytes([]byte{0xFF}))
	s.SetPosition(0)
	got, err := s.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0xFF, 3}, got)
}
