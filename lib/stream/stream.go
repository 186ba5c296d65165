// Package stream provides the byte-level positional stream abstraction
// consumed by the schema compiler's generated codec routines: absolute
// cursor read/peek/write over an in-memory backing buffer.
//
// The schema compiler and its interpreter only ever deal in whole
// bytes here — sub-byte bit packing is layered on top by
// package compiler and lib/bitbuffer, exactly as called for by the
// "the stream need not know about endianness" rule in the schema this
// implementation realizes.
package stream

import (
	"errors"
	"slices"
)

// Stream is the positional byte abstraction the schema compiler's
// codec routines are generated against.
type Stream interface {
	// ReadBytes reads exactly n bytes, advancing the cursor, or
	// returns an error if fewer than n bytes remain.
	ReadBytes(n int) ([]byte, error)
	// PeekBytes reads exactly n bytes without advancing the cursor.
	PeekBytes(n int) ([]byte, error)
	// ReadChar reads a single byte, advancing the cursor.
	ReadChar() (byte, error)
	// PeekString reads n bytes without advancing and returns them as a string.
	PeekString(n int) (string, error)
	// ReadString reads n bytes, advancing, and returns them as a string.
	ReadString(n int) (string, error)
	// WriteBytes writes data at the current cursor, overwriting any bytes
	// already there and growing the buffer as needed, and advances the cursor.
	WriteBytes(data []byte) error
	// SetPosition moves the cursor to an absolute byte offset.
	SetPosition(p int)
	// GetPosition returns the current absolute byte offset.
	GetPosition() int
	// Len returns the number of bytes currently held.
	Len() int
}

// buffer is the single Stream implementation: a growable byte slice
// with an absolute cursor, usable for both reading pre-supplied input
// and accumulating written output.
type buffer struct {
	data []byte
	pos  int
}

// New creates an empty Stream ready to accept WriteBytes calls.
func New() Stream {
	return &buffer{data: make([]byte, 0, 64)}
}

// NewReader creates a Stream positioned at the start of existing data.
func NewReader(data []byte) Stream {
	return &buffer{data: data}
}

var errInsufficientData = errors.New("stream: insufficient data")

func (b *buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("stream: negative byte count")
	}
	if n == 0 {
		return []byte{}, nil
	}
	if b.pos+n > len(b.data) {
		return nil, errInsufficientData
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	b.pos += n
	return out, nil
}

func (b *buffer) PeekBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("stream: negative byte count")
	}
	if n == 0 {
		return []byte{}, nil
	}
	if b.pos+n > len(b.data) {
		return nil, errInsufficientData
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	return out, nil
}

func (b *buffer) ReadChar() (byte, error) {
	got, err := b.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return got[0], nil
}

func (b *buffer) PeekString(n int) (string, error) {
	got, err := b.PeekBytes(n)
	if err != nil {
		return "", err
	}
	return string(got), nil
}

func (b *buffer) ReadString(n int) (string, error) {
	got, err := b.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(got), nil
}

func (b *buffer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	needed := b.pos + len(data)
	if needed > cap(b.data) {
		grown := make([]byte, len(b.data), max(cap(b.data)*2, needed))
		copy(grown, b.data)
		b.data = grown
	}
	if needed > len(b.data) {
		b.data = b.data[:needed]
	}
	copy(b.data[b.pos:needed], data)
	b.pos = needed
	return nil
}

func (b *buffer) SetPosition(p int) {
	b.pos = p
}

func (b *buffer) GetPosition() int {
	return b.pos
}

func (b *buffer) Len() int {
	return len(b.data)
}

// Bytes returns the full backing buffer, regardless of cursor position.
func Bytes(s Stream) []byte {
	if bb, ok := s.(*buffer); ok {
		return slices.Clone(bb.data)
	}
	return nil
}
