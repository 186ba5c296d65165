package compiler

import (
	"github.com/sirupsen/logrus"

	"github.com/thebagchi/binschema/internal/tracelog"
)

// Layout is the per-field layout record of SPEC_FULL.md section 3,
// computed from a field's bit width and its entry offset within the
// current byte (0-7). The interpreter's read side uses it; the write
// side packs bits through lib/bitbuffer.Accumulator instead. Compute is
// a pure function with no stream dependency, independently testable
// against the boundary behaviors SPEC_FULL.md section 8 names.
type Layout struct {
	Size      uint8
	ReadBytes uint8
	SkipBytes uint8
	Shift     uint8
	Mask      uint64
}

// Compute implements the read_bytes/skip_bytes/shift/mask formula.
func Compute(size uint8, offset uint8) Layout {
	readBytes := (int(size) + int(offset) + 7) / 8
	skipBytes := (int(size) + int(offset)) / 8
	shift := readBytes*8 - int(size) - int(offset)
	if shift < 0 {
		shift += 8
		readBytes++
	}
	l := Layout{
		Size:      size,
		ReadBytes: uint8(readBytes),
		SkipBytes: uint8(skipBytes),
		Shift:     uint8(shift),
		Mask:      mask(size),
	}
	tracelog.Event("Compute", "layout computed", logrus.Fields{
		"size": size, "offset": offset, "read_bytes": l.ReadBytes,
		"skip_bytes": l.SkipBytes, "shift": l.Shift,
	})
	return l
}

func mask(size uint8) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}

// Cycle is the smallest element count after which a repeated field of
// the given bit width returns the running bit offset to its starting
// value: lcm(size, 8) / size.
func Cycle(size uint8) int {
	if size == 0 || size%8 == 0 {
		return 1
	}
	g := gcd(int(size), 8)
	l := int(size) * 8 / g
	return l / int(size)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
