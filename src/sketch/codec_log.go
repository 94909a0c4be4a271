package sketch

import (
	"encoding/binary"

	"github.com/upgle/sketchbound/src/hash"
	"github.com/upgle/sketchbound/src/rng"
)

// LogCodec8 is the 8-bit, base-8 log-counter cell (spec §3: E=5, M=3).
type LogCodec8 struct{}

const (
	log8Mantissa uint  = 3
	log8Base     int64 = 8
)

func (LogCodec8) Variant() Variant { return VariantLog8 }

func (LogCodec8) ShouldInc(cell uint8, src rng.Source) bool {
	return logShouldInc(uint64(cell), log8Base, log8Mantissa, src)
}

func (LogCodec8) Decode(cell uint8) int64 {
	return logDecode(uint64(cell), log8Base, log8Mantissa)
}

func (LogCodec8) Merge(a, b uint8, seed uint32) uint8 {
	return uint8(logMerge(uint64(a), uint64(b), seed, log8Base, log8Mantissa))
}

// LogCodec16 is the 16-bit, base-1024 log-counter cell (spec §3: E=6, M=10).
type LogCodec16 struct{}

const (
	log1024Mantissa uint  = 10
	log1024Base     int64 = 1024
)

func (LogCodec16) Variant() Variant { return VariantLog1024 }

func (LogCodec16) ShouldInc(cell uint16, src rng.Source) bool {
	return logShouldInc(uint64(cell), log1024Base, log1024Mantissa, src)
}

func (LogCodec16) Decode(cell uint16) int64 {
	return logDecode(uint64(cell), log1024Base, log1024Mantissa)
}

func (LogCodec16) Merge(a, b uint16, seed uint32) uint16 {
	return uint16(logMerge(uint64(a), uint64(b), seed, log1024Base, log1024Mantissa))
}

// logDecode implements spec §3's log-cell decoding:
//
//	cell <= 2*base           -> cell
//	otherwise                -> (base + mantissa) << (exponent - 1)
func logDecode(cell uint64, base int64, m uint) int64 {
	twoBase := 2 * base
	if int64(cell) <= twoBase {
		return int64(cell)
	}
	mantissa := int64(cell) & ((int64(1) << m) - 1)
	exponent := cell >> m
	return (base + mantissa) << (exponent - 1)
}

// logShouldInc implements spec §3's probabilistic increment rule:
// deterministic 1 while cell < 2*base, else a 32-bit coin flip whose
// success probability halves with every step of exponent.
func logShouldInc(cell uint64, base int64, m uint, src rng.Source) bool {
	twoBase := uint64(2 * base)
	if cell < twoBase {
		return true
	}
	exponent := uint32(cell >> m)
	mask := uint32(0xFFFFFFFF) >> (uint32(33) - exponent)
	r := src.Uint32()
	return mask&r == 0
}

// logMerge implements spec §4.2's probabilistic log-cell merge: decode
// both operands, re-encode their sum, and use a hashed coin flip keyed
// on an 8-byte little-endian view of the decoded sum to decide the
// rounding bit. Byte width and endianness here must stay fixed at 8
// bytes / little-endian for merges to stay reproducible (spec §9).
func logMerge(a, b uint64, seed uint32, base int64, m uint) uint64 {
	d := logDecode(a, base, m) + logDecode(b, base, m)
	twoBase := 2 * base
	if d <= twoBase {
		return uint64(d)
	}

	var e uint = 1
	for (d >> (e - 1)) >= twoBase {
		e++
	}
	mantissa := (d >> (e - 1)) - base

	mask := uint32(0xFFFFFFFF) >> (uint32(33) - uint32(e))
	remainder := uint64(mask) & uint64(d)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(d))
	r := hash.Murmur32(buf[:], seed)

	var rounding int64
	if uint64(mask)&uint64(r) < remainder {
		rounding = 1
	}

	return (uint64(e) << m) + uint64(mantissa+rounding)
}
