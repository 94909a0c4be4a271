package sketch

import "github.com/upgle/sketchbound/src/rng"

// LinearCodec32 is the u32 linear cell discipline (spec §2 item 1):
// should_inc is always 1, decode is the identity, and merge is plain
// addition. Overflow near 2^32 is not checked, matching spec §3's
// explicit note that the source does not saturate linear cells.
type LinearCodec32 struct{}

func (LinearCodec32) Variant() Variant { return VariantLinear32 }

func (LinearCodec32) ShouldInc(uint32, rng.Source) bool { return true }

func (LinearCodec32) Decode(cell uint32) int64 { return int64(cell) }

func (LinearCodec32) Merge(a, b uint32, _ uint32) uint32 { return a + b }

// LinearCodec64 is the u64 linear cell discipline for very large
// counts (spec §2 item 2).
type LinearCodec64 struct{}

func (LinearCodec64) Variant() Variant { return VariantLinear64 }

func (LinearCodec64) ShouldInc(uint64, rng.Source) bool { return true }

func (LinearCodec64) Decode(cell uint64) int64 { return int64(cell) }

func (LinearCodec64) Merge(a, b uint64, _ uint32) uint64 { return a + b }
