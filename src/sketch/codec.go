package sketch

import "github.com/upgle/sketchbound/src/rng"

// Cell is the set of unsigned integer widths a CMS cell can be stored
// as. Each codec below instantiates Sketch with exactly one of these.
type Cell interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Variant identifies which of the four cell disciplines a Sketch
// uses. Merge between different variants fails with TypeMismatch even
// though Go's type system already prevents merging across different
// instantiations of Sketch[C] at compile time — Variant gives that
// contract a runtime-checkable identity too, matching spec §4.2's
// merge precondition ("same variant, else TypeMismatch").
type Variant int

const (
	VariantLinear32 Variant = iota
	VariantLinear64
	VariantLog8
	VariantLog1024
)

func (v Variant) String() string {
	switch v {
	case VariantLinear32:
		return "linear32"
	case VariantLinear64:
		return "linear64"
	case VariantLog8:
		return "log8"
	case VariantLog1024:
		return "log1024"
	default:
		return "unknown"
	}
}

// Codec is the capability trait spec §9's Design Notes call for: the
// three hook points (should_inc, decode, merge_values) that the
// shared CMS scaffolding in cms.go drives, expressed as a Go generic
// interface instead of the source's preprocessor-driven duplication.
type Codec[C Cell] interface {
	// Variant identifies this codec for the TypeMismatch check on
	// merge.
	Variant() Variant
	// ShouldInc decides whether a raw cell value advances by one
	// step. Linear codecs always return true; log codecs sample src.
	ShouldInc(cell C, src rng.Source) bool
	// Decode maps a raw cell value to its estimated count.
	Decode(cell C) int64
	// Merge combines two raw cell values from sketches of identical
	// shape into one, using seed to make probabilistic log-cell
	// merges reproducible within a single Merge call.
	Merge(a, b C, seed uint32) C
}
