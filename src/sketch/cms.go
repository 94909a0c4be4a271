// Package sketch implements the depth x width Count-Min Sketch
// scaffolding shared by all four cell disciplines (spec §2, §4.2,
// §4.3), generalized over the Codec[C] capability trait instead of
// the source's preprocessor-driven duplication (spec §9 Design
// Notes).
package sketch

import (
	"math/bits"

	"github.com/upgle/sketchbound/src/hash"
	"github.com/upgle/sketchbound/src/hyperloglog"
	"github.com/upgle/sketchbound/src/logging"
	"github.com/upgle/sketchbound/src/rng"
	"github.com/upgle/sketchbound/src/sketcherr"
)

// hllK is the register-count exponent used by every CMS-embedded HLL
// (spec §3: "embedded HLL with k = 16").
const hllK = 16

// Sketch is a depth x width Count-Min Sketch over cells of type C,
// plus an embedded HyperLogLog and a running total of requested
// increments (spec §3's CMS table).
type Sketch[C Cell] struct {
	codec    Codec[C]
	width    uint32
	depth    uint16
	hashMask uint32
	rows     [][]C
	total    int64
	hll      *hyperloglog.HLL
	src      rng.Source
	log      logging.Logger
}

// Option configures a Sketch at construction.
type Option[C Cell] func(*Sketch[C])

// WithLogger attaches a diagnostic logger (default: logging.Nop).
func WithLogger[C Cell](l logging.Logger) Option[C] {
	return func(s *Sketch[C]) { s.log = l }
}

// New constructs a Sketch with the given codec, width, and depth.
// Width is rounded down to the nearest power of two (a request of 0
// becomes 1, spec §3); depth must be in [1, 32] (spec §4.3's
// corrected bound, superseding the "1-16" diagnostic text per §9).
// src supplies the per-instance seeded randomness the log codecs and
// Merge's merge_seed draw from; pass a fresh rng.New(seed) per
// instance rather than sharing one across engines (spec §5, §9).
func New[C Cell](codec Codec[C], width uint32, depth uint16, src rng.Source, opts ...Option[C]) (*Sketch[C], error) {
	if depth < 1 || depth > 32 {
		return nil, sketcherr.InvalidArgumentf("depth must be in [1, 32], got %d", depth)
	}
	w := roundDownPow2(width)

	rows := make([][]C, depth)
	for i := range rows {
		rows[i] = make([]C, w)
	}

	s := &Sketch[C]{
		codec:    codec,
		width:    w,
		depth:    depth,
		hashMask: w - 1,
		rows:     rows,
		hll:      hyperloglog.New(hllK),
		src:      src,
		log:      logging.Nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func roundDownPow2(w uint32) uint32 {
	if w == 0 {
		return 1
	}
	return uint32(1) << (bits.Len32(w) - 1)
}

// Variant reports which of the four cell disciplines this Sketch uses.
func (s *Sketch[C]) Variant() Variant { return s.codec.Variant() }

// Width returns the sketch's column count (always a power of two).
func (s *Sketch[C]) Width() uint32 { return s.width }

// Depth returns the sketch's row count.
func (s *Sketch[C]) Depth() uint16 { return s.depth }

func maxCell[C Cell]() C {
	return ^C(0)
}

// Increment adds n to the frequency estimate of key using conservative
// update (spec §4.2): only rows whose cell sits on the current minimum
// are raised, and only to the new post-update minimum. n must be >= 0;
// n == 0 is a no-op. Row 0's hash also feeds the embedded HLL.
func (s *Sketch[C]) Increment(key []byte, n int64) error {
	if n < 0 {
		return sketcherr.InvalidArgumentf("increment requires n >= 0, got %d", n)
	}
	if n == 0 {
		return nil
	}

	buckets := make([]uint32, s.depth)
	values := make([]C, s.depth)
	minValue := maxCell[C]()

	for i := uint16(0); i < s.depth; i++ {
		h := hash.Murmur32(key, hash.Seed32(int(i)))
		b := h & s.hashMask
		buckets[i] = b
		v := s.rows[i][b]
		values[i] = v
		if i == 0 {
			s.hll.Add(h)
		}
		if v < minValue {
			minValue = v
		}
	}

	result := minValue
	for j := int64(0); j < n; j++ {
		if s.codec.ShouldInc(result, s.src) {
			result++
		}
	}

	for i := uint16(0); i < s.depth; i++ {
		if values[i] < result {
			s.rows[i][buckets[i]] = result
		}
	}

	s.total += n
	return nil
}

// Get returns the row-wise minimum's decoded estimate for key.
func (s *Sketch[C]) Get(key []byte) int64 {
	minValue := maxCell[C]()
	for i := uint16(0); i < s.depth; i++ {
		h := hash.Murmur32(key, hash.Seed32(int(i)))
		b := h & s.hashMask
		if v := s.rows[i][b]; v < minValue {
			minValue = v
		}
	}
	return s.codec.Decode(minValue)
}

// Total returns the sum of all requested increments ever applied.
func (s *Sketch[C]) Total() int64 { return s.total }

// Cardinality returns the embedded HLL's estimate of distinct keys
// seen, floored to an integer.
func (s *Sketch[C]) Cardinality() int64 { return s.hll.Count() }

// Merge folds other into s cell-for-cell (spec §4.2). Both sketches
// must share width, depth, and variant; other is left unmodified.
func (s *Sketch[C]) Merge(other *Sketch[C]) error {
	if s.width != other.width || s.depth != other.depth {
		return sketcherr.InvalidArgumentf("merge requires identical shape: self is %dx%d, other is %dx%d", s.depth, s.width, other.depth, other.width)
	}
	if s.codec.Variant() != other.codec.Variant() {
		s.log.Debugf("refusing merge: variant mismatch %s vs %s", s.codec.Variant(), other.codec.Variant())
		return sketcherr.TypeMismatchf("cannot merge %s sketch with %s sketch", s.codec.Variant(), other.codec.Variant())
	}

	seed := s.src.Uint32()
	for i := range s.rows {
		row, otherRow := s.rows[i], other.rows[i]
		for j := range row {
			row[j] = s.codec.Merge(row[j], otherRow[j], seed)
		}
	}
	s.total += other.total
	return s.hll.Merge(other.hll)
}

// UpdateKeys increments every key in keys by one.
func (s *Sketch[C]) UpdateKeys(keys [][]byte) error {
	for _, k := range keys {
		if err := s.Increment(k, 1); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCounts increments each key by its associated count.
func (s *Sketch[C]) UpdateCounts(counts map[string]int64) error {
	for k, n := range counts {
		if err := s.Increment([]byte(k), n); err != nil {
			return err
		}
	}
	return nil
}
