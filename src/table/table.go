// Package table implements the bounded-memory, open-addressed
// hash-table counter of spec §4.5: linear probing, a 256-bucket
// histogram kept consistent with the table after every mutation, and
// histogram-driven pruning triggered at 3/4 load.
package table

import (
	"bytes"
	"errors"
	"math"

	"github.com/upgle/sketchbound/src/hash"
	"github.com/upgle/sketchbound/src/hyperloglog"
	"github.com/upgle/sketchbound/src/logging"
	"github.com/upgle/sketchbound/src/sketcherr"
)

// hashSeed is the single hash seed the hash table uses for every key
// (spec §3: "For HT, the single hash seed is 42").
const hashSeed = 42

// hllK is the embedded HLL's register-count exponent (spec §3).
const hllK = 16

// cellSizeBytes is the assumed size of one (pointer, int64) cell in
// the original C layout, used to translate a size_mb budget into a
// bucket count the same way spec §4.5's construction formula does.
const cellSizeBytes = 16

type cell struct {
	key   []byte // nil means empty
	count int64
}

// Table is the bounded open-addressed hash-table counter of spec §4.5.
type Table struct {
	buckets      uint32
	hashMask     uint32
	cells        []cell
	size         uint32
	total        int64
	strAllocated uint64
	histo        [256]uint32
	maxPrune     int64
	useUnicode   bool
	hll          *hyperloglog.HLL
	log          logging.Logger
}

// Option configures a Table at construction.
type Option func(*Table)

// WithLogger attaches a diagnostic logger (default: logging.Nop).
func WithLogger(l logging.Logger) Option {
	return func(t *Table) { t.log = l }
}

// WithUnicode sets whether iteration treats keys as UTF-8 text rather
// than raw bytes (spec §4.5: "use_unicode (bool, affects iteration
// output only)"). Defaults to true.
func WithUnicode(enabled bool) Option {
	return func(t *Table) { t.useUnicode = enabled }
}

// New constructs a Table sized either from sizeMB or from an explicit
// bucket count (spec §4.5's construction rule); at least one must be
// positive, and buckets takes precedence when both are given. The
// resulting width is rounded down to a power of two and rejected if
// it would be less than 4.
func New(sizeMB uint64, buckets int64, opts ...Option) (*Table, error) {
	var w uint32
	switch {
	case buckets > 0:
		w = uint32(buckets)
	case sizeMB > 0:
		w = uint32(sizeMB * (1 << 19) / cellSizeBytes)
	default:
		return nil, sketcherr.InvalidArgumentf("one of size_mb or buckets must be positive")
	}
	w = roundDownPow2(w)
	if w < 4 {
		return nil, sketcherr.InvalidArgumentf("buckets must round down to at least 4, got %d", w)
	}

	t := &Table{
		buckets:    w,
		hashMask:   w - 1,
		cells:      make([]cell, w),
		hll:        hyperloglog.New(hllK),
		useUnicode: true,
		log:        logging.Nop,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func roundDownPow2(w uint32) uint32 {
	if w == 0 {
		return 0
	}
	n := uint32(1)
	for n<<1 <= w {
		n <<= 1
	}
	return n
}

// Buckets returns the table's bucket count (always a power of two).
func (t *Table) Buckets() uint32 { return t.buckets }

func validateKey(key []byte) error {
	if bytes.IndexByte(key, 0) != -1 {
		return sketcherr.InvalidArgumentf("key contains an interior NUL byte")
	}
	return nil
}

// locate probes for key, returning its raw (pre-mask) hash, the slot
// it occupies or would occupy, and whether it was found.
func (t *Table) locate(key []byte) (h uint32, idx uint32, found bool) {
	h = hash.Murmur32(key, hashSeed)
	b := h & t.hashMask
	for i := uint32(0); i < t.buckets; i++ {
		probe := (b + i) & t.hashMask
		c := &t.cells[probe]
		if c.key == nil {
			return h, probe, false
		}
		if bytes.Equal(c.key, key) {
			return h, probe, true
		}
	}
	return h, 0, false
}

func (t *Table) loadFactorTriggered() bool {
	return uint64(t.size)*4 >= uint64(t.buckets)*3
}

// ensureRoom prunes the table if it has reached 3/4 load, then
// re-locates key so callers get a fresh, definitely-available slot.
func (t *Table) ensureRoom(key []byte) (h uint32, idx uint32, found bool) {
	h, idx, found = t.locate(key)
	if found || !t.loadFactorTriggered() {
		return h, idx, found
	}
	boundary := t.pruneSizeBoundary()
	t.log.Debugf("hash table load triggered prune: size=%d buckets=%d boundary=%d", t.size, t.buckets, boundary)
	t.PruneTo(boundary)
	return t.locate(key)
}

func (t *Table) allocate(idx uint32, key []byte) {
	t.cells[idx] = cell{key: append([]byte(nil), key...), count: 0}
	t.histo[0]++
	t.size++
	t.strAllocated += uint64(len(key) + 1)
}

// Increment adds n to key's count (spec §4.5). n must be >= 0; n == 0
// is a no-op. A first sighting of key may trigger a prune if the
// table has reached 3/4 load.
func (t *Table) Increment(key []byte, n int64) error {
	if n < 0 {
		return sketcherr.InvalidArgumentf("increment requires n >= 0, got %d", n)
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	h, idx, found := t.ensureRoom(key)
	if !found {
		t.allocate(idx, key)
	}

	c := &t.cells[idx]
	if c.count > math.MaxInt64-n {
		return sketcherr.Overflowf("count for key would exceed math.MaxInt64")
	}
	t.total += n
	t.histo[bucketOf(c.count)]--
	c.count += n
	t.histo[bucketOf(c.count)]++
	t.hll.Add(h)
	return nil
}

// Get returns key's current count, or 0 if key has never been seen
// (or was deleted).
func (t *Table) Get(key []byte) int64 {
	_, idx, found := t.locate(key)
	if !found {
		return 0
	}
	return t.cells[idx].count
}

// Set assigns key's count to v directly. v must be >= 0. v == 0
// behaves like Delete: it clears an existing cell's count without
// allocating one for a key that was never present.
func (t *Table) Set(key []byte, v int64) error {
	if v < 0 {
		return sketcherr.InvalidArgumentf("set requires v >= 0, got %d", v)
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if v == 0 {
		_, idx, found := t.locate(key)
		if !found {
			return nil
		}
		c := &t.cells[idx]
		if c.count == 0 {
			return nil
		}
		t.total -= c.count
		t.histo[bucketOf(c.count)]--
		c.count = 0
		t.histo[0]++
		return nil
	}

	h, idx, found := t.ensureRoom(key)
	if !found {
		t.allocate(idx, key)
	}
	c := &t.cells[idx]
	old := c.count
	t.total += v - old
	t.histo[bucketOf(old)]--
	c.count = v
	t.histo[bucketOf(v)]++
	t.hll.Add(h)
	return nil
}

// Delete clears key's count while preserving its slot in the probe
// chain (spec §4.5: "Equivalent to set(key, 0)").
func (t *Table) Delete(key []byte) error {
	return t.Set(key, 0)
}

// Total returns the running total of all applied increments and Set
// deltas. Pruning never decrements it (spec §4.5, §9): it tracks
// requested mutations, not what currently survives in the table.
func (t *Table) Total() int64 { return t.total }

// Size returns the number of cells with a positive count.
func (t *Table) Size() int64 { return int64(t.size) - int64(t.histo[0]) }

// Cardinality returns size() exactly if the table has never pruned,
// else the embedded HLL's estimate (spec §4.5).
func (t *Table) Cardinality() int64 {
	if t.maxPrune == 0 {
		return t.Size()
	}
	return t.hll.Count()
}

// Quality estimates current load as a fraction of the 3/4-buckets
// threshold, using an exact size when unpruned and the HLL estimate
// otherwise (spec §4.5).
func (t *Table) Quality() float64 {
	capacity := float64(t.buckets) * 0.75
	if capacity == 0 {
		return 0
	}
	var estimate float64
	if t.maxPrune > 0 {
		estimate = t.hll.Cardinality()
	} else {
		estimate = float64(t.Size())
	}
	return estimate / capacity
}

// UpdateKeys increments every key in keys by one.
func (t *Table) UpdateKeys(keys [][]byte) error {
	for _, k := range keys {
		if err := t.Increment(k, 1); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCounts increments each key by its associated count.
func (t *Table) UpdateCounts(counts map[string]int64) error {
	for k, n := range counts {
		if err := t.Increment([]byte(k), n); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFrom merges other into t element-by-element via Increment,
// rather than copying its table directly (spec §4.5).
func (t *Table) UpdateFrom(other *Table) error {
	cur := other.NewCursor(ModePairs)
	for {
		key, value, err := cur.Next()
		if err != nil {
			if errors.Is(err, sketcherr.ErrIterationExhausted) {
				return nil
			}
			return err
		}
		if err := t.Increment(key, value); err != nil {
			return err
		}
	}
}
