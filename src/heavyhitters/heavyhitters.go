// Package heavyhitters tracks frequently-seen keys on top of a
// Count-Min Sketch, adapted from the teacher's
// src/redis/hotkey_detector.go and hotkey_batcher.go: the same
// threshold-promotion-plus-LRU-eviction shape, rebuilt on this
// module's own generic sketch engine instead of the teacher's bespoke
// xxhash-keyed counter.
package heavyhitters

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jpillora/backoff"

	"github.com/upgle/sketchbound/src/logging"
	"github.com/upgle/sketchbound/src/rng"
	"github.com/upgle/sketchbound/src/sketch"
)

// Config holds construction parameters for a Tracker, mirroring the
// teacher's HotKeyDetectorConfig field-for-field where the concept
// carries over.
type Config struct {
	SketchWidth   uint32
	SketchDepth   uint16
	Threshold     int64
	MaxHotKeys    int
	DecayAccesses int64 // RecordAccess calls between decay sweeps, before backoff widening
}

// DefaultConfig mirrors the teacher's DefaultHotKeyDetectorConfig.
func DefaultConfig() Config {
	return Config{
		SketchWidth:   4096,
		SketchDepth:   4,
		Threshold:     100,
		MaxHotKeys:    10000,
		DecayAccesses: 10000,
	}
}

// fingerprint is the fast, non-statistical key used to dedupe the hot
// set: xxhash here takes over the role cespare/xxhash/v2 plays in the
// teacher's own countmin_sketch.go, while the core frequency estimate
// stays on the MurmurHash3 contract inside sketch.Sketch.
type fingerprint = uint64

// Tracker detects frequently-accessed keys using a Count-Min Sketch
// and maintains a bounded, LRU-evicted set of keys currently
// considered hot.
type Tracker struct {
	cms        *sketch.Sketch[uint32]
	threshold  int64
	maxHot     int
	hot        map[fingerprint]string
	order      []fingerprint // LRU order, most-recent at the end
	accesses   int64
	nextDecay  int64
	decayClock *backoff.Backoff
	log        logging.Logger
}

// New constructs a Tracker from cfg. src seeds the underlying sketch's
// log-cell/merge randomness (unused by the linear-32 codec Tracker
// uses, but required by sketch.New's signature).
func New(cfg Config, src rng.Source) (*Tracker, error) {
	s, err := sketch.New[uint32](sketch.LinearCodec32{}, cfg.SketchWidth, cfg.SketchDepth, src)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		cms:       s,
		threshold: cfg.Threshold,
		maxHot:    cfg.MaxHotKeys,
		hot:       make(map[fingerprint]string),
		nextDecay: cfg.DecayAccesses,
		decayClock: &backoff.Backoff{
			// Min/Max are repurposed as access counts rather than wall
			// time: Tracker's decay schedule widens with sustained
			// load (mirroring the teacher's maybeDecay), not with the
			// clock, so a plain int64-as-Duration cast is exact here.
			Min:    time.Duration(cfg.DecayAccesses),
			Max:    time.Duration(cfg.DecayAccesses * 64),
			Factor: 2,
		},
		log: logging.Nop,
	}, nil
}

// WithLogger attaches a diagnostic logger to t.
func (t *Tracker) WithLogger(l logging.Logger) *Tracker {
	t.log = l
	return t
}

// RecordAccess records an access to key and reports whether it is
// currently considered hot, either because this access promoted it or
// because it already was.
func (t *Tracker) RecordAccess(key []byte) (bool, error) {
	return t.RecordAccessWithDelta(key, 1)
}

// RecordAccessWithDelta records n accesses to key at once.
func (t *Tracker) RecordAccessWithDelta(key []byte, n int64) (bool, error) {
	t.accesses++
	if t.accesses >= t.nextDecay {
		t.decay()
	}

	if err := t.cms.Increment(key, n); err != nil {
		return false, err
	}
	count := t.cms.Get(key)

	fp := xxhash.Sum64(key)
	if _, ok := t.hot[fp]; ok {
		t.touch(fp)
		return true, nil
	}
	if count >= t.threshold {
		t.promote(fp, string(key))
		return true, nil
	}
	return false, nil
}

// IsHot reports whether key is currently in the hot set, without
// recording an access.
func (t *Tracker) IsHot(key []byte) bool {
	_, ok := t.hot[xxhash.Sum64(key)]
	return ok
}

// Estimate returns the sketch's current frequency estimate for key.
func (t *Tracker) Estimate(key []byte) int64 {
	return t.cms.Get(key)
}

// HotKeys returns the current hot set's keys, LRU-ordered (least
// recently promoted/touched first).
func (t *Tracker) HotKeys() []string {
	out := make([]string, 0, len(t.order))
	for _, fp := range t.order {
		if k, ok := t.hot[fp]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (t *Tracker) touch(fp fingerprint) {
	for i, v := range t.order {
		if v == fp {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.order = append(t.order, fp)
}

func (t *Tracker) promote(fp fingerprint, key string) {
	for len(t.order) >= t.maxHot {
		evict := t.order[0]
		t.order = t.order[1:]
		delete(t.hot, evict)
	}
	t.hot[fp] = key
	t.order = append(t.order, fp)
	t.log.Debugf("heavy hitter promoted: key=%q estimate=%d", key, t.cms.Get([]byte(key)))
}

// decay widens the interval before the next sweep using the same
// growing-backoff shape as the teacher's maybeDecay, but measured in
// access counts rather than wall-clock time. It drops any hot key
// whose estimate has fallen back under threshold.
func (t *Tracker) decay() {
	t.nextDecay = t.accesses + int64(t.decayClock.Duration())
	if t.nextDecay <= t.accesses {
		t.nextDecay = t.accesses + 1
	}

	survivors := t.order[:0:0]
	for _, fp := range t.order {
		key := t.hot[fp]
		if t.cms.Get([]byte(key)) >= t.threshold {
			survivors = append(survivors, fp)
		} else {
			delete(t.hot, fp)
		}
	}
	t.order = survivors
}
