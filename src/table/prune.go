package table

import "github.com/upgle/sketchbound/src/hash"

// pruneSizeBoundary walks the histogram from bucket 0 upward until the
// running total reaches size-buckets/2, and returns one less than
// boundaryFromBucketIndex of the bucket where the walk stops (spec
// §4.5). The cells of that bucket are kept, so the boundary can evict
// fewer than size-buckets/2 cells, or none: when every cell has count
// 1 the boundary is 0. Per spec §9's resolved Open Question, the walk
// is inclusive of histo[0]: count-0 cells are the cheapest to evict,
// so they count toward the eviction target like everything else.
func (t *Table) pruneSizeBoundary() int64 {
	needed := int64(t.size) - int64(t.buckets)/2
	if needed <= 0 {
		return 0
	}

	var accum uint32
	boundaryIndex := 255
	for idx := 0; idx < 256; idx++ {
		accum += t.histo[idx]
		if int64(accum) >= needed {
			boundaryIndex = idx
			break
		}
	}
	return boundaryFromBucketIndex(boundaryIndex) - 1
}

// Prune is the user-facing direct call to PruneTo (spec §4.5).
func (t *Table) Prune(boundary int64) {
	t.PruneTo(boundary)
}

// PruneTo evicts every cell whose count is <= boundary and compacts
// the survivors to shorten their probe chains, preserving lookup
// correctness for every key that remains (spec §4.5's pruning
// algorithm).
//
// The sweep starts at a known-empty slot so that every cell visited
// afterwards has a home bucket lexically before the current sweep
// position modulo buckets (spec §9's probe-chain preservation note) —
// that precondition is what makes it safe to move a cell backward
// toward its home without breaking a future lookup's probe chain.
func (t *Table) PruneTo(boundary int64) {
	if boundary > t.maxPrune {
		t.maxPrune = boundary
	}
	for i := range t.histo {
		t.histo[i] = 0
	}

	n := t.buckets
	start := uint32(0)
	foundStart := false
	for i := uint32(0); i < n; i++ {
		if t.cells[i].key == nil {
			start = i
			foundStart = true
			break
		}
	}
	if !foundStart {
		// Load invariant guarantees an empty slot exists after the
		// 3/4 trigger; nothing to do if somehow the table is full.
		return
	}

	var newSize uint32

	for step := uint32(1); step < n; step++ {
		idx := (start + step) % n
		c := &t.cells[idx]

		if c.key == nil {
			continue
		}

		if c.count <= boundary {
			t.cells[idx] = cell{}
			continue
		}

		count := c.count
		home := hash.Murmur32(c.key, hashSeed) & t.hashMask
		for p := home; p != idx; p = (p + 1) % n {
			if t.cells[p].key == nil {
				t.cells[p] = *c
				t.cells[idx] = cell{}
				break
			}
		}
		// If no empty slot was found between home and idx, the
		// cell is left exactly where it is.

		t.histo[bucketOf(count)]++
		newSize++
	}

	t.size = newSize
}
