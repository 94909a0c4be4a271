package table

import "github.com/upgle/sketchbound/src/sketcherr"

// Mode selects what a Cursor yields.
type Mode int

const (
	ModeKeys Mode = iota
	ModeValues
	ModePairs
)

// Cursor walks a Table's live cells (those with a non-nil key and a
// positive count) in table order (spec §4.5). Modifying the table
// while a Cursor is active is unspecified, matching spec's own
// silence on the matter.
type Cursor struct {
	t    *Table
	idx  uint32
	mode Mode
}

// NewCursor returns a Cursor over t in the given Mode.
func (t *Table) NewCursor(mode Mode) *Cursor {
	return &Cursor{t: t, mode: mode}
}

// Next advances the cursor to the next live cell. It returns
// sketcherr.ErrIterationExhausted once every cell has been visited;
// callers should match that with errors.Is.
func (c *Cursor) Next() (key []byte, value int64, err error) {
	for c.idx < c.t.buckets {
		cell := &c.t.cells[c.idx]
		c.idx++
		if cell.key == nil || cell.count == 0 {
			continue
		}
		switch c.mode {
		case ModeKeys:
			return cell.key, 0, nil
		case ModeValues:
			return nil, cell.count, nil
		default:
			return cell.key, cell.count, nil
		}
	}
	return nil, 0, sketcherr.ErrIterationExhausted
}
