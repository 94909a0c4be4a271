package table

import (
	"encoding/binary"

	"github.com/upgle/sketchbound/src/sketcherr"
)

// maxChunkCells bounds how many cells one hashtable_chunks entry may
// hold (spec §6: "chunks of at most 2^24 cells").
const maxChunkCells = 1 << 24

// cellRecordSize is the per-cell record width in a chunk: a 1-byte
// occupied flag (pointers are scrubbed to this single bit on dump, as
// spec §6 requires) plus an 8-byte little-endian count.
const cellRecordSize = 9

// TableDump is the in-memory form of spec §6's hash-table state dump.
type TableDump struct {
	Buckets      int64
	UseUnicode   bool
	Total        int64
	StrAllocated uint64
	Size         uint32
	MaxPrune     int64
	Chunks       [][]byte // cellRecordSize bytes per cell, chunked at maxChunkCells
	StringsBlob  []byte   // occupied keys in table order, each NUL-terminated
	HistoBytes   []byte   // 256 * 4 bytes, little-endian uint32 per bucket
	HLLRegisters []byte   // 2^16 bytes
}

// Dump captures t's state in the layout of spec §6.
func (t *Table) Dump() TableDump {
	var chunks [][]byte
	for start := uint32(0); start < t.buckets; start += maxChunkCells {
		end := start + maxChunkCells
		if end > t.buckets {
			end = t.buckets
		}
		buf := make([]byte, int(end-start)*cellRecordSize)
		for i := start; i < end; i++ {
			off := int(i-start) * cellRecordSize
			c := &t.cells[i]
			if c.key != nil {
				buf[off] = 1
			}
			binary.LittleEndian.PutUint64(buf[off+1:], uint64(c.count))
		}
		chunks = append(chunks, buf)
	}

	stringsBlob := make([]byte, 0, t.strAllocated)
	for i := range t.cells {
		if key := t.cells[i].key; key != nil {
			stringsBlob = append(stringsBlob, key...)
			stringsBlob = append(stringsBlob, 0)
		}
	}

	histoBytes := make([]byte, 256*4)
	for i, v := range t.histo {
		binary.LittleEndian.PutUint32(histoBytes[i*4:], v)
	}

	return TableDump{
		Buckets:      int64(t.buckets),
		UseUnicode:   t.useUnicode,
		Total:        t.total,
		StrAllocated: t.strAllocated,
		Size:         t.size,
		MaxPrune:     t.maxPrune,
		Chunks:       chunks,
		StringsBlob:  stringsBlob,
		HistoBytes:   histoBytes,
		HLLRegisters: append([]byte(nil), t.hll.Registers()...),
	}
}

// Restore rebuilds a Table from a TableDump produced by Dump.
func Restore(d TableDump, opts ...Option) (*Table, error) {
	t, err := New(0, d.Buckets, append(opts, WithUnicode(d.UseUnicode))...)
	if err != nil {
		return nil, err
	}

	blobPos := 0
	idx := uint32(0)
	for _, chunk := range d.Chunks {
		if len(chunk)%cellRecordSize != 0 {
			return nil, sketcherr.InvalidArgumentf("chunk length %d is not a multiple of %d", len(chunk), cellRecordSize)
		}
		n := len(chunk) / cellRecordSize
		for i := 0; i < n; i++ {
			if idx >= t.buckets {
				return nil, sketcherr.InvalidArgumentf("dump has more cells than buckets=%d", t.buckets)
			}
			off := i * cellRecordSize
			occupied := chunk[off] == 1
			count := int64(binary.LittleEndian.Uint64(chunk[off+1:]))
			if occupied {
				end := blobPos
				for end < len(d.StringsBlob) && d.StringsBlob[end] != 0 {
					end++
				}
				if end >= len(d.StringsBlob) {
					return nil, sketcherr.InvalidArgumentf("strings blob truncated at cell %d", idx)
				}
				key := append([]byte(nil), d.StringsBlob[blobPos:end]...)
				blobPos = end + 1
				t.cells[idx] = cell{key: key, count: count}
			}
			idx++
		}
	}
	if idx != t.buckets {
		return nil, sketcherr.InvalidArgumentf("dump covers %d cells, want %d", idx, t.buckets)
	}
	if len(d.HistoBytes) != 256*4 {
		return nil, sketcherr.InvalidArgumentf("histogram payload has %d bytes, want %d", len(d.HistoBytes), 256*4)
	}

	t.total = d.Total
	t.strAllocated = d.StrAllocated
	t.size = d.Size
	t.maxPrune = d.MaxPrune
	for i := 0; i < 256; i++ {
		t.histo[i] = binary.LittleEndian.Uint32(d.HistoBytes[i*4:])
	}
	if err := t.hll.RestoreRegisters(d.HLLRegisters); err != nil {
		return nil, sketcherr.InvalidArgumentf("%v", err)
	}
	return t, nil
}

// MarshalBinary flattens a TableDump-shaped view of t into a single
// byte-exact stream: fixed header, chunk table, strings blob,
// histogram, then HLL registers.
func (t *Table) MarshalBinary() ([]byte, error) {
	d := t.Dump()

	buf := make([]byte, 0, 64+len(d.StringsBlob)+len(d.HistoBytes)+len(d.HLLRegisters))
	var tmp8 [8]byte

	binary.LittleEndian.PutUint64(tmp8[:], uint64(d.Buckets))
	buf = append(buf, tmp8[:]...)

	var useUnicode byte
	if d.UseUnicode {
		useUnicode = 1
	}
	buf = append(buf, useUnicode)

	binary.LittleEndian.PutUint64(tmp8[:], uint64(d.Total))
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], d.StrAllocated)
	buf = append(buf, tmp8[:]...)

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], d.Size)
	buf = append(buf, tmp4[:]...)

	binary.LittleEndian.PutUint64(tmp8[:], uint64(d.MaxPrune))
	buf = append(buf, tmp8[:]...)

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(d.Chunks)))
	buf = append(buf, tmp4[:]...)
	for _, chunk := range d.Chunks {
		binary.LittleEndian.PutUint64(tmp8[:], uint64(len(chunk)))
		buf = append(buf, tmp8[:]...)
		buf = append(buf, chunk...)
	}

	binary.LittleEndian.PutUint64(tmp8[:], uint64(len(d.StringsBlob)))
	buf = append(buf, tmp8[:]...)
	buf = append(buf, d.StringsBlob...)

	buf = append(buf, d.HistoBytes...)
	buf = append(buf, d.HLLRegisters...)
	return buf, nil
}

// UnmarshalTable decodes a byte stream produced by MarshalBinary back
// into a live Table.
func UnmarshalTable(data []byte, opts ...Option) (*Table, error) {
	r := &byteReader{data: data}

	buckets := int64(r.uint64())
	useUnicode := r.byte() == 1
	total := int64(r.uint64())
	strAllocated := r.uint64()
	size := r.uint32()
	maxPrune := int64(r.uint64())

	numChunks := r.uint32()
	chunks := make([][]byte, numChunks)
	for i := range chunks {
		n := r.uint64()
		chunks[i] = r.bytes(int(n))
	}

	blobLen := r.uint64()
	stringsBlob := r.bytes(int(blobLen))

	histoBytes := r.bytes(256 * 4)
	hllRegisters := r.bytes(1 << hllK)

	if r.err != nil {
		return nil, sketcherr.InvalidArgumentf("%v", r.err)
	}

	return Restore(TableDump{
		Buckets:      buckets,
		UseUnicode:   useUnicode,
		Total:        total,
		StrAllocated: strAllocated,
		Size:         size,
		MaxPrune:     maxPrune,
		Chunks:       chunks,
		StringsBlob:  stringsBlob,
		HistoBytes:   histoBytes,
		HLLRegisters: hllRegisters,
	}, opts...)
}

// byteReader is a tiny bounds-checked cursor over a dump's byte
// stream; it records the first error encountered and makes every
// later read a no-op, so UnmarshalTable can check it once at the end.
type byteReader struct {
	data []byte
	pos  int
	err  error
}

func (r *byteReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = sketcherr.InvalidArgumentf("dump truncated at offset %d, need %d more bytes", r.pos, n)
		return false
	}
	return true
}

func (r *byteReader) byte() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *byteReader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *byteReader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *byteReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}
