package sketch

import (
	"encoding/binary"

	"github.com/upgle/sketchbound/src/rng"
	"github.com/upgle/sketchbound/src/sketcherr"
)

// CMSDump is the in-memory form of spec §6's CMS state dump: a
// (type_tag, ctor_args, state) triple, where state is the per-row
// cell bytes, the embedded HLL's registers, and the running total.
type CMSDump struct {
	Variant      Variant
	Width        uint32
	Depth        uint16
	Rows         [][]byte // depth entries, each width*sizeof(cell) bytes, little-endian
	HLLRegisters []byte   // 2^16 bytes for the CMS-embedded HLL (k=16)
	Total        int64
}

func cellSize[C Cell]() int {
	var c C
	switch any(c).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	default:
		return 0
	}
}

func encodeRow[C Cell](row []C) []byte {
	size := cellSize[C]()
	buf := make([]byte, len(row)*size)
	for i, v := range row {
		switch size {
		case 1:
			buf[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		case 8:
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
	}
	return buf
}

func decodeRow[C Cell](data []byte, width uint32) []C {
	size := cellSize[C]()
	row := make([]C, width)
	for i := range row {
		switch size {
		case 1:
			row[i] = C(data[i])
		case 2:
			row[i] = C(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			row[i] = C(binary.LittleEndian.Uint32(data[i*4:]))
		case 8:
			row[i] = C(binary.LittleEndian.Uint64(data[i*8:]))
		}
	}
	return row
}

// Dump captures s's state in the layout of spec §6.
func (s *Sketch[C]) Dump() CMSDump {
	rows := make([][]byte, len(s.rows))
	for i, row := range s.rows {
		rows[i] = encodeRow(row)
	}
	regs := append([]byte(nil), s.hll.Registers()...)
	return CMSDump{
		Variant:      s.codec.Variant(),
		Width:        s.width,
		Depth:        s.depth,
		Rows:         rows,
		HLLRegisters: regs,
		Total:        s.total,
	}
}

// Restore rebuilds a Sketch from a CMSDump produced by Dump, checking
// that the dump's variant matches codec (else TypeMismatch).
func Restore[C Cell](codec Codec[C], d CMSDump, src rng.Source) (*Sketch[C], error) {
	if d.Variant != codec.Variant() {
		return nil, sketcherr.TypeMismatchf("dump is %s, codec is %s", d.Variant, codec.Variant())
	}
	if len(d.Rows) != int(d.Depth) {
		return nil, sketcherr.InvalidArgumentf("dump has %d rows, depth says %d", len(d.Rows), d.Depth)
	}

	s, err := New(codec, d.Width, d.Depth, src)
	if err != nil {
		return nil, err
	}
	for i, rowBytes := range d.Rows {
		if len(rowBytes) != int(s.width)*cellSize[C]() {
			return nil, sketcherr.InvalidArgumentf("row %d has %d bytes, want %d", i, len(rowBytes), int(s.width)*cellSize[C]())
		}
		s.rows[i] = decodeRow[C](rowBytes, s.width)
	}
	if err := s.hll.RestoreRegisters(d.HLLRegisters); err != nil {
		return nil, sketcherr.InvalidArgumentf("%v", err)
	}
	s.total = d.Total
	return s, nil
}

// MarshalBinary encodes s as a single byte-exact stream: a 1-byte
// variant tag, little-endian width (4 bytes) and depth (2 bytes), the
// row bytes, the HLL register bytes, then the little-endian total (8
// bytes). This is spec §6's dump triple flattened to bytes, using the
// same little-endian convention as the retrieved count-min-log
// reference sketch's own MarshalBinary.
func (s *Sketch[C]) MarshalBinary() ([]byte, error) {
	d := s.Dump()
	size := cellSize[C]()
	total := 7 + len(d.Rows)*int(d.Width)*size + len(d.HLLRegisters) + 8
	buf := make([]byte, 0, total)

	buf = append(buf, byte(d.Variant))
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], d.Width)
	buf = append(buf, tmp4[:]...)
	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], d.Depth)
	buf = append(buf, tmp2[:]...)
	for _, row := range d.Rows {
		buf = append(buf, row...)
	}
	buf = append(buf, d.HLLRegisters...)
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], uint64(d.Total))
	buf = append(buf, tmp8[:]...)
	return buf, nil
}

// UnmarshalCMS decodes a byte stream produced by MarshalBinary back
// into a live Sketch, validating codec against the embedded variant
// tag.
func UnmarshalCMS[C Cell](codec Codec[C], data []byte, src rng.Source) (*Sketch[C], error) {
	if len(data) < 7 {
		return nil, sketcherr.InvalidArgumentf("dump too short: %d bytes", len(data))
	}
	variant := Variant(data[0])
	width := binary.LittleEndian.Uint32(data[1:5])
	depth := binary.LittleEndian.Uint16(data[5:7])
	offset := 7

	size := cellSize[C]()
	rows := make([][]byte, depth)
	for i := 0; i < int(depth); i++ {
		n := int(width) * size
		if offset+n > len(data) {
			return nil, sketcherr.InvalidArgumentf("dump truncated in row %d", i)
		}
		rows[i] = data[offset : offset+n]
		offset += n
	}

	hllSize := 1 << hllK
	if offset+hllSize+8 != len(data) {
		return nil, sketcherr.InvalidArgumentf("dump has %d trailing bytes, want %d", len(data)-offset, hllSize+8)
	}
	hllRegs := data[offset : offset+hllSize]
	offset += hllSize
	total := int64(binary.LittleEndian.Uint64(data[offset : offset+8]))

	return Restore(codec, CMSDump{
		Variant:      variant,
		Width:        width,
		Depth:        depth,
		Rows:         rows,
		HLLRegisters: hllRegs,
		Total:        total,
	}, src)
}
